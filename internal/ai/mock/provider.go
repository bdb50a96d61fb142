package mock

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/domain"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger
	mu     sync.Mutex

	// Configurable responses for testing
	ScoreResponse   *domain.Feedback
	ScoreError      error
	BankResponse    *domain.QuestionBank
	BankError       error
	CVResponse      *domain.CVData
	CVError         error
	ProblemResponse *domain.Problem
	ProblemError    error

	// BankErrors, when set, is consumed one entry per call before BankError.
	BankErrors []error

	// Call tracking for testing
	ScoreCalls   int
	BankCalls    int
	CVCalls      int
	ProblemCalls int

	LastScore ai.ScoreParams
	LastBank  ai.BankParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// ScoreAnswer returns the configured feedback or a canned grade.
func (p *Provider) ScoreAnswer(ctx context.Context, params ai.ScoreParams) (*domain.Feedback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ScoreCalls++
	p.LastScore = params

	if p.ScoreError != nil {
		return nil, p.ScoreError
	}
	if p.ScoreResponse != nil {
		fb := *p.ScoreResponse
		return &fb, nil
	}

	// Canned grade: every key the answer mentions is found.
	lower := strings.ToLower(params.Answer)
	found, missing := []string{}, []string{}
	for _, k := range params.Question.Keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			found = append(found, k)
		} else {
			missing = append(missing, k)
		}
	}
	return &domain.Feedback{
		Score:        72,
		Strengths:    []domain.Point{{Title: "Clear structure", Detail: "The answer is easy to follow."}},
		Improvements: []domain.Point{{Title: "Quantify", Detail: "Add numbers to support the argument."}},
		Found:        found,
		Missing:      missing,
		Summary:      "Solid answer. Add more quantitative detail.",
		Source:       domain.FeedbackSourceAI,
	}, nil
}

// GenerateBank returns the configured bank or a small canned one.
func (p *Provider) GenerateBank(ctx context.Context, params ai.BankParams) (*domain.QuestionBank, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BankCalls++
	p.LastBank = params

	if len(p.BankErrors) > 0 {
		err := p.BankErrors[0]
		p.BankErrors = p.BankErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	if p.BankError != nil {
		return nil, p.BankError
	}
	if p.BankResponse != nil {
		bank := *p.BankResponse
		return &bank, nil
	}

	role := params.TargetRole
	if role == "" {
		role = "Finance"
	}
	level := "standard"
	if params.CV != nil {
		level = "high"
	}
	return &domain.QuestionBank{
		Questions: []domain.Question{
			{ID: 1, Text: "Walk me through a DCF.", Type: "technical", Category: "Technical", Keys: []string{"free cash flow", "wacc", "terminal value"}, Model: "Project FCF, discount at WACC, add terminal value."},
			{ID: 2, Text: "How would you evaluate a capex proposal?", Type: "technical", Category: "Technical", Keys: []string{"npv", "irr", "payback"}},
		},
		Cases: []domain.Case{
			{ID: 1, Title: "Margin squeeze", Scenario: "Gross margin fell 4 points in two quarters.", Task: "Diagnose the drivers and recommend actions.", Minutes: 30, Criteria: []string{"price", "mix", "cost"}},
		},
		Meta: domain.BankMeta{TargetRole: role, Difficulty: "mixed", PersonalisationLevel: level},
	}, nil
}

// ExtractCV returns the configured CV or a minimal profile.
func (p *Provider) ExtractCV(ctx context.Context, params ai.CVParams) (*domain.CVData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CVCalls++

	if p.CVError != nil {
		return nil, p.CVError
	}
	if p.CVResponse != nil {
		cv := *p.CVResponse
		return &cv, nil
	}
	return &domain.CVData{
		CandidateProfile: domain.CandidateProfile{FullName: "Sam Taylor"},
		EmploymentHistory: []domain.Employment{
			{CompanyName: "Acme plc", JobTitle: "Financial Analyst", IsCurrentRole: true},
		},
		Skills: domain.Skills{Technical: domain.FlexStrings{"IFRS", "DCF"}, Tools: domain.FlexStrings{"Excel"}},
	}, nil
}

// GenerateProblem returns the configured problem or a canned one.
func (p *Provider) GenerateProblem(ctx context.Context, params ai.ProblemParams) (*domain.Problem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ProblemCalls++

	if p.ProblemError != nil {
		return nil, p.ProblemError
	}
	if p.ProblemResponse != nil {
		pr := *p.ProblemResponse
		return &pr, nil
	}
	return &domain.Problem{
		Title:    "Working capital release",
		Scenario: "A distributor has 95 debtor days against a sector norm of 60.",
		Task:     "Propose a plan to release cash within two quarters.",
		Keys:     []string{"dso", "cash conversion cycle", "factoring"},
		Minutes:  30,
	}, nil
}

// Calls returns the total number of calls across all methods.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ScoreCalls + p.BankCalls + p.CVCalls + p.ProblemCalls
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ScoreCalls, p.BankCalls, p.CVCalls, p.ProblemCalls = 0, 0, 0, 0
	p.ScoreResponse, p.ScoreError = nil, nil
	p.BankResponse, p.BankError, p.BankErrors = nil, nil, nil
	p.CVResponse, p.CVError = nil, nil
	p.ProblemResponse, p.ProblemError = nil, nil
	p.LastScore, p.LastBank = ai.ScoreParams{}, ai.BankParams{}
}

var _ ai.Provider = (*Provider)(nil)
