// Package service contains the business logic layer.
//
// PracticeService is the session object for one device user. It owns the
// entitlement engine and the history aggregator and orchestrates the AI
// gateway, retry policy and local scoring around them. Callers pass it
// explicitly; there is no package-level state.
package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/entitlement"
	"github.com/DukeRupert/readyhire/internal/history"
	"github.com/DukeRupert/readyhire/internal/kvstore"
	"github.com/DukeRupert/readyhire/internal/metrics"
	"github.com/DukeRupert/readyhire/internal/report"
	"github.com/DukeRupert/readyhire/internal/retry"
	"github.com/DukeRupert/readyhire/internal/scoring"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// MinQuestionAnswer is the shortest accepted answer to a question.
	MinQuestionAnswer = 20

	// MinCaseAnswer is the shortest accepted answer to a case study.
	MinCaseAnswer = 30

	// Bank sizes requested per tier.
	unlimitedBankQuestions = 15
	unlimitedBankCases     = 3
	maxBankQuestions       = 10
	maxBankCases           = 2

	titleLength = 60
)

// Defaults used when building a profile without CV details.
const (
	defaultCurrentRole = "Finance Professional"
	defaultTargetRole  = "From Job Description"
	defaultIndustry    = "Finance"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PracticeService defines the operations available to the device user.
type PracticeService interface {
	// SubmitAnswer grades an answer and records it in the history.
	// Returns a ValidationError for short answers and domain.EPAYMENT when
	// the monthly allowance is exhausted; neither consumes quota.
	// Gateway failures fall back to local scoring and are never returned.
	SubmitAnswer(ctx context.Context, params SubmitParams) (*domain.SessionRecord, error)

	// GenerateBank produces and stores a new question bank.
	// Returns a ValidationError when there is nothing to generate from and
	// domain.EUNAVAILABLE when generation fails after retrying.
	GenerateBank(ctx context.Context, req BankRequest) (*domain.QuestionBank, error)

	// ParseCV extracts and stores structured CV data.
	ParseCV(ctx context.Context, text string) (*domain.CVData, error)

	// GenerateProblem produces one custom question or case study.
	// Requires a tier with AI feedback.
	GenerateProblem(ctx context.Context, req ProblemRequest) (*domain.Problem, error)

	// SyncSubscription asks the billing provider for the user's tier and
	// applies it when it differs from the cached one.
	SyncSubscription(ctx context.Context) (*domain.SubscriptionStatus, error)

	// SignIn stores the device user's identity. When billing is configured
	// the tier is refreshed too; a failed refresh keeps the cached tier.
	SignIn(ctx context.Context, email, name string) domain.User

	// User returns the stored user, if any.
	User(ctx context.Context) (*domain.User, bool)

	// Logout clears every stored key except the display preference and
	// resets the subscription to free.
	Logout(ctx context.Context)

	Status() entitlement.Status
	Bank(ctx context.Context) (*domain.QuestionBank, bool)
	Profile(ctx context.Context) (*domain.Profile, bool)
	History() []domain.SessionRecord
	Readiness() int
	Streak() int
	WeakAreas() []domain.WeakArea

	// ExportReport writes the progress report to w in the given format.
	ExportReport(ctx context.Context, format report.Format, w io.Writer) error

	Preferences(ctx context.Context) domain.Preferences
	SetInterviewDate(ctx context.Context, date *time.Time)
	SetTargetCompany(ctx context.Context, company string)
	SetDarkMode(ctx context.Context, on bool)

	// RunRollover resets monthly usage when the month changes, checking
	// every interval until ctx is done.
	RunRollover(ctx context.Context, interval time.Duration)
}

// SubmitParams identifies what is being answered.
// Either Index selects from the stored bank or Question/Case is given inline.
type SubmitParams struct {
	Type     domain.SessionType
	Index    int
	Question *domain.Question
	Case     *domain.Case
	Answer   string
	// Manager marks a leadership session, charged to the manager allowance.
	Manager bool
}

// BankRequest is the input for bank generation. A nil CV uses the stored one.
type BankRequest struct {
	CV             *domain.CVData
	JobDescription string
	TargetRole     string
	TargetCompany  string
}

// ProblemRequest is the input for a single custom problem.
type ProblemRequest struct {
	Type          domain.SessionType
	LevelName     string
	CompanyName   string
	CompanyStyle  string
	CompanySector string
}

// PracticeDeps are the collaborators of the practice service.
type PracticeDeps struct {
	Store    *kvstore.Store
	Provider ai.Provider
	Billing  billing.Verifier // optional
	Now      func() time.Time
	Logger   *slog.Logger

	// GenerationPolicy defaults to retry.Generation.
	GenerationPolicy *retry.Policy

	// SyncOnStart refreshes the tier from Billing when a signed-in user
	// with an email is stored. Failures are logged and the cached tier kept.
	SyncOnStart bool
}

// =============================================================================
// Implementation
// =============================================================================

type practiceService struct {
	store    *kvstore.Store
	provider ai.Provider
	billing  billing.Verifier
	engine   *entitlement.Engine
	history  *history.Aggregator
	policy   retry.Policy
	now      func() time.Time
	logger   *slog.Logger
}

// NewPracticeService loads persisted state and returns the session object.
func NewPracticeService(ctx context.Context, deps PracticeDeps) PracticeService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	policy := retry.Generation
	if deps.GenerationPolicy != nil {
		policy = *deps.GenerationPolicy
	}
	s := &practiceService{
		store:    deps.Store,
		provider: deps.Provider,
		billing:  deps.Billing,
		engine:   entitlement.New(ctx, deps.Store, deps.Now, deps.Logger),
		history:  history.New(ctx, deps.Store, deps.Now, deps.Logger),
		policy:   policy,
		now:      deps.Now,
		logger:   deps.Logger,
	}
	if deps.SyncOnStart {
		if user, ok := s.User(ctx); ok && user.HasEmail() {
			s.trySync(ctx, "start")
		}
	}
	return s
}

// =============================================================================
// Answering
// =============================================================================

// prompt is what the grader sees for one submission.
type prompt struct {
	question domain.Question
	context  string
	title    string
	text     string
}

func (s *practiceService) SubmitAnswer(ctx context.Context, params SubmitParams) (*domain.SessionRecord, error) {
	const op = "practice.submit_answer"

	if params.Type == "" {
		params.Type = domain.SessionTypeQuestion
	}
	p, err := s.resolvePrompt(ctx, op, params)
	if err != nil {
		return nil, err
	}

	minLen := MinQuestionAnswer
	if params.Type == domain.SessionTypeCase {
		minLen = MinCaseAnswer
	}
	answer := strings.TrimSpace(params.Answer)
	if utf8.RuneCountInString(answer) < minLen {
		return nil, domain.NewValidationError(op, "answer", "Answer must be at least "+strconv.Itoa(minLen)+" characters")
	}

	kind := params.Type.QuotaType()
	if params.Manager {
		kind = domain.QuotaTypeManagerSessions
	}
	if err := s.engine.Require(ctx, op, kind); err != nil {
		return nil, err
	}

	fb := s.score(ctx, p, answer)
	rec := s.history.Add(ctx, domain.SessionRecord{
		Title:    p.title,
		Score:    fb.Score,
		Type:     params.Type,
		Question: p.text,
		Answer:   answer,
		Feedback: fb,
	})
	return &rec, nil
}

func (s *practiceService) resolvePrompt(ctx context.Context, op string, params SubmitParams) (prompt, error) {
	profile, _ := s.Profile(ctx)

	switch params.Type {
	case domain.SessionTypeQuestion:
		q := params.Question
		if q == nil {
			bank, ok := s.Bank(ctx)
			if !ok || len(bank.Questions) == 0 {
				return prompt{}, domain.Errorf(domain.ENOTFOUND, op, "No question bank yet. Generate one first.")
			}
			if params.Index < 0 || params.Index >= len(bank.Questions) {
				return prompt{}, domain.Invalid(op, "Question "+strconv.Itoa(params.Index+1)+" does not exist")
			}
			q = &bank.Questions[params.Index]
		}
		role := ""
		if profile != nil {
			role = profile.TargetRole
		}
		title := truncateRunes(q.Text, titleLength)
		if title == "" {
			title = "Practice"
		}
		return prompt{question: *q, context: role, title: title, text: q.Text}, nil

	case domain.SessionTypeCase:
		c := params.Case
		if c == nil {
			bank, ok := s.Bank(ctx)
			if !ok || len(bank.Cases) == 0 {
				return prompt{}, domain.Errorf(domain.ENOTFOUND, op, "No case studies yet. Generate a bank first.")
			}
			if params.Index < 0 || params.Index >= len(bank.Cases) {
				return prompt{}, domain.Invalid(op, "Case "+strconv.Itoa(params.Index+1)+" does not exist")
			}
			c = &bank.Cases[params.Index]
		}
		title := c.Title
		if title == "" {
			title = "Case Study"
		}
		return prompt{question: c.AsQuestion(), context: "Case study: " + c.Scenario, title: title, text: c.Task}, nil
	}
	return prompt{}, domain.Invalid(op, "Unknown session type "+string(params.Type))
}

// score grades remotely on every tier and falls back to the local
// heuristic on any gateway failure.
func (s *practiceService) score(ctx context.Context, p prompt, answer string) domain.Feedback {
	fb, err := s.provider.ScoreAnswer(ctx, ai.ScoreParams{Question: p.question, Answer: answer, Context: p.context})
	if err != nil {
		reason := string(ai.KindOf(err))
		if reason == "" {
			reason = "error"
		}
		metrics.ScoringFellBack(reason)
		s.logger.Warn("remote scoring failed, using heuristic", "kind", reason, "error", err)
		return scoring.Heuristic(answer, p.question.Keys)
	}
	return *fb
}

// =============================================================================
// Generation
// =============================================================================

func (s *practiceService) GenerateBank(ctx context.Context, req BankRequest) (*domain.QuestionBank, error) {
	const op = "practice.generate_bank"

	cv := req.CV
	if cv == nil {
		var stored domain.CVData
		if s.store.Load(ctx, kvstore.KeyCVData, &stored) {
			cv = &stored
		}
	}
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.TargetRole = strings.TrimSpace(req.TargetRole)
	req.TargetCompany = strings.TrimSpace(req.TargetCompany)
	if cv == nil && req.JobDescription == "" && req.TargetRole == "" {
		return nil, domain.NewValidationError(op, "input", "Need CV data, job description, or target role")
	}

	tier := s.engine.Tier()
	params := ai.BankParams{
		JobDescription:      req.JobDescription,
		TargetRole:          req.TargetRole,
		TargetCompany:       req.TargetCompany,
		QuestionCount:       bankSize(tier.QuestionsPerMonth, unlimitedBankQuestions, maxBankQuestions),
		CaseCount:           bankSize(tier.CasesPerMonth, unlimitedBankCases, maxBankCases),
		IncludeManagerLevel: tier.ManagerAccess,
	}
	if tier.AIPersonalised {
		params.CV = cv
	}

	bank, err := retry.Value(ctx, s.logger, op, s.policy, func(ctx context.Context) (*domain.QuestionBank, error) {
		return s.provider.GenerateBank(ctx, params)
	})
	if err != nil {
		s.logger.Error("question bank generation failed", "kind", ai.KindOf(err), "error", err)
		return nil, domain.Unavailable(err, op, "Failed to generate. Try again.")
	}

	profile := domain.ProfileFrom(cv, req.TargetRole, req.TargetCompany)
	if profile.CurrentRole == "" {
		profile.CurrentRole = defaultCurrentRole
	}
	if profile.TargetRole == "" {
		profile.TargetRole = defaultTargetRole
	}
	if profile.Industry == "" {
		profile.Industry = defaultIndustry
	}

	s.store.Save(ctx, kvstore.KeyQuestionBank, bank)
	s.store.Save(ctx, kvstore.KeyProfile, profile)
	if req.JobDescription != "" {
		s.store.Save(ctx, kvstore.KeyJobDescription, req.JobDescription)
	}
	if req.TargetCompany != "" {
		s.store.Save(ctx, kvstore.KeyTargetCompany, req.TargetCompany)
	}
	s.store.Save(ctx, kvstore.KeyOnboarded, true)

	metrics.BanksGeneratedTotal.WithLabelValues(string(tier.ID)).Inc()
	s.logger.Info("question bank stored", "questions", len(bank.Questions), "cases", len(bank.Cases), "tier", tier.ID)
	return bank, nil
}

// bankSize is the fixed size for unlimited allowances, else the allowance
// capped at ceiling.
func bankSize(limit domain.Limit, unlimited, ceiling int) int {
	if limit.IsUnlimited() {
		return unlimited
	}
	return min(int(limit), ceiling)
}

func (s *practiceService) ParseCV(ctx context.Context, text string) (*domain.CVData, error) {
	const op = "practice.parse_cv"

	text = strings.TrimSpace(text)
	if len(text) < ai.MinCVLength {
		return nil, domain.NewValidationError(op, "cvText", "CV text too short or missing")
	}

	cv, err := retry.Value(ctx, s.logger, op, s.policy, func(ctx context.Context) (*domain.CVData, error) {
		return s.provider.ExtractCV(ctx, ai.CVParams{Text: text})
	})
	if err != nil {
		s.logger.Error("cv extraction failed", "kind", ai.KindOf(err), "error", err)
		return nil, domain.Unavailable(err, op, "Could not parse CV. Check and retry.")
	}

	s.store.Save(ctx, kvstore.KeyCVData, cv)
	return cv, nil
}

func (s *practiceService) GenerateProblem(ctx context.Context, req ProblemRequest) (*domain.Problem, error) {
	const op = "practice.generate_problem"

	if !s.engine.HasAIFeedback() {
		return nil, domain.Forbidden(op, "Custom problems need a Standard or Pro plan.")
	}
	if req.Type == "" {
		req.Type = domain.SessionTypeQuestion
	}

	profile, ok := s.Profile(ctx)
	if !ok {
		profile = &domain.Profile{}
	}
	company := req.CompanyName
	if company == "" {
		company = profile.TargetCompany
	}

	problem, err := retry.Value(ctx, s.logger, op, s.policy, func(ctx context.Context) (*domain.Problem, error) {
		return s.provider.GenerateProblem(ctx, ai.ProblemParams{
			Type:          req.Type,
			Profile:       *profile,
			CompanyName:   company,
			CompanyStyle:  req.CompanyStyle,
			CompanySector: req.CompanySector,
			LevelName:     req.LevelName,
		})
	})
	if err != nil {
		return nil, domain.Unavailable(err, op, "Could not generate a problem. Try again.")
	}
	return problem, nil
}

// =============================================================================
// Account
// =============================================================================

func (s *practiceService) SyncSubscription(ctx context.Context) (*domain.SubscriptionStatus, error) {
	const op = "practice.sync_subscription"

	if s.billing == nil {
		return nil, domain.Errorf(domain.ENOTIMPL, op, "billing is not configured")
	}
	user, ok := s.User(ctx)
	if !ok || !user.HasEmail() {
		return nil, domain.Invalid(op, "Sign in with an email address first.")
	}

	status, err := s.billing.VerifySubscription(ctx, user.Email)
	if err != nil {
		s.logger.Warn("subscription verification failed, keeping cached tier",
			"tier", s.engine.Tier().ID,
			"error", err,
		)
		return nil, domain.Unavailable(err, op, "Could not verify subscription.")
	}

	if status.Tier != s.engine.Tier().ID {
		s.logger.Info("subscription tier changed", "from", s.engine.Tier().ID, "to", status.Tier, "status", status.Status)
		s.engine.SetTier(ctx, status.Tier)
	}
	return status, nil
}

func (s *practiceService) SignIn(ctx context.Context, email, name string) domain.User {
	user := domain.NewUser(email, name, s.now())
	if existing, ok := s.User(ctx); ok && existing.Email == user.Email {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	}
	s.store.Save(ctx, kvstore.KeyUser, user)
	if user.HasEmail() {
		s.trySync(ctx, "sign_in")
	}
	return user
}

// trySync refreshes the tier from billing when it is configured. Errors are
// logged; the cached tier stays in force.
func (s *practiceService) trySync(ctx context.Context, trigger string) {
	if s.billing == nil {
		return
	}
	if _, err := s.SyncSubscription(ctx); err != nil {
		s.logger.Warn("subscription refresh skipped", "trigger", trigger, "error", err)
	}
}

func (s *practiceService) User(ctx context.Context) (*domain.User, bool) {
	var u domain.User
	if !s.store.Load(ctx, kvstore.KeyUser, &u) {
		return nil, false
	}
	return &u, true
}

func (s *practiceService) Logout(ctx context.Context) {
	s.history.Clear(ctx)
	s.engine.Reset(ctx)
	s.store.Delete(ctx, kvstore.SessionKeys()...)
	s.logger.Info("logged out")
}

// =============================================================================
// Read models
// =============================================================================

func (s *practiceService) Status() entitlement.Status {
	return s.engine.Snapshot()
}

func (s *practiceService) Bank(ctx context.Context) (*domain.QuestionBank, bool) {
	var bank domain.QuestionBank
	if !s.store.Load(ctx, kvstore.KeyQuestionBank, &bank) {
		return nil, false
	}
	return &bank, true
}

func (s *practiceService) Profile(ctx context.Context) (*domain.Profile, bool) {
	var p domain.Profile
	if !s.store.Load(ctx, kvstore.KeyProfile, &p) {
		return nil, false
	}
	return &p, true
}

func (s *practiceService) History() []domain.SessionRecord { return s.history.Entries() }
func (s *practiceService) Readiness() int                  { return s.history.Readiness() }
func (s *practiceService) Streak() int                     { return s.history.Streak() }
func (s *practiceService) WeakAreas() []domain.WeakArea    { return s.history.WeakAreas() }

func (s *practiceService) ExportReport(ctx context.Context, format report.Format, w io.Writer) error {
	const op = "practice.export_report"

	gen, err := report.NewGenerator(format)
	if err != nil {
		return domain.Invalid(op, "Reports can be exported as html or pdf.")
	}

	profile, _ := s.Profile(ctx)
	if _, err := gen.Generate(ctx, s.history.Report(profile), w); err != nil {
		return domain.Internal(err, op, "failed to render report")
	}
	return nil
}

// =============================================================================
// Preferences
// =============================================================================

func (s *practiceService) Preferences(ctx context.Context) domain.Preferences {
	var p domain.Preferences
	var date time.Time
	if s.store.Load(ctx, kvstore.KeyInterviewDate, &date) {
		p.InterviewDate = &date
	}
	s.store.Load(ctx, kvstore.KeyTargetCompany, &p.TargetCompany)
	s.store.Load(ctx, kvstore.KeyDarkMode, &p.DarkMode)
	return p
}

func (s *practiceService) SetInterviewDate(ctx context.Context, date *time.Time) {
	if date == nil {
		s.store.Delete(ctx, kvstore.KeyInterviewDate)
		return
	}
	s.store.Save(ctx, kvstore.KeyInterviewDate, date.UTC())
}

func (s *practiceService) SetTargetCompany(ctx context.Context, company string) {
	s.store.Save(ctx, kvstore.KeyTargetCompany, strings.TrimSpace(company))
}

func (s *practiceService) SetDarkMode(ctx context.Context, on bool) {
	s.store.Save(ctx, kvstore.KeyDarkMode, on)
}

func (s *practiceService) RunRollover(ctx context.Context, interval time.Duration) {
	s.engine.Run(ctx, interval)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
