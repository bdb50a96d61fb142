// Package ai defines the gateway to the remote text-generation service.
//
// A Provider turns a structured request into one completion call and turns
// the completion text back into a domain value. Every failure is reported as
// a *GatewayError whose Kind tells callers whether the transport failed, the
// completion held no JSON, the JSON was malformed, or it had the wrong shape.
package ai

import (
	"context"
	"time"

	"github.com/DukeRupert/readyhire/internal/domain"
)

// Provider is implemented by the Anthropic client and the mock.
type Provider interface {
	// ScoreAnswer grades one answer against the question's key concepts.
	ScoreAnswer(ctx context.Context, params ScoreParams) (*domain.Feedback, error)

	// GenerateBank produces a question bank from a CV, a job description
	// and/or a target role.
	GenerateBank(ctx context.Context, params BankParams) (*domain.QuestionBank, error)

	// ExtractCV structures free CV text.
	ExtractCV(ctx context.Context, params CVParams) (*domain.CVData, error)

	// GenerateProblem produces one custom question or case study.
	GenerateProblem(ctx context.Context, params ProblemParams) (*domain.Problem, error)
}

// Task names a gateway call type. Used for metrics and logs.
type Task string

const (
	TaskScore   Task = "score"
	TaskBank    Task = "bank"
	TaskCV      Task = "cv"
	TaskProblem Task = "problem"
)

// ScoreParams contains parameters for grading an answer.
type ScoreParams struct {
	Question domain.Question
	Answer   string
	Context  string // e.g. "Finance interview" or the target role
}

// BankParams contains parameters for question bank generation.
// At least one of CV, JobDescription or TargetRole must be set.
type BankParams struct {
	CV                  *domain.CVData
	JobDescription      string
	TargetRole          string
	TargetCompany       string
	QuestionCount       int
	CaseCount           int
	IncludeManagerLevel bool
}

// HasInput reports whether there is anything to generate from.
func (p BankParams) HasInput() bool {
	return p.CV != nil || p.JobDescription != "" || p.TargetRole != ""
}

// CVParams contains the raw CV text to extract.
type CVParams struct {
	Text string
}

// MinCVLength is the shortest CV text worth sending for extraction.
const MinCVLength = 50

// ProblemParams contains parameters for a single custom problem.
type ProblemParams struct {
	Type          domain.SessionType
	Profile       domain.Profile
	CompanyName   string
	CompanyStyle  string
	CompanySector string
	LevelName     string
}

// UsageInfo tracks token usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// ProviderConfig contains common configuration for AI providers.
type ProviderConfig struct {
	RequestTimeout time.Duration // Timeout for individual requests
}
