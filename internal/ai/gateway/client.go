// Package gateway is the practice client's side of the ReadyHire HTTP
// gateway. Client implements ai.Provider and billing.Verifier by calling the
// /api routes served by cmd/server, so the device never holds an Anthropic
// or Stripe key.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// Config configures the gateway client.
type Config struct {
	// BaseURL is the gateway root, e.g. https://readyhire.example.com.
	BaseURL        string
	ProviderConfig ai.ProviderConfig
}

// Client calls the gateway over HTTP. Like the other providers it makes one
// request per call; retries belong to the caller.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a gateway client.
func New(config Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(config.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway URL is required")
	}
	timeout := config.ProviderConfig.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type scoreRequest struct {
	Question domain.Question `json:"question"`
	Answer   string          `json:"answer"`
	Context  string          `json:"context"`
}

// ScoreAnswer posts to /api/ai-feedback.
func (c *Client) ScoreAnswer(ctx context.Context, params ai.ScoreParams) (*domain.Feedback, error) {
	return call[domain.Feedback](ctx, c, ai.TaskScore, "/api/ai-feedback", scoreRequest{
		Question: params.Question,
		Answer:   params.Answer,
		Context:  params.Context,
	}, "score")
}

type bankRequest struct {
	CV                  *domain.CVData `json:"cvData,omitempty"`
	JobDescription      string         `json:"jobDescription,omitempty"`
	TargetRole          string         `json:"targetRole,omitempty"`
	TargetCompany       string         `json:"targetCompany,omitempty"`
	QuestionCount       int            `json:"questionCount,omitempty"`
	CaseCount           int            `json:"caseCount,omitempty"`
	IncludeManagerLevel bool           `json:"includeManagerLevel"`
}

// GenerateBank posts to /api/generate-bank.
func (c *Client) GenerateBank(ctx context.Context, params ai.BankParams) (*domain.QuestionBank, error) {
	return call[domain.QuestionBank](ctx, c, ai.TaskBank, "/api/generate-bank", bankRequest{
		CV:                  params.CV,
		JobDescription:      params.JobDescription,
		TargetRole:          params.TargetRole,
		TargetCompany:       params.TargetCompany,
		QuestionCount:       params.QuestionCount,
		CaseCount:           params.CaseCount,
		IncludeManagerLevel: params.IncludeManagerLevel,
	}, "questions")
}

// ExtractCV posts to /api/cv-parse.
func (c *Client) ExtractCV(ctx context.Context, params ai.CVParams) (*domain.CVData, error) {
	return call[domain.CVData](ctx, c, ai.TaskCV, "/api/cv-parse", map[string]string{"cvText": params.Text}, "candidate_profile")
}

type problemRequest struct {
	Type          domain.SessionType `json:"type"`
	Profile       domain.Profile     `json:"profile"`
	CompanyName   string             `json:"companyName,omitempty"`
	CompanyStyle  string             `json:"companyStyle,omitempty"`
	CompanySector string             `json:"companySector,omitempty"`
	LevelName     string             `json:"levelName,omitempty"`
}

// GenerateProblem posts to /api/ai-generate.
func (c *Client) GenerateProblem(ctx context.Context, params ai.ProblemParams) (*domain.Problem, error) {
	return call[domain.Problem](ctx, c, ai.TaskProblem, "/api/ai-generate", problemRequest{
		Type:          params.Type,
		Profile:       params.Profile,
		CompanyName:   params.CompanyName,
		CompanyStyle:  params.CompanyStyle,
		CompanySector: params.CompanySector,
		LevelName:     params.LevelName,
	}, "")
}

// VerifySubscription posts to /api/verify-subscription. A gateway without
// Stripe answers 501, reported as billing.ErrNotConfigured.
func (c *Client) VerifySubscription(ctx context.Context, email string) (*domain.SubscriptionStatus, error) {
	const op = "billing.verify_subscription"

	body, err := c.post(ctx, op, "/api/verify-subscription", map[string]string{"userEmail": email})
	if err != nil {
		var ge *ai.GatewayError
		if errors.As(err, &ge) && ge.StatusCode == http.StatusNotImplemented {
			return nil, fmt.Errorf("%s: %w", op, billing.ErrNotConfigured)
		}
		return nil, err
	}

	var status domain.SubscriptionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &ai.GatewayError{Kind: ai.KindMalformedJSON, Op: op, Raw: string(body), Err: err}
	}
	if !status.Tier.Valid() {
		return nil, &ai.GatewayError{Kind: ai.KindSchemaMismatch, Op: op, Raw: string(body), Err: fmt.Errorf("unknown tier %q", status.Tier)}
	}
	return &status, nil
}

// call posts req and decodes the response body into T. required names a
// field that must be present for the body to count as a T.
func call[T any](ctx context.Context, c *Client, task ai.Task, path string, req any, required string) (*T, error) {
	op := "ai." + string(task)
	start := time.Now()

	out, err := func() (*T, error) {
		body, err := c.post(ctx, op, path, req)
		if err != nil {
			return nil, err
		}
		if required != "" && !gjson.GetBytes(body, required).Exists() {
			return nil, &ai.GatewayError{Kind: ai.KindSchemaMismatch, Op: op, Raw: string(body), Err: fmt.Errorf("missing %q", required)}
		}
		var out T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, &ai.GatewayError{Kind: ai.KindMalformedJSON, Op: op, Raw: string(body), Err: err}
		}
		return &out, nil
	}()
	if err != nil {
		kind := ai.KindOf(err)
		metrics.AICallFailed(string(task), string(kind), time.Since(start))
		c.logger.Warn("gateway call failed", "op", op, "kind", kind, "error", err)
		return nil, err
	}

	metrics.AICallSucceeded(string(task), time.Since(start), 0, 0)
	c.logger.Debug("gateway call succeeded", "op", op, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// post sends one JSON request. Any non-2xx answer becomes a transport
// GatewayError carrying the status code and the gateway's message.
func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ai.GatewayError{Kind: ai.KindTransport, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &ai.GatewayError{Kind: ai.KindTransport, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		cause := ai.EAIUnavailable
		if ctx.Err() != nil {
			cause = ctx.Err()
		} else if isTimeout(err) {
			cause = ai.EAITimeout
		}
		return nil, &ai.GatewayError{Kind: ai.KindTransport, Op: op, Err: fmt.Errorf("%w: %v", cause, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ai.GatewayError{Kind: ai.KindTransport, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ai.GatewayError{
			Kind:       ai.KindTransport,
			Op:         op,
			StatusCode: resp.StatusCode,
			Raw:        string(body),
			Err:        statusError(resp.StatusCode, body),
		}
	}
	return body, nil
}

// statusError maps a gateway status to the underlying cause, keeping the
// gateway's own message.
func statusError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = http.StatusText(status)
	}

	var cause error
	switch status {
	case http.StatusTooManyRequests:
		cause = ai.EAIRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		cause = ai.EAITimeout
	case http.StatusUnauthorized, http.StatusForbidden:
		cause = ai.EAIUnauthorized
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		cause = ai.EAIBadRequest
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		cause = ai.EAIUnavailable
	default:
		return fmt.Errorf("gateway error (status %d): %s", status, msg)
	}
	return fmt.Errorf("%w: %s", cause, msg)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

var (
	_ ai.Provider      = (*Client)(nil)
	_ billing.Verifier = (*Client)(nil)
)
