package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

const (
	// APIBaseURL is the base URL for the Anthropic API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default Claude model to use
	DefaultModel = "claude-3-5-haiku-20241022"

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 1 << 20
)

// Token budgets per task.
const (
	scoreMaxTokens   = 800
	bankMaxTokens    = 3000
	cvMaxTokens      = 4000
	problemMaxTokens = 1000
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // overrides APIBaseURL, used by tests
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Provider using Anthropic's Messages API.
// It makes exactly one request per call; retries belong to the caller.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Anthropic AI provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// ScoreAnswer grades an answer against the question's key concepts.
func (p *Provider) ScoreAnswer(ctx context.Context, params ai.ScoreParams) (*domain.Feedback, error) {
	return invoke(ctx, p, ai.TaskScore, "", buildScorePrompt(params), scoreMaxTokens, ai.DecodeFeedback)
}

// GenerateBank generates a question bank.
func (p *Provider) GenerateBank(ctx context.Context, params ai.BankParams) (*domain.QuestionBank, error) {
	p.logger.Info("generating question bank",
		"has_cv", params.CV != nil,
		"has_jd", params.JobDescription != "",
		"role", params.TargetRole,
		"company", params.TargetCompany,
	)
	bank, err := invoke(ctx, p, ai.TaskBank, "", buildBankPrompt(params), bankMaxTokens, ai.DecodeBank)
	if err != nil {
		return nil, err
	}
	p.logger.Info("question bank generated", "questions", len(bank.Questions), "cases", len(bank.Cases))
	return bank, nil
}

// ExtractCV structures free CV text.
func (p *Provider) ExtractCV(ctx context.Context, params ai.CVParams) (*domain.CVData, error) {
	return invoke(ctx, p, ai.TaskCV, cvSystemPrompt, buildCVMessage(params), cvMaxTokens, ai.DecodeCV)
}

// GenerateProblem generates a single tailored question or case study.
func (p *Provider) GenerateProblem(ctx context.Context, params ai.ProblemParams) (*domain.Problem, error) {
	return invoke(ctx, p, ai.TaskProblem, "", buildProblemPrompt(params), problemMaxTokens, ai.DecodeProblem)
}

// invoke runs one completion, extracts its JSON object and decodes it.
func invoke[T any](
	ctx context.Context,
	p *Provider,
	task ai.Task,
	system, prompt string,
	maxTokens int,
	decode func(op string, obj json.RawMessage) (T, error),
) (T, error) {
	var zero T
	op := "ai." + string(task)
	start := time.Now()

	text, usage, err := p.complete(ctx, system, prompt, maxTokens)
	if err == nil {
		var obj json.RawMessage
		obj, err = ai.ExtractJSON(text)
		if err == nil {
			var out T
			out, err = decode(op, obj)
			if err == nil {
				usage.Duration = time.Since(start)
				metrics.AICallSucceeded(string(task), usage.Duration, usage.InputTokens, usage.OutputTokens)
				p.logger.Debug("ai call succeeded",
					"op", op,
					"input_tokens", usage.InputTokens,
					"output_tokens", usage.OutputTokens,
					"duration_ms", usage.Duration.Milliseconds(),
				)
				return out, nil
			}
		}
	}

	var ge *ai.GatewayError
	if !errors.As(err, &ge) {
		ge = &ai.GatewayError{Kind: ai.KindTransport, Err: err}
	}
	ge.Op = op
	metrics.AICallFailed(string(task), string(ge.Kind), time.Since(start))
	p.logger.Warn("ai call failed",
		"op", op,
		"kind", ge.Kind,
		"status", ge.StatusCode,
		"error", ge.Err,
		"raw", ge.RawSnippet(),
	)
	return zero, ge
}

// complete sends one Messages request and returns content.0.text.
func (p *Provider) complete(ctx context.Context, system, prompt string, maxTokens int) (string, ai.UsageInfo, error) {
	usage := ai.UsageInfo{Model: p.config.Model}

	reqBody := apiRequest{
		Model:     p.config.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []apiMessage{
			{
				Role:    "user",
				Content: []apiContent{{Type: "text", Text: prompt}},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", usage, &ai.GatewayError{Kind: ai.KindTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", usage, &ai.GatewayError{Kind: ai.KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		cause := ai.EAIUnavailable
		if ctx.Err() != nil {
			cause = ctx.Err()
		} else if isTimeout(err) {
			cause = ai.EAITimeout
		}
		return "", usage, &ai.GatewayError{Kind: ai.KindTransport, Err: fmt.Errorf("%w: %v", cause, err)}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", usage, &ai.GatewayError{Kind: ai.KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", usage, &ai.GatewayError{
			Kind:       ai.KindTransport,
			StatusCode: resp.StatusCode,
			Raw:        string(respBytes),
			Err:        mapHTTPError(resp.StatusCode, respBytes),
		}
	}

	usage.InputTokens = int(gjson.GetBytes(respBytes, "usage.input_tokens").Int())
	usage.OutputTokens = int(gjson.GetBytes(respBytes, "usage.output_tokens").Int())
	return gjson.GetBytes(respBytes, "content.0.text").String(), usage, nil
}

// mapHTTPError maps HTTP status codes to the underlying cause.
func mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.EAITimeout
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ai.EAIBadRequest, errResp.Error.Message)
	case http.StatusServiceUnavailable, http.StatusBadGateway, 529:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// API request/response types

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiErrorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

var _ ai.Provider = (*Provider)(nil)
