// Package handler contains the HTTP handlers of the ReadyHire gateway.
//
// The gateway is stateless: each request makes one provider call and either
// returns its result or fails. Retries, quotas and local scoring live with
// the practice client.
//
// Routes:
//   - POST /api/ai-feedback          -> Feedback
//   - POST /api/generate-bank        -> GenerateBank
//   - POST /api/cv-parse             -> ParseCV
//   - POST /api/ai-generate          -> GenerateProblem
//   - POST /api/verify-subscription  -> VerifySubscription
//   - POST /api/create-checkout      -> CreateCheckout
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/domain"
)

// Request body limits.
const (
	maxBodyBytes   = 64 << 10
	maxCVBodyBytes = 256 << 10
)

// APIHandler serves the practice client's AI and billing endpoints.
type APIHandler struct {
	provider ai.Provider
	billing  billing.Service
	logger   *slog.Logger
}

// NewAPIHandler creates the API handler. billingService may be nil when
// Stripe is not configured; the billing routes then answer 501.
func NewAPIHandler(provider ai.Provider, billingService billing.Service, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		provider: provider,
		billing:  billingService,
		logger:   logger,
	}
}

// RegisterRoutes registers the API routes. wrap is applied to each route,
// e.g. CORS and rate limiting; OPTIONS routes exist so preflight requests
// reach it.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"/api/ai-feedback":         h.Feedback,
		"/api/generate-bank":       h.GenerateBank,
		"/api/cv-parse":            h.ParseCV,
		"/api/ai-generate":         h.GenerateProblem,
		"/api/verify-subscription": h.VerifySubscription,
		"/api/create-checkout":     h.CreateCheckout,
	}
	for path, fn := range routes {
		mux.Handle("POST "+path, wrap(fn))
		mux.Handle("OPTIONS "+path, wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})))
	}
}

// =============================================================================
// AI endpoints
// =============================================================================

type feedbackRequest struct {
	Question *domain.Question `json:"question"`
	Answer   string           `json:"answer"`
	Context  string           `json:"context"`
}

// Feedback grades one answer.
func (h *APIHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.feedback"

	var req feedbackRequest
	if !h.decode(w, r, op, maxBodyBytes, &req) {
		return
	}
	if req.Question == nil || strings.TrimSpace(req.Question.Text) == "" || strings.TrimSpace(req.Answer) == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Missing question or answer"))
		return
	}

	fb, err := h.provider.ScoreAnswer(r.Context(), ai.ScoreParams{
		Question: *req.Question,
		Answer:   req.Answer,
		Context:  req.Context,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Unavailable(err, op, "Feedback failed"))
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

type bankRequest struct {
	CV                  *domain.CVData `json:"cvData"`
	JobDescription      string         `json:"jobDescription"`
	TargetRole          string         `json:"targetRole"`
	TargetCompany       string         `json:"targetCompany"`
	QuestionCount       int            `json:"questionCount"`
	CaseCount           int            `json:"caseCount"`
	IncludeManagerLevel bool           `json:"includeManagerLevel"`
}

// GenerateBank produces a question bank from a CV, job description or role.
func (h *APIHandler) GenerateBank(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_bank"

	var req bankRequest
	if !h.decode(w, r, op, maxCVBodyBytes, &req) {
		return
	}
	params := ai.BankParams{
		CV:                  req.CV,
		JobDescription:      strings.TrimSpace(req.JobDescription),
		TargetRole:          strings.TrimSpace(req.TargetRole),
		TargetCompany:       strings.TrimSpace(req.TargetCompany),
		QuestionCount:       req.QuestionCount,
		CaseCount:           req.CaseCount,
		IncludeManagerLevel: req.IncludeManagerLevel,
	}
	if !params.HasInput() {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "input", "Need CV data, job description, or target role"))
		return
	}

	bank, err := h.provider.GenerateBank(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Unavailable(err, op, "Failed to generate. Try again."))
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

type cvRequest struct {
	Text string `json:"cvText"`
}

// ParseCV extracts structured data from pasted CV text.
func (h *APIHandler) ParseCV(w http.ResponseWriter, r *http.Request) {
	const op = "api.parse_cv"

	var req cvRequest
	if !h.decode(w, r, op, maxCVBodyBytes, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if len(text) < ai.MinCVLength {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "cvText", "CV text too short or missing"))
		return
	}

	cv, err := h.provider.ExtractCV(r.Context(), ai.CVParams{Text: text})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Unavailable(err, op, "Could not parse CV. Check and retry."))
		return
	}
	writeJSON(w, http.StatusOK, cv)
}

type problemRequest struct {
	Type          domain.SessionType `json:"type"`
	Profile       domain.Profile     `json:"profile"`
	CompanyName   string             `json:"companyName"`
	CompanyStyle  string             `json:"companyStyle"`
	CompanySector string             `json:"companySector"`
	LevelName     string             `json:"levelName"`
}

// GenerateProblem produces a single custom question or case study.
func (h *APIHandler) GenerateProblem(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_problem"

	var req problemRequest
	if !h.decode(w, r, op, maxBodyBytes, &req) {
		return
	}
	switch req.Type {
	case "":
		req.Type = domain.SessionTypeQuestion
	case domain.SessionTypeQuestion, domain.SessionTypeCase:
	default:
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "type", "Type must be question or case"))
		return
	}

	problem, err := h.provider.GenerateProblem(r.Context(), ai.ProblemParams{
		Type:          req.Type,
		Profile:       req.Profile,
		CompanyName:   req.CompanyName,
		CompanyStyle:  req.CompanyStyle,
		CompanySector: req.CompanySector,
		LevelName:     req.LevelName,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Unavailable(err, op, "Could not generate a problem. Try again."))
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

// =============================================================================
// Billing endpoints
// =============================================================================

type verifyRequest struct {
	Email string `json:"userEmail"`
}

// VerifySubscription reports the tier of the customer with the given email.
func (h *APIHandler) VerifySubscription(w http.ResponseWriter, r *http.Request) {
	const op = "api.verify_subscription"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, billing.ErrNotConfigured)
		return
	}
	var req verifyRequest
	if !h.decode(w, r, op, maxBodyBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Missing userEmail"))
		return
	}

	status, err := h.billing.VerifySubscription(r.Context(), req.Email)
	if err != nil {
		ErrorResponse(w, r, h.logger, h.billingError(err, op))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type checkoutRequest struct {
	PriceID    string `json:"priceId"`
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// CreateCheckout starts a Stripe Checkout session for a subscription.
func (h *APIHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_checkout"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, billing.ErrNotConfigured)
		return
	}
	var req checkoutRequest
	if !h.decode(w, r, op, maxBodyBytes, &req) {
		return
	}

	sess, err := h.billing.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		PriceID:    strings.TrimSpace(req.PriceID),
		UserID:     strings.TrimSpace(req.UserID),
		Email:      strings.TrimSpace(req.Email),
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, h.billingError(err, op))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// billingError keeps domain and configuration errors and reports anything
// else from Stripe as an upstream failure.
func (h *APIHandler) billingError(err error, op string) error {
	var de *domain.Error
	if errors.As(err, &de) || errors.Is(err, billing.ErrNotConfigured) {
		return err
	}
	return domain.Unavailable(err, op, "Billing provider request failed")
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a JSON body of at most limit bytes into dst. On failure it
// writes the error response and returns false.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, op string, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			ErrorResponse(w, r, h.logger, err)
		case errors.Is(err, io.EOF):
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body is empty"))
		default:
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body is not valid JSON"))
		}
		return false
	}
	return true
}
