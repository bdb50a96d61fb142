package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/domain"
)

// ErrorBody is the JSON shape of every error response. Error is the
// human-readable message the practice client shows as-is.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse maps err to a status code, logs it and writes the JSON body.
// Internal details and operation names never reach the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		validationError(w, r, logger, ve)
		return
	}

	err = normalize(err)
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, status)
	writeJSON(w, status, ErrorBody{Error: domain.ErrorMessage(err), Code: code})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	case domain.EUNAVAILABLE:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// normalize turns collaborator errors that are not domain errors into ones
// with a meaningful code.
func normalize(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	var ge *ai.GatewayError
	if errors.As(err, &ge) {
		return domain.Unavailable(err, ge.Op, "The AI service did not return a usable response. Try again.")
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return domain.Errorf(domain.ETOOLARGE, "", "Request body too large")
	}

	if errors.Is(err, billing.ErrNotConfigured) {
		return domain.Errorf(domain.ENOTIMPL, "", "Billing is not configured")
	}
	return err
}

func validationError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ve *domain.ValidationError) {
	logger.Info("validation error",
		"op", ve.Op,
		"fields", len(ve.Fields),
		"path", r.URL.Path,
	)

	writeJSON(w, http.StatusBadRequest, ErrorBody{Error: ve.Message(), Code: domain.EINVALID, Fields: ve.Fields})
}

func logError(logger *slog.Logger, r *http.Request, err error, code string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"status", status,
	}
	if kind := ai.KindOf(err); kind != "" {
		attrs = append(attrs, "kind", kind)
	}

	if status >= 500 {
		logger.Error("server error", attrs...)
	} else {
		logger.Info("client error", attrs...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
