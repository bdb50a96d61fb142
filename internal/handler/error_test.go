package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest(http.MethodPost, "/api/x", nil), discardLogger(), err)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "quota",
			err:     domain.QuotaExceeded("practice.submit_answer", domain.QuotaTypeQuestions, 3, 3),
			status:  http.StatusPaymentRequired,
			code:    domain.EPAYMENT,
			message: "Monthly question limit reached (3 of 3). Upgrade to continue.",
		},
		{
			name:    "unavailable",
			err:     domain.Unavailable(errors.New("x"), "api.generate_bank", "Failed to generate. Try again."),
			status:  http.StatusBadGateway,
			code:    domain.EUNAVAILABLE,
			message: "Failed to generate. Try again.",
		},
		{
			name:   "bare gateway error",
			err:    &ai.GatewayError{Kind: ai.KindNoJSONFound, Op: "ai.score"},
			status: http.StatusBadGateway,
			code:   domain.EUNAVAILABLE,
		},
		{
			name:   "billing not configured",
			err:    fmt.Errorf("verify: %w", billing.ErrNotConfigured),
			status: http.StatusNotImplemented,
			code:   domain.ENOTIMPL,
		},
		{
			name:    "internal hides details",
			err:     errors.New("pq: connection refused"),
			status:  http.StatusInternalServerError,
			code:    domain.EINTERNAL,
			message: "An internal error occurred. Please try again later.",
		},
		{
			name:    "invalid",
			err:     domain.Invalid("api.verify_subscription", "Missing userEmail"),
			status:  http.StatusBadRequest,
			code:    domain.EINVALID,
			message: "Missing userEmail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := respond(t, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, body.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error)
			}
			assert.NotContains(t, rec.Body.String(), "api.")
			assert.NotContains(t, rec.Body.String(), "practice.")
		})
	}
}

func TestErrorResponse_Validation(t *testing.T) {
	ve := domain.NewValidationError("api.parse_cv", "cvText", "CV text too short or missing")

	rec, body := respond(t, ve)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CV text too short or missing", body.Error)
	assert.Equal(t, map[string]string{"cvText": "CV text too short or missing"}, body.Fields)
	assert.NotContains(t, rec.Body.String(), "api.parse_cv")
}

func TestErrorResponse_ValidationPicksFirstFieldByName(t *testing.T) {
	ve := domain.NewValidationError("op", "zeta", "last")
	domain.AddFieldError(ve, "alpha", "first")

	_, body := respond(t, ve)
	assert.Equal(t, "first", body.Error)
	assert.Len(t, body.Fields, 2)
}

func TestErrorCodeToHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCodeToHTTPStatus("mystery"))
	assert.Equal(t, http.StatusTooManyRequests, ErrorCodeToHTTPStatus(domain.ERATELIMIT))
}
