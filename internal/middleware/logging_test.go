package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogging_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"x"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate-bank", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "method=POST", "path=/api/generate-bank", "status=502", "bytes=13", "ip=203.0.113.195", "duration_ms="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("echoed request id = %q", got)
	}
	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Errorf("log missing request id: %s", buf.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("generated request id should be a uuid, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestLogging_SkipsHealthChecks(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/health", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if buf.Len() != 0 {
		t.Errorf("health checks should not be logged: %s", buf.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthcheck-typo", nil))
	if buf.Len() == 0 {
		t.Error("paths that only share a prefix should be logged")
	}
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no query", "", "/p"},
		{"plain", "tier=pro", "/p?tier=pro"},
		{"email", "userEmail=jo@example.com&tier=pro", "/p?userEmail=[REDACTED]&tier=pro"},
		{"case insensitive", "API_KEY=abc", "/p?API_KEY=[REDACTED]"},
		{"drops bare flags", "debug&session_id=cs_1", "/p?session_id=[REDACTED]"},
		{"only bare flags", "debug", "/p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactQuery("/p", tt.query); got != tt.want {
				t.Errorf("redactQuery = %q, want %q", got, tt.want)
			}
		})
	}
}
