package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestLoggingMiddleware logs each request once it has been served.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
	skip   []string
}

// NewRequestLoggingMiddleware creates a request logger. Health and metrics
// scrapes are not logged.
func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{
		logger: logger,
		skip:   []string{"/health", "/metrics"},
	}
}

// Handler returns middleware that logs method, route, status and timing.
// A request id is taken from the incoming header or generated, and echoed
// back on the response.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"request_id", reqID,
			"method", r.Method,
			"path", redactQuery(r.URL.Path, r.URL.RawQuery),
			"status", wrapped.status,
			"bytes", wrapped.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", clientIP(r),
		}

		switch {
		case wrapped.status >= 500:
			m.logger.Warn("request", attrs...)
		case wrapped.status == http.StatusTooManyRequests:
			m.logger.Info("request throttled", attrs...)
		default:
			m.logger.Info("request", attrs...)
		}
	})
}

func (m *RequestLoggingMiddleware) shouldSkip(path string) bool {
	for _, p := range m.skip {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// sensitiveParams are query parameters whose values never reach the log.
var sensitiveParams = map[string]bool{
	"email":        true,
	"useremail":    true,
	"key":          true,
	"api_key":      true,
	"token":        true,
	"secret":       true,
	"session_id":   true,
	"access_token": true,
}

// redactQuery appends the query to path with sensitive values replaced.
func redactQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		name, _, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		if sensitiveParams[strings.ToLower(name)] {
			part = name + "=[REDACTED]"
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}
