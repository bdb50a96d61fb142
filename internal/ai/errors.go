package ai

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	KindTransport      ErrorKind = "transport_error"
	KindNoJSONFound    ErrorKind = "no_json_found"
	KindMalformedJSON  ErrorKind = "malformed_json"
	KindSchemaMismatch ErrorKind = "schema_mismatch"
)

// Underlying transport causes, carried in GatewayError.Err.
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIBadRequest indicates the provider rejected the request
	EAIBadRequest = errors.New("ai provider rejected the request")
)

// GatewayError is the single error type returned by providers.
type GatewayError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int    // HTTP status for transport errors; 0 when unreachable
	Raw        string // completion text, kept for diagnostics
	Err        error
}

func (e *GatewayError) Error() string {
	msg := string(e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// RawSnippet returns the completion text truncated for logging.
func (e *GatewayError) RawSnippet() string {
	return Truncate(e.Raw, 200)
}

// KindOf returns the gateway error kind, or "" when err is not a gateway error.
func KindOf(err error) ErrorKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func transportError(op string, status int, err error) *GatewayError {
	return &GatewayError{Kind: KindTransport, Op: op, StatusCode: status, Err: err}
}

func schemaError(op, raw, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: KindSchemaMismatch, Op: op, Raw: raw, Err: fmt.Errorf(format, args...)}
}

// Truncate shortens s to at most n bytes without splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
