package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Error codes. Every code maps to one HTTP status and one CLI exit message.
const (
	EINVALID     = "invalid"     // Bad input
	EFORBIDDEN   = "forbidden"   // Feature not included in the current plan
	ENOTFOUND    = "not_found"   // Nothing to act on (no bank, unknown index)
	ETOOLARGE    = "too_large"   // Request body over the limit
	ERATELIMIT   = "rate_limit"  // Too many requests from one client
	EPAYMENT     = "payment"     // Monthly allowance used up
	EUNAVAILABLE = "unavailable" // AI gateway kept failing
	ENOTIMPL     = "not_impl"    // Optional collaborator not configured
	EINTERNAL    = "internal"
)

// genericMessage is shown for anything without a safe message of its own.
const genericMessage = "An internal error occurred. Please try again later."

// Error is an application error: a code for callers to branch on, the
// operation that raised it, and a message that is safe to show the user.
type Error struct {
	Code    string
	Op      string // e.g. "practice.submit_answer"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode reports the code of the first Error in err's chain.
// Validation errors report EINVALID; anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the user-facing message for err. Internal errors
// never leak their detail.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return genericMessage
}

// =============================================================================
// Constructors
// =============================================================================

func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Forbidden is returned when the plan does not include a feature at all,
// as opposed to EPAYMENT where the allowance is merely used up.
func Forbidden(op, message string) *Error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// Unavailable wraps the last upstream failure once retries are spent.
func Unavailable(err error, op, message string) *Error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

// =============================================================================
// Quota
// =============================================================================

// QuotaError carries the allowance that blocked an action.
type QuotaError struct {
	Kind  QuotaType
	Used  int64
	Limit Limit
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exhausted: %d of %s used", e.Kind, e.Used, e.Limit)
}

// QuotaExceeded creates a payment-required error for an exhausted allowance.
func QuotaExceeded(op string, kind QuotaType, used int64, limit Limit) *Error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: fmt.Sprintf("Monthly %s limit reached (%d of %s). Upgrade to continue.", kind.Label(), used, limit),
		Err:     &QuotaError{Kind: kind, Used: used, Limit: limit},
	}
}

// =============================================================================
// Validation
// =============================================================================

// ValidationError collects per-field messages for rejected input.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Op + ": validation failed"
}

// Message is the message for the first field in name order, so a client
// that shows a single line always shows the same one.
func (e *ValidationError) Message() string {
	if len(e.Fields) == 0 {
		return "Validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return e.Fields[names[0]]
}

func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds a field to err if it is a ValidationError, otherwise
// starts a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
