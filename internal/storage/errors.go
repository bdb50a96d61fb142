package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned by Put when overwrite is disabled and the key is taken.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey is returned for empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned when the provider rejects the credentials.
	ErrAccessDenied = errors.New("access denied")

	// ErrPreconditionFailed is returned by a conditional Put when the object
	// changed since it was read.
	ErrPreconditionFailed = errors.New("object changed since it was read")
)

// StorageError records the operation and key that failed.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied reports whether err is or wraps ErrAccessDenied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsPreconditionFailed reports whether err is or wraps ErrPreconditionFailed.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}
