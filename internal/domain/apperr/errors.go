// Package apperr defines the error taxonomy shared by services and transport.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested record does not exist. Callers render it as an empty state.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backend could not answer. The action is abandoned and may be retried by the user.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotAuthorized means the caller lacks the admin capability.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrConstraint means storage rejected a write that violates a uniqueness rule.
	ErrConstraint = errors.New("constraint violation")
)

// ValidationError reports a missing or malformed input field. It is raised before
// any storage call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AsValidation extracts the ValidationError wrapped by err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Unavailable wraps a storage failure as ErrUnavailable while keeping the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, errors.Join(ErrUnavailable, err))
}
