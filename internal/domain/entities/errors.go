package entities

import (
	"errors"
	"fmt"
)

var (
	ErrMasteryNotFound  = errors.New("mastery record not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrStudentNotFound  = errors.New("student not found")
)

// ValidationError reports an input that cannot be scheduled.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidationError reports whether err (or anything it wraps) is a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
