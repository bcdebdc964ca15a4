// Package apperr provides standardized error handling for the world
// generation pipeline, keeping the AppError shape and Wrap/New helpers
// from the teacher's internal/errors package but narrowed to the three
// error conditions a generation worker can actually raise: bad caller
// input, a command issued with no retained state to act on, and an
// internal invariant violation the pipeline cannot recover from.
package apperr

import (
	stdErrors "errors"
	"fmt"
)

// AppError is an application-level error carrying a machine-readable
// code alongside a human-readable message.
type AppError struct {
	Code    string // Machine-readable code, e.g. "INVALID_INPUT"
	Message string // Human-readable message
	Err     error  // Underlying error, if any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Error taxonomy templates.
var (
	ErrInvalidInput       = &AppError{Code: "INVALID_INPUT", Message: "invalid input"}
	ErrNoRetainedState    = &AppError{Code: "NO_RETAINED_STATE", Message: "no retained state for this session"}
	ErrInternalInvariant  = &AppError{Code: "INTERNAL_INVARIANT", Message: "internal invariant violated"}
)

// Wrap creates a new error from base, attaching a custom message and
// the underlying error.
func Wrap(base *AppError, message string, err error) *AppError {
	return &AppError{Code: base.Code, Message: message, Err: err}
}

// New creates an AppError with an arbitrary code and message.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewInvalidInput returns an InvalidInput error with a formatted message.
func NewInvalidInput(format string, args ...any) error {
	return &AppError{Code: ErrInvalidInput.Code, Message: fmt.Sprintf(format, args...)}
}

// NewNoRetainedState returns a NoRetainedState error with a formatted message.
func NewNoRetainedState(format string, args ...any) error {
	return &AppError{Code: ErrNoRetainedState.Code, Message: fmt.Sprintf(format, args...)}
}

// NewInternalInvariant returns an InternalInvariant error with a
// formatted message, optionally wrapping an underlying cause.
func NewInternalInvariant(err error, format string, args ...any) error {
	return &AppError{Code: ErrInternalInvariant.Code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Code returns the taxonomy code of err if it is, or wraps, an
// *AppError, and "" otherwise.
func Code(err error) string {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
