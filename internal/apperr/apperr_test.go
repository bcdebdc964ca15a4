package apperr

import (
	"errors"
	"testing"
)

func TestNewInvalidInput(t *testing.T) {
	err := NewInvalidInput("seed %d out of range", 7)
	if Code(err) != ErrInvalidInput.Code {
		t.Errorf("Code() = %q, want %q", Code(err), ErrInvalidInput.Code)
	}
	if err.Error() != "seed 7 out of range" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapPreservesCode(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(ErrInternalInvariant, "stress propagation failed", cause)
	if wrapped.Code != ErrInternalInvariant.Code {
		t.Errorf("Code = %q, want %q", wrapped.Code, ErrInternalInvariant.Code)
	}
	if !errors.Is(wrapped.Unwrap(), cause) {
		t.Error("Unwrap() did not return the wrapped cause")
	}
}

func TestCodeOnPlainError(t *testing.T) {
	if got := Code(errors.New("plain")); got != "" {
		t.Errorf("Code() on plain error = %q, want empty", got)
	}
}
