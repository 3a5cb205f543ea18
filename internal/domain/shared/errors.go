package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so callers can branch on cause
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConcurrency  ErrorKind = "concurrency"
	KindExternalIO   ErrorKind = "external_io"
	KindInvalidState ErrorKind = "invalid_state"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code, so sentinel values
// work with errors.Is even when the message carries request details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

// Withf returns a copy of the error with a formatted message, keeping code and kind
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return NewKindError(KindValidation, code, message)
}

// NewKindError creates a domain error of the given kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// NewExternalIOError wraps a data-layer failure
func NewExternalIOError(op string, err error) *DomainError {
	return ErrExternalIO.Withf("%s: %v", op, err).WithCause(err)
}

// WrapStoreError passes domain errors through untouched and wraps anything else as external IO
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewExternalIOError(op, err)
}

// KindOf returns the kind of the first DomainError in the chain, or "" if none
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common domain errors
var (
	ErrNotFound            = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewKindError(KindConcurrency, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewKindError(KindInvalidState, "INVALID_STATE", "Operation not allowed in current state")
	ErrExternalIO          = NewKindError(KindExternalIO, "EXTERNAL_IO", "Data store unavailable")
)
