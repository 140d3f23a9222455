// Package apperr defines the error kinds raised by the service layer and
// their mapping to HTTP status codes at the single response boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the boundary handler.
type Kind int

const (
	// KindInternal is a store failure or corrupt stored data.
	KindInternal Kind = iota
	// KindValidation is malformed, user-correctable input.
	KindValidation
	// KindAuthentication is a missing, invalid or expired credential.
	KindAuthentication
	// KindNotFound is a resource that is absent or not owned by the caller.
	KindNotFound
	// KindConflict is a duplicate user on signup.
	KindConflict
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error is a domain error with a client-facing message.
type Error struct {
	// Kind selects the status code.
	Kind Kind
	// Message is safe to show to the client.
	Message string
	// Err is the underlying cause, if any. Never shown to clients in production.
	Err error
	// Fields lists failed validation rules for KindValidation.
	Fields []FieldError
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Unauthenticated returns a KindAuthentication error.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps err as a KindInternal error.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
