package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes into the taxonomy exposed to callers.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindConflict           Kind = "CONFLICT"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindExternalFailure    Kind = "EXTERNAL_FAILURE"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on code, or on kind when the target is a kind sentinel
// (e.g. ErrAlreadyResponded is ErrPreconditionFailed).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return t.Code == string(t.Kind) && e.Kind == t.Kind
}

// New creates a new Error instance.
func New(kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, base *Error, message string) *Error {
	clone := Clone(base, message)
	clone.Err = err
	return clone
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New(KindNotFound, string(KindNotFound), http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New(KindUnauthorized, string(KindUnauthorized), http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New(KindUnauthorized, "FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New(KindUnauthorized, "ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrPreconditionFailed = New(KindPreconditionFailed, string(KindPreconditionFailed), http.StatusPreconditionFailed, "precondition failed")
	ErrAlreadyResponded   = New(KindPreconditionFailed, "ALREADY_RESPONDED", http.StatusPreconditionFailed, "review invitation already answered")
	ErrAlreadyCompleted   = New(KindPreconditionFailed, "ALREADY_COMPLETED", http.StatusPreconditionFailed, "review already completed")
	ErrConflict           = New(KindConflict, string(KindConflict), http.StatusConflict, "conflict")
	ErrAlreadyPublished   = New(KindConflict, "ALREADY_PUBLISHED", http.StatusConflict, "issue already published")
	ErrIssueLocked        = New(KindConflict, "ISSUE_LOCKED", http.StatusConflict, "issue is published and locked")
	ErrDuplicateDOI       = New(KindConflict, "DUPLICATE_DOI", http.StatusConflict, "doi already assigned to another manuscript")
	ErrValidation         = New(KindValidation, string(KindValidation), http.StatusBadRequest, "validation failed")
	ErrExternalFailure    = New(KindExternalFailure, string(KindExternalFailure), http.StatusBadGateway, "external service failed")
	ErrInternal           = New(KindInternal, string(KindInternal), http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New(KindNotFound, "CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, ErrInternal.Message)
}

// KindOf reports the taxonomy kind of err, defaulting to internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return FromError(err).Kind
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
