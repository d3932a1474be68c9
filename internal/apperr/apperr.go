// Package apperr defines the internal error taxonomy used across the
// service layer and its mapping onto HTTP status classes.
//
// The wire contract deliberately conflates quota exhaustion and
// authorization failures under 403, so callers that need to tell them
// apart must inspect the Kind, not the status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the closed set of causes the
// service layer can produce.
type Kind int

const (
	// KindInternal is the zero value; anything unclassified is internal.
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindQuotaExceeded
	KindNotFound
	KindConflict
)

// Error is a classified error carrying a client-safe message. Err, when
// set, holds the underlying cause and is for logs only. Reason carries
// the machine-readable deny reason for authorization failures so that
// callers can distinguish causes sharing one status class.
type Error struct {
	Kind   Kind
	Msg    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to its HTTP status class.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindQuotaExceeded:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error    { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthorized(msg string) *Error  { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) *Error     { return &Error{Kind: KindForbidden, Msg: msg} }
func QuotaExceeded(msg string) *Error { return &Error{Kind: KindQuotaExceeded, Msg: msg} }
func NotFound(msg string) *Error      { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) *Error      { return &Error{Kind: KindConflict, Msg: msg} }

// Internal wraps an unexpected failure. The wrapped error is logged by
// the handler layer; clients only ever see the generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal server error", Err: err}
}

// From returns err as an *Error, wrapping unclassified errors as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	return From(err).Kind
}
