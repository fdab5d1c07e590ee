// Package apperr carries the error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNoProfile
	KindNotFound
	KindConflict
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNoProfile:
		return "no_profile"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	}
	return "upstream"
}

// Error is a classified error. Message is safe to show to API callers; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }
func NoProfile(msg string) *Error { return &Error{Kind: KindNoProfile, Message: msg} }
func NotFound(msg string) *Error  { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error  { return &Error{Kind: KindConflict, Message: msg} }
func Upload(err error) *Error {
	return &Error{Kind: KindUpload, Message: "Receipt upload failed", Err: err}
}
func Upstream(err error) *Error { return &Error{Kind: KindUpstream, Message: "Server error", Err: err} }

// KindOf reports the kind of err. Unclassified errors are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// HTTPStatus maps err to a status code and a caller-safe message.
func HTTPStatus(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "Server error"
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest, e.Message
	case KindUnauthenticated:
		return http.StatusUnauthorized, e.Message
	case KindForbidden, KindNoProfile:
		return http.StatusForbidden, e.Message
	case KindNotFound:
		return http.StatusNotFound, e.Message
	case KindConflict:
		return http.StatusConflict, e.Message
	}
	return http.StatusInternalServerError, e.Message
}
