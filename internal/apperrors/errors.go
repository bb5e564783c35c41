// Package apperrors carries the error taxonomy the workflows hand to the HTTP
// layer. Handlers map a Kind to a status code and return only Message and
// Details to the client; wrapped causes stay server-side.
package apperrors

import (
	"errors"
	"net/http"
	"time"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindAuth
	KindForbidden
	KindRateLimited
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	// Details holds field-level validation messages, safe to return.
	Details []string
	// LockoutUntil is set on KindRateLimited errors.
	LockoutUntil time.Time
	cause        error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

func RateLimited(message string, lockoutUntil time.Time) *Error {
	return &Error{Kind: KindRateLimited, Message: message, LockoutUntil: lockoutUntil}
}

// KindOf classifies any error; unknown errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
