// Package apperr carries the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Unauthenticated Kind = iota + 1
	InvalidCredential
	Forbidden
	NotFound
	ValidationFailed
	QuotaExceeded
	AlreadyCompleted
	Conflict
	OutOfRange
	ServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case InvalidCredential:
		return "invalid_credential"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ValidationFailed:
		return "validation_failed"
	case QuotaExceeded:
		return "quota_exceeded"
	case AlreadyCompleted:
		return "already_completed"
	case Conflict:
		return "conflict"
	case OutOfRange:
		return "out_of_range"
	case ServiceUnavailable:
		return "service_unavailable"
	}
	return "internal"
}

// Error is a kinded error. Services return these; the HTTP layer maps them to a status.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(k Kind, msg string) error { return &Error{Kind: k, Msg: msg} }

func Newf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(k Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf reports the taxonomy kind of err, or 0 for plain errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// HTTPStatus maps a kind to the wire status. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated, InvalidCredential:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ValidationFailed, OutOfRange:
		return http.StatusBadRequest
	case QuotaExceeded:
		return http.StatusTooManyRequests
	case AlreadyCompleted, Conflict:
		return http.StatusConflict
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
