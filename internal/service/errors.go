package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a procedure failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindHasDependents
	KindInvalidState
)

// String returns the kind label used in logs and responses.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindHasDependents:
		return "has_dependents"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "internal"
	}
}

// Error is a domain error carrying a human-readable message.
type Error struct {
	Kind    Kind
	Code    string // Optional machine-readable detail, e.g. "totp_required".
	Message string
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, so errors.Is(err, ErrNotFound) holds for any
// not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrHasDependents = &Error{Kind: KindHasDependents}
	ErrInvalidState  = &Error{Kind: KindInvalidState}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func unauthorizedError(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func forbiddenError(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func conflictError(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

func hasDependentsError(format string, args ...any) error {
	return newError(KindHasDependents, format, args...)
}

func invalidStateError(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}

// KindOf returns the kind of err, or KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindHasDependents:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code of err, if any.
func ErrorCode(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		if domainErr.Code != "" {
			return domainErr.Code
		}
		return domainErr.Kind.String()
	}
	return KindInternal.String()
}
