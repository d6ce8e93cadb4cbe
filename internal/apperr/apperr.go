// Package apperr classifies every failure a domain operation can report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation            Kind = "validation"
	KindDuplicateEmail        Kind = "duplicate_email"
	KindDuplicateName         Kind = "duplicate_name"
	KindNotFound              Kind = "not_found"
	KindAlreadyGranted        Kind = "already_granted"
	KindAlreadyAssigned       Kind = "already_assigned"
	KindInvalidSecret         Kind = "invalid_secret"
	KindUnauthenticated       Kind = "unauthenticated"
	KindTokenMalformed        Kind = "token_malformed"
	KindTokenSignatureInvalid Kind = "token_signature_invalid"
	KindTokenExpired          Kind = "token_expired"
	KindForbidden             Kind = "forbidden"
	KindNoOpTransition        Kind = "noop_transition"
	KindInternal              Kind = "internal"
)

// Error carries a Kind plus a caller-safe message. Err holds the underlying
// cause for server-side logging only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Internal wraps an unexpected store or library failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

var (
	ErrValidation            = New(KindValidation, "validation failed")
	ErrDuplicateEmail        = New(KindDuplicateEmail, "email already in use")
	ErrDuplicateName         = New(KindDuplicateName, "name already in use")
	ErrNotFound              = New(KindNotFound, "not found")
	ErrAlreadyGranted        = New(KindAlreadyGranted, "permission already granted to role")
	ErrAlreadyAssigned       = New(KindAlreadyAssigned, "role already assigned to user")
	ErrInvalidSecret         = New(KindInvalidSecret, "invalid credentials")
	ErrUnauthenticated       = New(KindUnauthenticated, "authentication required")
	ErrTokenMalformed        = New(KindTokenMalformed, "malformed token")
	ErrTokenSignatureInvalid = New(KindTokenSignatureInvalid, "invalid token signature")
	ErrTokenExpired          = New(KindTokenExpired, "token expired")
	ErrForbidden             = New(KindForbidden, "permission denied")
	ErrNoOpTransition        = New(KindNoOpTransition, "status unchanged")
	ErrInternal              = New(KindInternal, "internal error")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsAuthentication reports whether err should surface as a uniform 401.
func IsAuthentication(err error) bool {
	switch KindOf(err) {
	case KindUnauthenticated, KindTokenMalformed, KindTokenSignatureInvalid, KindTokenExpired, KindInvalidSecret:
		return true
	}
	return false
}

func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindDuplicateEmail, KindDuplicateName, KindAlreadyGranted, KindAlreadyAssigned, KindNoOpTransition:
		return http.StatusBadRequest
	case KindUnauthenticated, KindTokenMalformed, KindTokenSignatureInvalid, KindTokenExpired, KindInvalidSecret:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a client may see for err. Authentication and
// authorization failures collapse to one static message each and internal
// causes are never exposed.
func PublicMessage(err error) string {
	kind := KindOf(err)
	switch {
	case kind == KindInvalidSecret:
		return ErrInvalidSecret.Message
	case IsAuthentication(err):
		return ErrUnauthenticated.Message
	case kind == KindForbidden:
		return ErrForbidden.Message
	case kind == KindInternal:
		return ErrInternal.Message
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return ErrInternal.Message
}
