// Package errors defines the error taxonomy shared by the review layer
// services and their HTTP surface.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure.
type Kind int

const (
	// KindValidation marks a malformed request the caller can correct.
	KindValidation Kind = iota + 1
	// KindUnauthorized marks a caller lacking permission for the operation.
	KindUnauthorized
	// KindNotFound marks an operation against a missing record.
	KindNotFound
	// KindLedgerUnavailable marks a ledger call that timed out or was
	// cancelled. The operation aborted with no state change.
	KindLedgerUnavailable
	// KindPersistence marks a store-layer fault.
	KindPersistence
)

// Error carries a kind alongside a message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two taxonomy errors by kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// Validation builds a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds an authorization error.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-record error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// LedgerUnavailable wraps a failed or cancelled ledger call.
func LedgerUnavailable(message string, cause error) *Error {
	return &Error{Kind: KindLedgerUnavailable, Message: message, Err: cause}
}

// Persistence wraps a store-layer fault.
func Persistence(message string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: cause}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindLedgerUnavailable:
		return http.StatusServiceUnavailable
	case KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
