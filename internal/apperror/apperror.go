// Package apperror defines the typed errors the service layer returns.
// Each kind maps to one HTTP status; the api package renders them.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	NotFound
	Conflict
	Upload
	Signing
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Upload, Signing, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code used in API responses.
func (e *Error) Code() string {
	switch e.Kind {
	case Validation:
		return "INVALID_REQUEST"
	case Unauthorized:
		return "UNAUTHORIZED"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case Upload:
		return "UPLOAD_FAILED"
	case Signing:
		return "SIGNING_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string) *Error {
	return New(Validation, message)
}

func NewUnauthorized(message string) *Error {
	return New(Unauthorized, message)
}

func NewNotFound(message string) *Error {
	return New(NotFound, message)
}

func NewConflict(message string) *Error {
	return New(Conflict, message)
}

// From extracts an *Error from err's chain. The bool reports whether one
// was found; callers treat anything else as an internal error.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
