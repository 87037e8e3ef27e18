// Package apperror defines the typed errors handlers translate into HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	TypeValidation   ErrorType = "validation_error"
	TypeBadRequest   ErrorType = "bad_request"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeForbidden    ErrorType = "forbidden"
	TypeNotFound     ErrorType = "not_found"
	TypeConflict     ErrorType = "conflict"
	TypeRateLimited  ErrorType = "rate_limited"
	TypeInternal     ErrorType = "internal_error"
)

// AppError is an error with the status code and user-facing message to send.
// Extra fields are merged into the JSON error body.
type AppError struct {
	Type    ErrorType      `json:"type"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
	Details string         `json:"details,omitempty"`
	Err     error          `json:"-"`
	Extra   map[string]any `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	if err != nil && e.Details == "" {
		e.Details = err.Error()
	}
	return e
}

// With adds an extra field to the response body
func (e *AppError) With(key string, value any) *AppError {
	if e.Extra == nil {
		e.Extra = map[string]any{}
	}
	e.Extra[key] = value
	return e
}

func newError(t ErrorType, code int, message string) *AppError {
	return &AppError{Type: t, Message: message, Code: code}
}

func Validation(message string) *AppError {
	return newError(TypeValidation, http.StatusBadRequest, message)
}

func BadRequest(message string) *AppError {
	return newError(TypeBadRequest, http.StatusBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return newError(TypeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newError(TypeForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return newError(TypeNotFound, http.StatusNotFound, message)
}

func Conflict(message string) *AppError {
	return newError(TypeConflict, http.StatusConflict, message)
}

func RateLimited(message string) *AppError {
	return newError(TypeRateLimited, http.StatusTooManyRequests, message)
}

func Internal(message string) *AppError {
	return newError(TypeInternal, http.StatusInternalServerError, message)
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
