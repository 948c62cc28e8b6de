package model

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed taxonomy surfaced to callers. The api layer is the
// only place that maps codes to HTTP statuses.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	CodeAuthorization   ErrorCode = "AUTHORIZATION_ERROR"
	CodeRateLimited     ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeAIService       ErrorCode = "AI_SERVICE_ERROR"
	CodeNetwork         ErrorCode = "NETWORK_ERROR"
	CodeDatabaseService ErrorCode = "DATABASE_SERVICE_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeRouteNotFound   ErrorCode = "ROUTE_NOT_FOUND"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// Error is a typed error carrying a taxonomy code. RetryAfterSeconds is only
// meaningful for CodeRateLimited.
type Error struct {
	Code              ErrorCode
	Message           string
	RetryAfterSeconds int
	cause             error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two taxonomy errors by code so errors.Is(err, &Error{Code: ...})
// and the sentinel helpers below both work.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// NewError builds a taxonomy error with an optional wrapped cause.
func NewError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

// NewValidationError reports malformed or out-of-bounds input.
func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NewRateLimitError reports an exceeded limit with a back-off hint.
func NewRateLimitError(msg string, retryAfterSeconds int, cause error) *Error {
	if retryAfterSeconds < 0 {
		retryAfterSeconds = 0
	}
	return &Error{Code: CodeRateLimited, Message: msg, RetryAfterSeconds: retryAfterSeconds, cause: cause}
}

// CodeOf extracts the taxonomy code from err, or CodeInternal if err carries
// no code.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}

// Sentinels for persistence-layer signalling.
var (
	ErrNotFound = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict = &Error{Code: CodeValidation, Message: "conflict"}
)
