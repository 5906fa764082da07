package domain

import (
	"errors"
	"net/http"
)

// Code is the machine-readable error code exposed in the error envelope.
type Code string

// Error codes for business logic errors.
const (
	CodeNotFound      Code = "not_found"
	CodeAlreadyExists Code = "conflict"
	CodeValidation    Code = "validation_error"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeRateLimited   Code = "rate_limited"
	CodeInternal      Code = "internal_error"
)

// AppError represents a business logic error with a code, message, optional
// details and an optional wrapped error.
type AppError struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// Use the Is* helpers rather than errors.Is to match a category: they compare
// codes, so freshly constructed errors from NewAppError match as well.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrForbidden     = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrRateLimited   = &AppError{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation AppError carrying per-field details.
func NewValidationError(message string, details map[string]any) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}

// AuthFailureKind identifies which authentication check failed.
type AuthFailureKind string

// Authentication failure kinds. They are logged, never returned to callers.
const (
	AuthMissingToken      AuthFailureKind = "missing_token"
	AuthMalformed         AuthFailureKind = "malformed"
	AuthBadSignature      AuthFailureKind = "bad_signature"
	AuthExpired           AuthFailureKind = "expired"
	AuthPrincipalNotFound AuthFailureKind = "principal_not_found"
	AuthBadCredentials    AuthFailureKind = "bad_credentials"
)

// AuthError is returned when a request cannot be authenticated.
type AuthError struct {
	Kind AuthFailureKind
	Err  error
}

// NewAuthError creates an AuthError of the given kind.
func NewAuthError(kind AuthFailureKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := "authentication failed: " + string(e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthFailureOf returns the failure kind if err is or wraps an *AuthError.
func AuthFailureOf(err error) (AuthFailureKind, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return "", false
}

// IsUnauthorized reports whether err is or wraps an *AuthError or an AppError
// with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	if _, ok := AuthFailureOf(err); ok {
		return true
	}
	return hasCode(err, CodeUnauthorized)
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is or wraps an AppError with CodeAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsForbidden reports whether err is or wraps an AppError with CodeForbidden.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

func hasCode(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// Unknown errors map to http.StatusInternalServerError.
func HTTPStatusCode(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if _, ok := AuthFailureOf(err); ok {
		return http.StatusUnauthorized
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExists, CodeValidation:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeRateLimited:
			return http.StatusTooManyRequests
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
