package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeAuth          ErrorType = "AUTH_ERROR"
	ErrorTypeAuthorization ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeNetwork       ErrorType = "NETWORK_ERROR"
	ErrorTypeServer        ErrorType = "SERVER_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeMissingFields    ErrorCode = "MISSING_FIELDS"
	ErrCodeInvalidSalary    ErrorCode = "INVALID_SALARY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked      ErrorCode = "ACCOUNT_LOCKED"
	ErrCodeLoginWarning       ErrorCode = "LOGIN_WARNING"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeSelfDelete    ErrorCode = "SELF_DELETE"
	ErrCodeAdminOnly     ErrorCode = "ADMIN_ONLY"
	ErrCodeNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeNetworkFailed ErrorCode = "NETWORK_FAILURE"
	ErrCodeServerError   ErrorCode = "SERVER_ERROR"
	ErrCodeBusy          ErrorCode = "OPERATION_IN_FLIGHT"
)

// ThrottleDetails is the projection of the server's login-attempt state that
// rides along on auth errors. Locked takes precedence over Warning, which
// takes precedence over a bare AttemptsRemaining.
type ThrottleDetails struct {
	Locked            bool `json:"locked,omitempty"`
	RemainingCooldown int  `json:"remaining_cooldown,omitempty"`
	Warning           bool `json:"warning,omitempty"`
	AttemptsRemaining *int `json:"attempts_remaining,omitempty"`
}

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Throttle returns the throttle metadata attached to the error, if any.
func (e *AppError) Throttle() (*ThrottleDetails, bool) {
	td, ok := e.Details.(*ThrottleDetails)
	return td, ok
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewAuthError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuth,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewAuthorizationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewNetworkError(cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Code:    ErrCodeNetworkFailed,
		Message: "network failure",
		Cause:   cause,
	}
}

func NewServerError(message string, status int) *AppError {
	return &AppError{
		Type:       ErrorTypeServer,
		Code:       ErrCodeServerError,
		Message:    message,
		StatusCode: status,
	}
}

var (
	ErrInvalidCredentials = NewAuthError("invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewAuthError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewAuthError("token has expired", ErrCodeTokenExpired)
	ErrSelfDelete         = NewAuthorizationError("you cannot delete your own account", ErrCodeSelfDelete)
	ErrAdminOnly          = NewAuthorizationError("admin access required", ErrCodeAdminOnly)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
