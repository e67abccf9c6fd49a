package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError carries an error code and HTTP status alongside the
// message so controllers can map failures without string matching.
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Details    string `json:"details,omitempty"`
	Cause      error  `json:"-"`
}

func (e ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ServiceError) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeTransport  = "TRANSPORT_ERROR"
	ErrCodeTimeout    = "DELIVERY_TIMEOUT"
	ErrCodeDependency = "DEPENDENCY_ERROR"
	ErrCodeForbidden  = "FORBIDDEN"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

func NewValidationError(message string) error {
	return ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationErrorWithDetails(message, details string) error {
	return ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(resource string) error {
	return ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewTransportError marks a single channel send failure. These are
// recorded and retried, never raised past the delivery engine.
func NewTransportError(channel string, cause error) error {
	return ServiceError{
		Code:       ErrCodeTransport,
		Message:    fmt.Sprintf("send failed on channel %s", channel),
		Cause:      cause,
		StatusCode: http.StatusBadGateway,
	}
}

// NewTimeoutError marks the aggregate delivery deadline expiring, which
// is distinct from any per-channel transport failure.
func NewTimeoutError(message string) error {
	return ServiceError{
		Code:       ErrCodeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
	}
}

func NewDependencyError(dependency string, cause error) error {
	return ServiceError{
		Code:       ErrCodeDependency,
		Message:    fmt.Sprintf("%s unavailable", dependency),
		Cause:      cause,
		StatusCode: http.StatusServiceUnavailable,
	}
}

func NewForbiddenError(message string) error {
	return ServiceError{
		Code:       ErrCodeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) error {
	return ServiceError{
		Code:       ErrCodeInternal,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsTimeout(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func hasCode(err error, code string) bool {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code == code
	}
	return false
}

// GetServiceError extracts a ServiceError from an error chain.
func GetServiceError(err error) (ServiceError, bool) {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return ServiceError{}, false
}
