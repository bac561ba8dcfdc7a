package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategorySecurity       ErrorCategory = "SECURITY"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// retryable is implemented by adapter errors that know whether a retry can help.
type retryable interface {
	IsRetryable() bool
}

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailure), errors.Is(err, ErrAmountMismatch):
		return CategorySecurity
	case errors.Is(err, ErrTransientGateway):
		return CategoryTransient
	case errors.Is(err, ErrConfiguration):
		return CategoryPermanent
	case errors.Is(err, ErrOrphanedNotification), errors.Is(err, domain.ErrOrderNotFound):
		return CategoryClientError
	}

	if errors.Is(err, domain.ErrAlreadyTerminal) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrNotOnlineOrder) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidTrackingToken) {
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidInput, ErrCodeUnauthorized:
			return CategoryClientError
		case ErrCodeInternal:
			return CategoryInfrastructure
		case ErrCodeTimeout, ErrCodeSweepInProgress:
			return CategoryTransient
		case ErrCodeGatewayRejected:
			return CategoryPermanent
		}
	}

	var r retryable
	if errors.As(err, &r) {
		if r.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, ErrAuthenticationFailure):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTrackingToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrNotOnlineOrder):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransientGateway):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailure):
		return ErrCodeAuthenticationFailure
	case errors.Is(err, ErrTransientGateway):
		return ErrCodeTransientGateway
	case errors.Is(err, ErrInvalidTrackingToken):
		return ErrCodeUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}
