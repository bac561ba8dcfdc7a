package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

var (
	ErrAuthenticationFailure = errors.New("notification signature mismatch")
	ErrTransientGateway      = errors.New("gateway temporarily unavailable")
	ErrOrphanedNotification  = errors.New("notification matches no order")
	ErrConfiguration         = errors.New("gateway configuration error")
	ErrAmountMismatch        = errors.New("notification amount differs from order total")
	ErrInvalidTrackingToken  = errors.New("invalid tracking token")
	ErrSweepInProgress       = errors.New("reconciliation sweep already running")
)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAuthenticationFailure = "AUTHENTICATION_FAILURE"
	ErrCodeTransientGateway      = "GATEWAY_UNAVAILABLE"
	ErrCodeOrphanedNotification  = "ORPHANED_NOTIFICATION"
	ErrCodeConfiguration         = "CONFIGURATION_ERROR"
	ErrCodeAmountMismatch        = "AMOUNT_MISMATCH"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeSweepInProgress       = "SWEEP_IN_PROGRESS"
	ErrCodeGatewayRejected       = "GATEWAY_REJECTED"
	ErrCodeTimeout               = "TIMEOUT"
	ErrCodeInternal              = "INTERNAL_ERROR"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeInvalidState          = "INVALID_STATE"
)

func NewAuthenticationFailureError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeAuthenticationFailure,
		Message:    "Notification could not be authenticated",
		HTTPStatus: http.StatusBadRequest,
		Err:        tag(ErrAuthenticationFailure, err),
	}
}

func NewTransientGatewayError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeTransientGateway,
		Message:    "Payment gateway unavailable, retry later",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        tag(ErrTransientGateway, err),
	}
}

func NewOrphanedNotificationError(sessionID string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrphanedNotification,
		Message:    fmt.Sprintf("No order matches session %s", sessionID),
		HTTPStatus: http.StatusAccepted,
		Err:        ErrOrphanedNotification,
	}
}

func NewConfigurationError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConfiguration,
		Message:    "Payment gateway is misconfigured",
		HTTPStatus: http.StatusInternalServerError,
		Err:        tag(ErrConfiguration, err),
	}
}

func NewAmountMismatchError(expected, got int64) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeAmountMismatch,
		Message:    fmt.Sprintf("Notification amount %d does not match order total %d", got, expected),
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrAmountMismatch,
	}
}

func NewUnauthorizedError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthorized,
		Message:    "Unauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewSweepInProgressError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeSweepInProgress,
		Message:    "A reconciliation sweep is already running",
		HTTPStatus: http.StatusConflict,
		Err:        ErrSweepInProgress,
	}
}

func NewGatewayRejectedError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayRejected,
		Message:    "Payment gateway rejected the request",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid input",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Invalid state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

func tag(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
