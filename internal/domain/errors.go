package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid payment status transition")
	ErrAlreadyTerminal      = errors.New("payment already in a terminal state")
	ErrNotOnlineOrder       = errors.New("order is not paid online")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Domain validation errors
const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeAlreadyTerminal      = "ALREADY_TERMINAL"
	ErrCodeNotOnlineOrder       = "NOT_ONLINE_ORDER"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrMissingRequiredField,
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amount),
		Err:     ErrInvalidAmount,
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewOrderNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order with ID %s not found", id),
		Err:     ErrOrderNotFound,
	}
}

func NewAlreadyTerminalError(id string, status PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyTerminal,
		Message: fmt.Sprintf("order %s payment is already %s", id, status),
		Err:     ErrAlreadyTerminal,
	}
}

func NewNotOnlineOrderError(id string, method PaymentMethod) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotOnlineOrder,
		Message: fmt.Sprintf("order %s uses payment method %s", id, method),
		Err:     ErrNotOnlineOrder,
	}
}

func NewNotificationNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotificationNotFound,
		Message: fmt.Sprintf("notification %s not found", id),
		Err:     ErrNotificationNotFound,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
