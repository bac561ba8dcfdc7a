package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DanielPopoola/sisi-payments/internal/application"
)

// GatewayError is returned for transport failures (StatusCode 0) and for
// non-success gateway responses.
type GatewayError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("gateway %s error [%s]: %s (status: %d)", e.Operation, e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Unwrap exposes the transport cause and the application category, so callers
// can errors.Is against application.ErrTransientGateway or ErrConfiguration.
func (e *GatewayError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		errs = append(errs, application.ErrConfiguration)
	case e.IsRetryable():
		errs = append(errs, application.ErrTransientGateway)
	}
	return errs
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
