package services

import (
	"errors"

	"github.com/DanielPopoola/sisi-payments/internal/application"
)

// Settings carries the merchant-side values the services sign and publish with.
type Settings struct {
	CRC           string
	SessionPrefix string
	Description   string
	PublicURL     string
}

// gatewayFailure turns a gateway client error into the service error the
// callers surface. Nothing here changes order state.
func gatewayFailure(err error) error {
	if _, ok := application.IsServiceError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, application.ErrConfiguration):
		return application.NewConfigurationError(err)
	case application.IsRetryable(err):
		return application.NewTransientGatewayError(err)
	default:
		return application.NewGatewayRejectedError(err)
	}
}
