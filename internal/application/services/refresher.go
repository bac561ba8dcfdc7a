package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// Refresher asks the gateway for the state of an order's transaction and
// feeds the answer to the reconciler. The poller and the admin refresh both
// use it.
type Refresher struct {
	reconciler    *Reconciler
	gateway       application.GatewayClient
	sessionPrefix string
	logger        *slog.Logger
}

func NewRefresher(reconciler *Reconciler, gateway application.GatewayClient, sessionPrefix string, logger *slog.Logger) *Refresher {
	return &Refresher{
		reconciler:    reconciler,
		gateway:       gateway,
		sessionPrefix: sessionPrefix,
		logger:        logger,
	}
}

// Refresh queries by session id and falls back to the external order id when
// the first answer is inconclusive. Terminal orders are returned without a
// gateway call. A gateway answer of "pending" changes nothing.
func (r *Refresher) Refresh(ctx context.Context, order *domain.Order) (*Outcome, error) {
	sessionID := order.SessionID(r.sessionPrefix)
	if order.PaymentStatus.IsTerminal() {
		return &Outcome{OrderID: order.ID, SessionID: sessionID, Status: order.PaymentStatus}, nil
	}
	if order.PaymentStatus != domain.StatusPending {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError(order.PaymentStatus, domain.StatusPending),
		)
	}

	result, err := r.query(ctx, order, sessionID)
	if err != nil {
		return nil, err
	}

	return r.reconciler.ApplyResult(ctx, sessionID, order.ID, *result)
}

func (r *Refresher) query(ctx context.Context, order *domain.Order, sessionID string) (*Result, error) {
	status, err := r.gateway.StatusBySessionID(ctx, sessionID)
	if err != nil && application.IsRetryable(err) {
		return nil, gatewayFailure(err)
	}
	if err != nil && errors.Is(err, application.ErrConfiguration) {
		return nil, gatewayFailure(err)
	}

	result := r.toResult(order, status)
	if result.Status.IsTerminal() {
		return result, nil
	}

	externalOrderID := result.ExternalOrderID
	if externalOrderID == "" && order.ExternalOrderID != nil {
		externalOrderID = *order.ExternalOrderID
	}
	if externalOrderID == "" {
		if err != nil {
			r.logger.Info("gateway has no transaction for session yet",
				"order_id", order.ID,
				"session_id", sessionID,
				"error", err,
			)
		}
		return result, nil
	}

	byOrder, err := r.gateway.StatusByOrderID(ctx, externalOrderID)
	if err != nil {
		if application.IsRetryable(err) {
			return nil, gatewayFailure(err)
		}
		r.logger.Info("status by external order id was inconclusive",
			"order_id", order.ID,
			"external_order_id", externalOrderID,
			"error", err,
		)
		return result, nil
	}

	fallback := r.toResult(order, byOrder)
	if fallback.ExternalOrderID == "" {
		fallback.ExternalOrderID = externalOrderID
	}
	return fallback, nil
}

// toResult normalizes a status answer. A terminal answer whose amount does
// not match the order total is downgraded to inconclusive.
func (r *Refresher) toResult(order *domain.Order, status *application.TransactionStatus) *Result {
	result := &Result{Status: domain.StatusPending, Source: "poller"}
	if status == nil {
		return result
	}

	result.ExternalOrderID = status.ExternalOrderID
	result.Status = domain.ParseGatewayStatus(status.RawStatus)

	if result.Status == domain.StatusPaid && status.Amount > 0 && status.Amount != order.Total.Amount {
		r.logger.Warn("gateway status amount does not match order total",
			"event", "amount_mismatch",
			"order_id", order.ID,
			"amount", status.Amount,
			"expected", order.Total.Amount,
		)
		result.Status = domain.StatusPending
	}
	return result
}
