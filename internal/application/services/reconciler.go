package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// Result is a gateway-confirmed statement about one transaction.
// StatusPending means the source was inconclusive.
type Result struct {
	Status          domain.PaymentStatus
	ExternalOrderID string
	Source          string
}

// Outcome reports where an order ended up after a result was applied.
// Applied is true only for the call that performed the transition.
type Outcome struct {
	OrderID   string
	SessionID string
	Status    domain.PaymentStatus
	Applied   bool
}

// Reconciler is the only writer of terminal payment states. Every entry
// point (webhook, return callback, poller, admin refresh) funnels into
// ApplyResult.
type Reconciler struct {
	orders        application.OrderRepository
	sessionPrefix string
	logger        *slog.Logger
	now           func() time.Time
}

func NewReconciler(orders application.OrderRepository, sessionPrefix string, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		orders:        orders,
		sessionPrefix: sessionPrefix,
		logger:        logger,
		now:           time.Now,
	}
}

// Resolve maps an external session id to exactly one order: by bound session
// id first, then by the order id hint (derived from the session id when the
// caller has none). No match is an orphaned notification.
func (r *Reconciler) Resolve(ctx context.Context, sessionID, orderIDHint string) (*domain.Order, error) {
	if sessionID != "" {
		order, err := r.orders.FindBySessionID(ctx, sessionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, application.NewInternalError(err)
		}
	}

	if orderIDHint == "" {
		orderIDHint, _ = domain.DeriveOrderID(r.sessionPrefix, sessionID)
	}

	if orderIDHint != "" {
		order, err := r.orders.FindByID(ctx, orderIDHint)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, application.NewInternalError(err)
		}
	}

	r.logger.Error("orphaned payment notification",
		"session_id", sessionID,
		"order_id_hint", orderIDHint,
	)
	return nil, application.NewOrphanedNotificationError(sessionID)
}

// ApplyResult resolves the order and applies result to it. Terminal orders
// are returned unchanged. A PENDING order is moved by a guarded update, so of
// two racing callers exactly one writes and the other reports the winner.
func (r *Reconciler) ApplyResult(ctx context.Context, sessionID, orderIDHint string, result Result) (*Outcome, error) {
	order, err := r.Resolve(ctx, sessionID, orderIDHint)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		OrderID:   order.ID,
		SessionID: order.SessionID(r.sessionPrefix),
		Status:    order.PaymentStatus,
	}

	if order.PaymentStatus.IsTerminal() {
		if result.Status.IsTerminal() && result.Status != order.PaymentStatus {
			r.logger.Warn("ignoring conflicting result for terminal order",
				"order_id", order.ID,
				"status", order.PaymentStatus,
				"result", result.Status,
				"source", result.Source,
			)
		}
		return outcome, nil
	}

	if order.PaymentStatus != domain.StatusPending {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError(order.PaymentStatus, result.Status),
		)
	}

	if !result.Status.IsTerminal() {
		if result.ExternalOrderID != "" && order.ExternalOrderID == nil {
			if err := r.orders.RecordExternalOrderID(ctx, order.ID, result.ExternalOrderID); err != nil {
				return nil, application.NewInternalError(err)
			}
		}
		return outcome, nil
	}

	updated, applied, err := r.orders.CompletePending(ctx, order.ID, result.Status, result.ExternalOrderID, r.now())
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	if !applied {
		current, err := r.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		outcome.Status = current.PaymentStatus
		r.logger.Info("order already settled by a concurrent path",
			"order_id", order.ID,
			"status", current.PaymentStatus,
			"source", result.Source,
		)
		return outcome, nil
	}

	outcome.Status = updated.PaymentStatus
	outcome.Applied = true
	r.logger.Info("payment reconciled",
		"order_id", order.ID,
		"status", updated.PaymentStatus,
		"source", result.Source,
	)
	return outcome, nil
}
