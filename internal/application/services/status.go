package services

import (
	"context"
	"errors"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/tracking"
)

const pendingMessage = "Payment is pending. If this does not change, please contact support."

// PaymentView is the customer-facing status of an order's payment. It never
// reports a final state that the order record does not hold.
type PaymentView struct {
	OrderID string
	Status  string
	PaidAt  *time.Time
	Message string
}

type StatusService struct {
	orders  application.OrderRepository
	tracker *tracking.Issuer
}

func NewStatusService(orders application.OrderRepository, tracker *tracking.Issuer) *StatusService {
	return &StatusService{orders: orders, tracker: tracker}
}

// Lookup returns the payment status for an anonymous visitor holding the
// tracking token issued at registration.
func (s *StatusService) Lookup(ctx context.Context, orderID, token string) (*PaymentView, error) {
	if err := s.tracker.Verify(orderID, token); err != nil {
		return nil, application.NewUnauthorizedError(application.ErrInvalidTrackingToken)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, application.NewInternalError(err)
	}

	return ViewOf(order), nil
}

func ViewOf(order *domain.Order) *PaymentView {
	switch order.PaymentStatus {
	case domain.StatusPaid:
		return &PaymentView{
			OrderID: order.ID,
			Status:  "paid",
			PaidAt:  order.PaidAt,
			Message: "Payment received.",
		}
	case domain.StatusFailed:
		return &PaymentView{
			OrderID: order.ID,
			Status:  "failed",
			Message: "Payment failed. Please try again or choose another payment method.",
		}
	default:
		return &PaymentView{
			OrderID: order.ID,
			Status:  "pending",
			Message: pendingMessage,
		}
	}
}
