// Package domain encodes the payment side of a restaurant order and its lifecycle.
package domain

import (
	"time"
)

// PaymentStatus represents where an order's online payment is in its lifecycle
type PaymentStatus string

const (
	StatusNone    PaymentStatus = "NONE"
	StatusPending PaymentStatus = "PENDING"
	StatusPaid    PaymentStatus = "PAID"
	StatusFailed  PaymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// Order is the payment record of one order. Only the reconciler moves it
// out of PENDING.
type Order struct {
	ID            string
	Total         Money
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	ExternalSessionID *string
	ExternalOrderID   *string
	PaymentToken      *string

	PaidAt       *time.Time
	PendingSince *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrder builds the payment record for a freshly placed order. The total is
// whatever the ordering app computed after discounts.
func NewOrder(id string, total Money, method PaymentMethod) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order ID")
	}
	if !method.Valid() {
		return nil, NewMissingRequiredFieldError("payment method")
	}
	if total.Amount <= 0 {
		return nil, NewInvalidAmountError(total.Amount)
	}

	now := time.Now()
	return &Order{
		ID:            id,
		Total:         total,
		PaymentMethod: method,
		PaymentStatus: StatusNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsOnline reports whether the order takes part in gateway reconciliation.
func (o *Order) IsOnline() bool {
	return o.PaymentMethod == MethodOnline
}

// SessionID returns the session id already bound to the order, or the one
// it will be bound to on first registration.
func (o *Order) SessionID(prefix string) string {
	if o.ExternalSessionID != nil && *o.ExternalSessionID != "" {
		return *o.ExternalSessionID
	}
	return SessionIDFor(prefix, o.ID)
}

// CanTransitionTo validates a payment status change.
//
// Valid transitions are:
//   - None → Pending
//   - Pending → Pending (re-registration), Paid, Failed
//
// Paid and Failed are terminal.
func (o *Order) CanTransitionTo(target PaymentStatus) error {
	switch o.PaymentStatus {
	case StatusNone, "":
		if target == StatusPending {
			return nil
		}
	case StatusPending:
		if target == StatusPending || target == StatusPaid || target == StatusFailed {
			return nil
		}
	case StatusPaid, StatusFailed:
		return NewAlreadyTerminalError(o.ID, o.PaymentStatus)
	}
	return NewInvalidTransitionError(o.PaymentStatus, target)
}

// MarkPending records a successful registration with the gateway.
func (o *Order) MarkPending(sessionID, paymentToken string, at time.Time) error {
	if !o.IsOnline() {
		return NewNotOnlineOrderError(o.ID, o.PaymentMethod)
	}
	if err := o.CanTransitionTo(StatusPending); err != nil {
		return err
	}
	if o.ExternalSessionID == nil {
		o.ExternalSessionID = &sessionID
	}
	o.PaymentToken = &paymentToken
	if o.PendingSince == nil {
		o.PendingSince = &at
	}
	o.PaymentStatus = StatusPending
	o.UpdatedAt = at
	return nil
}

// MarkPaid moves a pending order to PAID and stamps paid_at.
func (o *Order) MarkPaid(at time.Time) error {
	if err := o.CanTransitionTo(StatusPaid); err != nil {
		return err
	}
	o.PaymentStatus = StatusPaid
	o.PaidAt = &at
	o.UpdatedAt = at
	return nil
}

// MarkFailed moves a pending order to FAILED.
func (o *Order) MarkFailed(at time.Time) error {
	if err := o.CanTransitionTo(StatusFailed); err != nil {
		return err
	}
	o.PaymentStatus = StatusFailed
	o.UpdatedAt = at
	return nil
}
