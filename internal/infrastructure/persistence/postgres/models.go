package postgres

import (
	"time"
)

// OrderModel is the row shape of the orders table.
type OrderModel struct {
	OrderID           string
	TotalAmount       int64
	Currency          string
	PaymentMethod     string
	PaymentStatus     string
	ExternalSessionID *string
	ExternalOrderID   *string
	PaymentToken      *string
	PaidAt            *time.Time
	PendingSince      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NotificationModel is one row of payment_notifications. Notification fields
// are nullable because rejected notifications are logged as received.
type NotificationModel struct {
	ID              string
	Source          string
	SessionID       *string
	ExternalOrderID *string
	Amount          *int64
	Currency        *string
	Sign            *string
	Outcome         string
	Detail          *string
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
}
