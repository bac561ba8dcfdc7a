package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// OrderRepository is the port for the order payment records.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, orderID string) (*domain.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	// MarkPending persists a successful registration. It only writes while the
	// order is NONE or PENDING and never replaces a bound session id. It
	// reports false when the row was no longer eligible.
	MarkPending(ctx context.Context, order *domain.Order) (bool, error)

	// CompletePending moves a PENDING order to PAID or FAILED in one guarded
	// update. It reports false without writing when the row is no longer PENDING.
	CompletePending(ctx context.Context, orderID string, status domain.PaymentStatus, externalOrderID string, at time.Time) (*domain.Order, bool, error)

	// RecordExternalOrderID stores the gateway's order id if none is bound yet.
	RecordExternalOrderID(ctx context.Context, orderID, externalOrderID string) error

	// FindStalePending returns ONLINE orders pending since before cutoff, oldest first.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error)
}

// NotificationLog is the append-only audit trail of inbound notifications.
type NotificationLog interface {
	Append(ctx context.Context, record *domain.NotificationRecord) error
	Resolve(ctx context.Context, id string, outcome domain.NotificationOutcome, detail string) error
	FindByID(ctx context.Context, id string) (*domain.NotificationRecord, error)
}

// GatewayClient is the port for the external payment gateway.
type GatewayClient interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
	StatusBySessionID(ctx context.Context, sessionID string) (*TransactionStatus, error)
	StatusByOrderID(ctx context.Context, externalOrderID string) (*TransactionStatus, error)
}

// SweepLock keeps reconciliation sweeps from overlapping across replicas.
type SweepLock interface {
	// TryAcquire returns a release func when the lock was taken, or nil when
	// another holder owns it.
	TryAcquire(ctx context.Context) (release func(context.Context), err error)
}

// VerificationQueue hands a logged notification to the background verifier.
type VerificationQueue interface {
	Enqueue(ctx context.Context, notificationID string) error
}

type RegisterRequest struct {
	SessionID   string
	Amount      int64
	Currency    string
	Description string
	Email       string
	ReturnURL   string
	StatusURL   string
	Sign        string
}

type RegisterResponse struct {
	Token       string
	RedirectURL string
}

type VerifyRequest struct {
	SessionID       string
	ExternalOrderID string
	Amount          int64
	Currency        string
	Sign            string
}

type VerifyResponse struct {
	Confirmed bool
	Detail    string
}

// TransactionStatus is the gateway's view of one transaction. RawStatus is
// kept verbatim for logs; callers normalize it with domain.ParseGatewayStatus.
type TransactionStatus struct {
	SessionID       string
	ExternalOrderID string
	RawStatus       string
	Amount          int64
}
