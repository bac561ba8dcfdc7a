package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/signature"
	"github.com/stretchr/testify/require"
)

const (
	CRC           = "test-crc-secret"
	SessionPrefix = domain.DefaultSessionPrefix
	TrackingKey   = "0123456789abcdef-tracking"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SeedOrder stores a fresh ONLINE order in NONE.
func SeedOrder(t *testing.T, repo application.OrderRepository, orderID string, amount int64) *domain.Order {
	t.Helper()
	money, err := domain.NewMoney(amount, "PLN")
	require.NoError(t, err)
	order, err := domain.NewOrder(orderID, money, domain.MethodOnline)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

// SeedPendingOrder stores an ONLINE order that was registered pendingFor ago.
func SeedPendingOrder(t *testing.T, repo application.OrderRepository, orderID string, amount int64, pendingFor time.Duration) *domain.Order {
	t.Helper()
	order := SeedOrder(t, repo, orderID, amount)
	require.NoError(t, order.MarkPending(domain.SessionIDFor(SessionPrefix, orderID), "tok-"+orderID, time.Now().Add(-pendingFor)))
	ok, err := repo.MarkPending(context.Background(), order)
	require.NoError(t, err)
	require.True(t, ok)
	return order
}

// SignedNotification builds a notification carrying a valid verification digest.
func SignedNotification(t *testing.T, orderID, externalOrderID string, amount int64) domain.Notification {
	t.Helper()
	sessionID := domain.SessionIDFor(SessionPrefix, orderID)
	sign, err := signature.Sign(signature.VerificationFields(sessionID, externalOrderID, amount, "PLN", CRC))
	require.NoError(t, err)
	return domain.Notification{
		SessionID:       sessionID,
		ExternalOrderID: externalOrderID,
		Amount:          amount,
		Currency:        "PLN",
		Sign:            sign,
	}
}
