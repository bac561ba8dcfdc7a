package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Run("creates order successfully", func(t *testing.T) {
		money, err := domain.NewMoney(4250, "pln")
		require.NoError(t, err)

		order, err := domain.NewOrder("O1", money, domain.MethodOnline)

		require.NoError(t, err)
		assert.Equal(t, "O1", order.ID)
		assert.Equal(t, int64(4250), order.Total.Amount)
		assert.Equal(t, "PLN", order.Total.Currency)
		assert.Equal(t, domain.StatusNone, order.PaymentStatus)
		assert.Nil(t, order.PaidAt)
		assert.NotZero(t, order.CreatedAt)
	})

	t.Run("rejects empty order ID", func(t *testing.T) {
		money, _ := domain.NewMoney(4250, "PLN")

		_, err := domain.NewOrder("", money, domain.MethodOnline)

		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
	})

	t.Run("rejects zero total", func(t *testing.T) {
		money, _ := domain.NewMoney(0, "PLN")

		_, err := domain.NewOrder("O1", money, domain.MethodOnline)

		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		money, _ := domain.NewMoney(100, "PLN")

		_, err := domain.NewOrder("O1", money, domain.PaymentMethod("BITCOIN"))

		assert.Error(t, err)
	})
}

func TestNewMoney(t *testing.T) {
	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := domain.NewMoney(-100, "PLN")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "amount cannot be negative")
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		_, err := domain.NewMoney(100, "ZLOTY")

		assert.Error(t, err)
	})
}

func TestOrder_StateTransitions(t *testing.T) {
	t.Run("NONE -> PENDING binds session id once", func(t *testing.T) {
		order := createOnlineOrder(t)

		err := order.MarkPending("sisi-O1", "tok-1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, order.PaymentStatus)
		assert.Equal(t, "sisi-O1", *order.ExternalSessionID)
		assert.Equal(t, "tok-1", *order.PaymentToken)

		err = order.MarkPending("sisi-other", "tok-2", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "sisi-O1", *order.ExternalSessionID)
		assert.Equal(t, "tok-2", *order.PaymentToken)
	})

	t.Run("PENDING -> PAID stamps paid_at", func(t *testing.T) {
		order := createPendingOrder(t)
		at := time.Now()

		require.NoError(t, order.MarkPaid(at))

		assert.Equal(t, domain.StatusPaid, order.PaymentStatus)
		require.NotNil(t, order.PaidAt)
		assert.Equal(t, at, *order.PaidAt)
	})

	t.Run("PENDING -> FAILED leaves paid_at empty", func(t *testing.T) {
		order := createPendingOrder(t)

		require.NoError(t, order.MarkFailed(time.Now()))

		assert.Equal(t, domain.StatusFailed, order.PaymentStatus)
		assert.Nil(t, order.PaidAt)
	})

	t.Run("cash order cannot be registered", func(t *testing.T) {
		money, _ := domain.NewMoney(100, "PLN")
		order, err := domain.NewOrder("O2", money, domain.MethodCash)
		require.NoError(t, err)

		err = order.MarkPending("sisi-O2", "tok", time.Now())

		assert.ErrorIs(t, err, domain.ErrNotOnlineOrder)
	})
}

func TestOrder_InvalidStateTransitions(t *testing.T) {
	t.Run("cannot pay from NONE", func(t *testing.T) {
		order := createOnlineOrder(t)

		err := order.MarkPaid(time.Now())

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("FAILED is terminal", func(t *testing.T) {
		order := createPendingOrder(t)
		require.NoError(t, order.MarkFailed(time.Now()))

		err := order.MarkPaid(time.Now())

		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
		assert.Nil(t, order.PaidAt)
	})

	t.Run("PAID is terminal", func(t *testing.T) {
		order := createPendingOrder(t)
		require.NoError(t, order.MarkPaid(time.Now()))

		assert.ErrorIs(t, order.MarkFailed(time.Now()), domain.ErrAlreadyTerminal)
		assert.ErrorIs(t, order.MarkPending("sisi-O1", "tok", time.Now()), domain.ErrAlreadyTerminal)
	})
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   domain.PaymentStatus
		terminal bool
	}{
		{domain.StatusNone, false},
		{domain.StatusPending, false},
		{domain.StatusPaid, true},
		{domain.StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestSessionIDs(t *testing.T) {
	t.Run("derivation round trips", func(t *testing.T) {
		sessionID := domain.SessionIDFor(domain.DefaultSessionPrefix, "O1")
		assert.Equal(t, "sisi-O1", sessionID)

		orderID, ok := domain.DeriveOrderID(domain.DefaultSessionPrefix, sessionID)
		assert.True(t, ok)
		assert.Equal(t, "O1", orderID)
	})

	t.Run("foreign session ids yield no hint", func(t *testing.T) {
		for _, s := range []string{"", "sisi-", "other-O1", "O1"} {
			_, ok := domain.DeriveOrderID(domain.DefaultSessionPrefix, s)
			assert.False(t, ok, s)
		}
	})

	t.Run("order keeps its bound session id", func(t *testing.T) {
		order := createOnlineOrder(t)
		assert.Equal(t, "sisi-O1", order.SessionID(domain.DefaultSessionPrefix))

		bound := "legacy-session"
		order.ExternalSessionID = &bound
		assert.Equal(t, "legacy-session", order.SessionID(domain.DefaultSessionPrefix))
	})
}

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"json number", float64(4250), 4250, false},
		{"numeric string", "4250", 4250, false},
		{"whole decimal string", "4250.00", 4250, false},
		{"int", 4250, 4250, false},
		{"fractional number", 42.5, 0, true},
		{"fractional string", "42.50", 0, true},
		{"empty", "", 0, true},
		{"nil", nil, 0, true},
		{"negative", "-1", 0, true},
		{"garbage", "abc", 0, true},
		{"zero padded", "04250", 4250, false},
		{"hex is not decimal", "0x1092", 0, true},
		{"binary is not decimal", "0b1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseMinorUnits(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func createOnlineOrder(t *testing.T) *domain.Order {
	t.Helper()
	money, err := domain.NewMoney(4250, "PLN")
	require.NoError(t, err)
	order, err := domain.NewOrder("O1", money, domain.MethodOnline)
	require.NoError(t, err)
	return order
}

func createPendingOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := createOnlineOrder(t)
	require.NoError(t, order.MarkPending("sisi-O1", "tok-1", time.Now()))
	return order
}

func TestParseGatewayStatus(t *testing.T) {
	tests := map[string]domain.PaymentStatus{
		"success":    domain.StatusPaid,
		"Completed":  domain.StatusPaid,
		" confirmed": domain.StatusPaid,
		"failed":     domain.StatusFailed,
		"REJECTED":   domain.StatusFailed,
		"cancelled":  domain.StatusFailed,
		"canceled":   domain.StatusFailed,
		"chargeback": domain.StatusFailed,
		"pending":    domain.StatusPending,
		"processing": domain.StatusPending,
		"":           domain.StatusPending,
	}

	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, domain.ParseGatewayStatus(raw))
		})
	}
}
