package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/application/services"
	"github.com/DanielPopoola/sisi-payments/internal/application/services/testhelpers"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler(t *testing.T) (*services.Reconciler, *testhelpers.MemoryOrders) {
	t.Helper()
	orders := testhelpers.NewMemoryOrders()
	return services.NewReconciler(orders, testhelpers.SessionPrefix, testhelpers.DiscardLogger()), orders
}

func TestReconciler_ApplyResult_PaidStampsPaidAt(t *testing.T) {
	ctx := context.Background()
	reconciler, orders := newReconciler(t)
	testhelpers.SeedPendingOrder(t, orders, "O1", 4250, time.Minute)

	outcome, err := reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{
		Status:          domain.StatusPaid,
		ExternalOrderID: "317000",
		Source:          "test",
	})

	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, "O1", outcome.OrderID)

	saved, err := orders.FindByID(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, saved.PaymentStatus)
	assert.NotNil(t, saved.PaidAt)
	assert.Equal(t, "317000", *saved.ExternalOrderID)
}

func TestReconciler_ApplyResult_TerminalIsNoop(t *testing.T) {
	ctx := context.Background()

	orders := []struct {
		name   string
		first  domain.PaymentStatus
		second domain.PaymentStatus
	}{
		{"paid then failed", domain.StatusPaid, domain.StatusFailed},
		{"failed then paid", domain.StatusFailed, domain.StatusPaid},
		{"paid then paid", domain.StatusPaid, domain.StatusPaid},
		{"failed then pending", domain.StatusFailed, domain.StatusPending},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			reconciler, repo := newReconciler(t)
			testhelpers.SeedPendingOrder(t, repo, "O1", 4250, time.Minute)

			_, err := reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{Status: tt.first})
			require.NoError(t, err)
			before, _ := repo.FindByID(ctx, "O1")

			outcome, err := reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{Status: tt.second})

			require.NoError(t, err)
			assert.False(t, outcome.Applied)
			assert.Equal(t, tt.first, outcome.Status)

			after, _ := repo.FindByID(ctx, "O1")
			assert.Equal(t, tt.first, after.PaymentStatus)
			assert.Equal(t, before.PaidAt, after.PaidAt)
			assert.Equal(t, 1, repo.TerminalWrites("O1"))
		})
	}
}

func TestReconciler_ApplyResult_PendingResultIsNoop(t *testing.T) {
	ctx := context.Background()
	reconciler, orders := newReconciler(t)
	testhelpers.SeedPendingOrder(t, orders, "O1", 4250, time.Minute)

	outcome, err := reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{
		Status:          domain.StatusPending,
		ExternalOrderID: "317000",
	})

	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, domain.StatusPending, outcome.Status)

	saved, _ := orders.FindByID(ctx, "O1")
	assert.Equal(t, domain.StatusPending, saved.PaymentStatus)
	assert.Equal(t, "317000", *saved.ExternalOrderID)
}

func TestReconciler_Resolve_FallsBackToDerivedOrderID(t *testing.T) {
	ctx := context.Background()
	reconciler, orders := newReconciler(t)
	testhelpers.SeedPendingOrder(t, orders, "O1", 4250, time.Minute)
	orders.FindBySessionIDFn = func(_ context.Context, sessionID string) (*domain.Order, error) {
		return nil, domain.NewOrderNotFoundError(sessionID)
	}

	order, err := reconciler.Resolve(ctx, "sisi-O1", "")

	require.NoError(t, err)
	assert.Equal(t, "O1", order.ID)
}

func TestReconciler_Resolve_Orphaned(t *testing.T) {
	ctx := context.Background()
	reconciler, _ := newReconciler(t)

	for _, sessionID := range []string{"sisi-UNKNOWN", "foreign-123", ""} {
		_, err := reconciler.Resolve(ctx, sessionID, "")
		assert.ErrorIs(t, err, application.ErrOrphanedNotification, sessionID)
	}
}

func TestReconciler_ApplyResult_UnregisteredOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	reconciler, orders := newReconciler(t)
	testhelpers.SeedOrder(t, orders, "O1", 4250)

	_, err := reconciler.ApplyResult(ctx, "", "O1", services.Result{Status: domain.StatusPaid})

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	saved, _ := orders.FindByID(ctx, "O1")
	assert.Equal(t, domain.StatusNone, saved.PaymentStatus)
}

func TestReconciler_ConcurrentPaidAndFailed_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		reconciler, orders := newReconciler(t)
		testhelpers.SeedPendingOrder(t, orders, "O1", 4250, time.Minute)

		results := []domain.PaymentStatus{domain.StatusPaid, domain.StatusFailed}
		if i%2 == 1 {
			results[0], results[1] = results[1], results[0]
		}

		var wg sync.WaitGroup
		outcomes := make([]*services.Outcome, len(results))
		errs := make([]error, len(results))
		for j, status := range results {
			wg.Add(1)
			go func(j int, status domain.PaymentStatus) {
				defer wg.Done()
				outcomes[j], errs[j] = reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{Status: status})
			}(j, status)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		saved, err := orders.FindByID(ctx, "O1")
		require.NoError(t, err)

		applied := 0
		for _, o := range outcomes {
			if o.Applied {
				applied++
			}
			assert.Equal(t, saved.PaymentStatus, o.Status, "both callers report the winner")
		}
		assert.Equal(t, 1, applied)
		assert.Equal(t, 1, orders.TerminalWrites("O1"))
		assert.Equal(t, saved.PaymentStatus == domain.StatusPaid, saved.PaidAt != nil)
	}
}

func TestReconciler_DuplicateDeliveries_AnyOrder(t *testing.T) {
	ctx := context.Background()
	reconciler, orders := newReconciler(t)
	testhelpers.SeedPendingOrder(t, orders, "O1", 4250, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reconciler.ApplyResult(ctx, "sisi-O1", "", services.Result{Status: domain.StatusPaid})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	saved, _ := orders.FindByID(ctx, "O1")
	assert.Equal(t, domain.StatusPaid, saved.PaymentStatus)
	assert.Equal(t, 1, orders.TerminalWrites("O1"))
}
