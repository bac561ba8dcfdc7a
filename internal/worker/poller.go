package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/application/services"
	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// SweepReport summarizes one reconciliation sweep.
type SweepReport struct {
	Scanned   int `json:"scanned"`
	Paid      int `json:"paid"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// Poller re-drives ONLINE orders that have been PENDING longer than the
// threshold without a notification.
type Poller struct {
	orders    application.OrderRepository
	refresher *services.Refresher
	lock      application.SweepLock
	interval  time.Duration
	threshold time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time

	running atomic.Bool
}

func NewPoller(
	orders application.OrderRepository,
	refresher *services.Refresher,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		orders:    orders,
		refresher: refresher,
		interval:  cfg.Interval,
		threshold: cfg.PendingThreshold,
		batchSize: cfg.BatchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// WithLock makes sweeps exclusive across replicas.
func (p *Poller) WithLock(lock application.SweepLock) *Poller {
	p.lock = lock
	return p
}

func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("starting reconciliation poller",
		"interval", p.interval,
		"threshold", p.threshold,
		"batch_size", p.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping reconciliation poller")
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, application.ErrSweepInProgress) {
				p.logger.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single sweep. It returns a SweepInProgress error when
// another sweep holds the in-process flag or the distributed lock.
func (p *Poller) RunOnce(ctx context.Context) (*SweepReport, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, application.NewSweepInProgressError()
	}
	defer p.running.Store(false)

	if p.lock != nil {
		release, err := p.lock.TryAcquire(ctx)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		if release == nil {
			p.logger.Info("skipping sweep, another replica holds the lock")
			return nil, application.NewSweepInProgressError()
		}
		defer release(context.WithoutCancel(ctx))
	}

	return p.sweep(ctx)
}

func (p *Poller) sweep(ctx context.Context) (*SweepReport, error) {
	cutoff := p.now().Add(-p.threshold)
	stale, err := p.orders.FindStalePending(ctx, cutoff, p.batchSize)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	report := &SweepReport{Scanned: len(stale)}
	if len(stale) == 0 {
		return report, nil
	}

	p.logger.Info("reconciling stale pending orders", "count", len(stale))

	for _, order := range stale {
		if ctx.Err() != nil {
			break
		}

		outcome, err := p.refresher.Refresh(ctx, order)
		if err != nil {
			report.Errors++
			p.logger.Error("reconciliation failed for order",
				"order_id", order.ID,
				"error", err,
			)
			continue
		}

		switch {
		case outcome.Applied && outcome.Status == domain.StatusPaid:
			report.Paid++
		case outcome.Applied && outcome.Status == domain.StatusFailed:
			report.Failed++
		default:
			report.Unchanged++
		}
	}

	p.logger.Info("reconciliation sweep finished",
		"scanned", report.Scanned,
		"paid", report.Paid,
		"failed", report.Failed,
		"unchanged", report.Unchanged,
		"errors", report.Errors,
	)
	return report, nil
}

// RefreshOrder reconciles one order on demand, regardless of its age.
func (p *Poller) RefreshOrder(ctx context.Context, orderID string) (*services.Outcome, error) {
	order, err := p.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOnline() {
		return nil, application.NewInvalidStateError(domain.NewNotOnlineOrderError(order.ID, order.PaymentMethod))
	}
	return p.refresher.Refresh(ctx, order)
}
