package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application/services"
)

// QueueSubscriber delivers queued notification ids. The returned func stops
// delivery.
type QueueSubscriber interface {
	Subscribe(handler func(notificationID string)) (func() error, error)
}

type queuedVerifier interface {
	ProcessQueued(ctx context.Context, notificationID string) (*services.Outcome, error)
}

// VerifyConsumer finishes notifications the webhook acknowledged in async mode.
type VerifyConsumer struct {
	subscriber QueueSubscriber
	verifier   queuedVerifier
	timeout    time.Duration
	logger     *slog.Logger
}

func NewVerifyConsumer(subscriber QueueSubscriber, verifier queuedVerifier, timeout time.Duration, logger *slog.Logger) *VerifyConsumer {
	return &VerifyConsumer{
		subscriber: subscriber,
		verifier:   verifier,
		timeout:    timeout,
		logger:     logger,
	}
}

// Start consumes until ctx is done. A message whose verification fails is
// logged as inconclusive and the poller re-drives the order later.
func (c *VerifyConsumer) Start(ctx context.Context) error {
	stop, err := c.subscriber.Subscribe(func(notificationID string) {
		c.handle(ctx, notificationID)
	})
	if err != nil {
		return err
	}

	c.logger.Info("verification consumer started")
	<-ctx.Done()

	c.logger.Info("stopping verification consumer")
	return stop()
}

func (c *VerifyConsumer) handle(ctx context.Context, notificationID string) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outcome, err := c.verifier.ProcessQueued(ctx, notificationID)
	if err != nil {
		c.logger.Error("queued verification failed",
			"notification_id", notificationID,
			"error", err,
		)
		return
	}
	if outcome == nil {
		c.logger.Debug("notification already processed", "notification_id", notificationID)
		return
	}

	c.logger.Info("queued notification verified",
		"notification_id", notificationID,
		"order_id", outcome.OrderID,
		"status", outcome.Status,
		"applied", outcome.Applied,
	)
}
