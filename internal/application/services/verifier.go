package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/signature"
	"github.com/google/uuid"
)

// Verifier authenticates inbound notifications and asks the gateway to
// confirm them before anything is written. The gateway's verify answer is
// the only thing that decides PAID or FAILED.
type Verifier struct {
	reconciler *Reconciler
	gateway    application.GatewayClient
	log        application.NotificationLog
	queue      application.VerificationQueue
	crc        string
	logger     *slog.Logger
	now        func() time.Time
}

func NewVerifier(
	reconciler *Reconciler,
	gateway application.GatewayClient,
	log application.NotificationLog,
	crc string,
	logger *slog.Logger,
) *Verifier {
	return &Verifier{
		reconciler: reconciler,
		gateway:    gateway,
		log:        log,
		crc:        crc,
		logger:     logger,
		now:        time.Now,
	}
}

// WithQueue enables Enqueue. Without a queue every notification is verified inline.
func (v *Verifier) WithQueue(queue application.VerificationQueue) *Verifier {
	v.queue = queue
	return v
}

// Handle logs the notification and verifies it inline.
func (v *Verifier) Handle(ctx context.Context, source domain.NotificationSource, n domain.Notification) (*Outcome, error) {
	record, err := v.record(ctx, source, n)
	if err != nil {
		return nil, err
	}

	outcome, err := v.verify(ctx, source, n)
	v.finish(ctx, record.ID, outcome, err)
	return outcome, err
}

// Enqueue durably logs the notification, checks the signature and hands it
// to the background verifier. It falls back to inline verification when no
// queue is configured. A failed publish leaves the record as received; the
// poller still picks the order up.
func (v *Verifier) Enqueue(ctx context.Context, source domain.NotificationSource, n domain.Notification) (string, error) {
	if v.queue == nil {
		record, err := v.record(ctx, source, n)
		if err != nil {
			return "", err
		}
		outcome, err := v.verify(ctx, source, n)
		v.finish(ctx, record.ID, outcome, err)
		return record.ID, err
	}

	record, err := v.record(ctx, source, n)
	if err != nil {
		return "", err
	}

	if err := v.authenticate(n); err != nil {
		v.finish(ctx, record.ID, nil, err)
		return record.ID, err
	}

	if err := v.queue.Enqueue(ctx, record.ID); err != nil {
		v.logger.Warn("failed to queue notification, leaving it to the poller",
			"notification_id", record.ID,
			"session_id", n.SessionID,
			"error", err,
		)
	}
	return record.ID, nil
}

// ProcessQueued verifies a notification previously stored by Enqueue.
// Records that already have an outcome are skipped.
func (v *Verifier) ProcessQueued(ctx context.Context, notificationID string) (*Outcome, error) {
	record, err := v.log.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if record.Outcome != domain.OutcomeReceived {
		return nil, nil
	}

	outcome, err := v.verify(ctx, record.Source, record.Notification)
	v.finish(ctx, record.ID, outcome, err)
	return outcome, err
}

func (v *Verifier) verify(ctx context.Context, source domain.NotificationSource, n domain.Notification) (*Outcome, error) {
	if err := v.authenticate(n); err != nil {
		return nil, err
	}

	order, err := v.reconciler.Resolve(ctx, n.SessionID, "")
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus.IsTerminal() {
		return &Outcome{
			OrderID:   order.ID,
			SessionID: n.SessionID,
			Status:    order.PaymentStatus,
		}, nil
	}

	if err := v.awaitingPayment(order, n); err != nil {
		return nil, err
	}

	if n.Amount != order.Total.Amount || !strings.EqualFold(n.Currency, order.Total.Currency) {
		v.logger.Warn("notification amount does not match order total",
			"event", "amount_mismatch",
			"order_id", order.ID,
			"session_id", n.SessionID,
			"amount", n.Amount,
			"expected", order.Total.Amount,
		)
		return nil, application.NewAmountMismatchError(order.Total.Amount, n.Amount)
	}

	resp, err := v.gateway.Verify(ctx, application.VerifyRequest{
		SessionID:       n.SessionID,
		ExternalOrderID: n.ExternalOrderID,
		Amount:          n.Amount,
		Currency:        n.Currency,
		Sign:            strings.ToLower(n.Sign),
	})
	if err != nil {
		v.logger.Warn("transaction verify did not complete",
			"order_id", order.ID,
			"session_id", n.SessionID,
			"error", err,
		)
		return nil, gatewayFailure(err)
	}

	result := Result{
		Status:          domain.StatusFailed,
		ExternalOrderID: n.ExternalOrderID,
		Source:          strings.ToLower(string(source)),
	}
	if resp.Confirmed {
		result.Status = domain.StatusPaid
	} else {
		v.logger.Warn("gateway did not confirm transaction",
			"order_id", order.ID,
			"session_id", n.SessionID,
			"detail", resp.Detail,
		)
	}

	return v.reconciler.ApplyResult(ctx, n.SessionID, order.ID, result)
}

// awaitingPayment refuses to confirm a transaction the order never
// registered. Only a PENDING online order may reach the gateway's verify
// endpoint.
func (v *Verifier) awaitingPayment(order *domain.Order, n domain.Notification) error {
	var err error
	switch {
	case !order.IsOnline():
		err = domain.NewNotOnlineOrderError(order.ID, order.PaymentMethod)
	case order.PaymentStatus != domain.StatusPending:
		err = domain.NewInvalidTransitionError(order.PaymentStatus, domain.StatusPaid)
	default:
		return nil
	}

	v.logger.Error("signed notification for an order that is not awaiting payment",
		"event", "unexpected_notification",
		"order_id", order.ID,
		"session_id", n.SessionID,
		"external_order_id", n.ExternalOrderID,
		"payment_method", order.PaymentMethod,
		"status", order.PaymentStatus,
	)
	return application.NewInvalidStateError(err)
}

// authenticate fails closed: a notification missing any signed field is
// treated exactly like one with a bad digest.
func (v *Verifier) authenticate(n domain.Notification) error {
	if err := n.Validate(); err != nil {
		v.logger.Warn("rejecting incomplete notification",
			"event", "signature_mismatch",
			"session_id", n.SessionID,
			"error", err,
		)
		return application.NewAuthenticationFailureError(err)
	}

	fields := signature.VerificationFields(n.SessionID, n.ExternalOrderID, n.Amount, n.Currency, v.crc)
	if !signature.Verify(fields, n.Sign) {
		v.logger.Warn("notification signature mismatch",
			"event", "signature_mismatch",
			"session_id", n.SessionID,
			"external_order_id", n.ExternalOrderID,
			"amount", n.Amount,
		)
		return application.NewAuthenticationFailureError(nil)
	}
	return nil
}

func (v *Verifier) record(ctx context.Context, source domain.NotificationSource, n domain.Notification) (*domain.NotificationRecord, error) {
	record := &domain.NotificationRecord{
		ID:           uuid.New().String(),
		Source:       source,
		Notification: n,
		Outcome:      domain.OutcomeReceived,
		ReceivedAt:   v.now(),
	}
	if err := v.log.Append(ctx, record); err != nil {
		return nil, application.NewInternalError(err)
	}
	return record, nil
}

func (v *Verifier) finish(ctx context.Context, id string, outcome *Outcome, err error) {
	result, detail := classifyOutcome(outcome, err)
	if resolveErr := v.log.Resolve(ctx, id, result, detail); resolveErr != nil {
		v.logger.Error("failed to record notification outcome",
			"notification_id", id,
			"outcome", result,
			"error", resolveErr,
		)
	}
}

func classifyOutcome(outcome *Outcome, err error) (domain.NotificationOutcome, string) {
	switch {
	case err == nil && outcome != nil && outcome.Applied:
		return domain.OutcomeApplied, string(outcome.Status)
	case err == nil && outcome != nil:
		return domain.OutcomeDuplicate, string(outcome.Status)
	case errors.Is(err, application.ErrAuthenticationFailure), errors.Is(err, application.ErrAmountMismatch):
		return domain.OutcomeRejected, err.Error()
	case errors.Is(err, domain.ErrNotOnlineOrder), errors.Is(err, domain.ErrInvalidTransition):
		return domain.OutcomeRejected, err.Error()
	case errors.Is(err, application.ErrOrphanedNotification):
		return domain.OutcomeOrphaned, err.Error()
	case err != nil:
		return domain.OutcomeInconclusive, err.Error()
	}
	return domain.OutcomeInconclusive, ""
}
