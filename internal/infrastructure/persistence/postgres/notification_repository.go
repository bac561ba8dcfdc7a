package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/jackc/pgx/v5"
)

// NotificationRepository is the append-only log of inbound notifications.
// Rows are never deleted; only the outcome of a received row is updated.
type NotificationRepository struct {
	q Executor
}

func NewNotificationRepository(q Executor) *NotificationRepository {
	return &NotificationRepository{q: q}
}

func (r *NotificationRepository) Append(ctx context.Context, record *domain.NotificationRecord) error {
	query := `
		INSERT INTO payment_notifications (
			id, source, session_id, external_order_id, amount, currency, sign,
			outcome, detail, received_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	m := toNotificationModel(record)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.Source,
		m.SessionID,
		m.ExternalOrderID,
		m.Amount,
		m.Currency,
		m.Sign,
		m.Outcome,
		m.Detail,
		m.ReceivedAt,
		m.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Resolve(ctx context.Context, id string, outcome domain.NotificationOutcome, detail string) error {
	query := `
		UPDATE payment_notifications
		SET outcome = $2, detail = NULLIF($3::text, ''), processed_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, string(outcome), detail)
	if err != nil {
		return fmt.Errorf("failed to resolve notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotificationNotFoundError(id)
	}
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*domain.NotificationRecord, error) {
	query := `
		SELECT id, source, session_id, external_order_id, amount, currency, sign,
		       outcome, detail, received_at, processed_at
		FROM payment_notifications
		WHERE id = $1
	`

	var m NotificationModel
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Source, &m.SessionID, &m.ExternalOrderID, &m.Amount, &m.Currency, &m.Sign,
		&m.Outcome, &m.Detail, &m.ReceivedAt, &m.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotificationNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	return toDomainNotification(m), nil
}
