package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	order_id, total_amount, currency, payment_method, payment_status,
	external_session_id, external_order_id, payment_token,
	paid_at, pending_since, created_at, updated_at`

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(q Executor) *OrderRepository {
	return &OrderRepository{q: q}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	m := toOrderModel(order)
	_, err := r.q.Exec(ctx, query,
		m.OrderID,
		m.TotalAmount,
		m.Currency,
		m.PaymentMethod,
		m.PaymentStatus,
		m.ExternalSessionID,
		m.ExternalOrderID,
		m.PaymentToken,
		m.PaidAt,
		m.PendingSince,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("order %s already exists: %w", order.ID, err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewOrderNotFoundError(orderID)
	}
	return order, err
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE external_session_id = $1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewOrderNotFoundError(sessionID)
	}
	return order, err
}

// MarkPending writes a registration. The session id and pending_since are
// only set when still empty.
func (r *OrderRepository) MarkPending(ctx context.Context, order *domain.Order) (bool, error) {
	query := `
		UPDATE orders
		SET external_session_id = COALESCE(external_session_id, $2),
		    payment_token = $3,
		    pending_since = COALESCE(pending_since, $4),
		    payment_status = 'PENDING',
		    updated_at = $5
		WHERE order_id = $1
		  AND payment_status IN ('NONE', 'PENDING')
	`

	m := toOrderModel(order)
	tag, err := r.q.Exec(ctx, query,
		m.OrderID,
		m.ExternalSessionID,
		m.PaymentToken,
		m.PendingSince,
		m.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark order pending: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if err := r.exists(ctx, order.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// CompletePending is the only statement that moves an order out of PENDING.
// Concurrent callers race on the WHERE clause and exactly one wins.
func (r *OrderRepository) CompletePending(ctx context.Context, orderID string, status domain.PaymentStatus, externalOrderID string, at time.Time) (*domain.Order, bool, error) {
	if !status.IsTerminal() {
		return nil, false, domain.NewInvalidTransitionError(domain.StatusPending, status)
	}

	query := `
		UPDATE orders
		SET payment_status = $2,
		    paid_at = CASE WHEN $2::text = 'PAID' THEN $4::timestamptz ELSE NULL END,
		    external_order_id = COALESCE(external_order_id, NULLIF($3::text, '')),
		    updated_at = $4
		WHERE order_id = $1
		  AND payment_status = 'PENDING'
		RETURNING ` + orderColumns

	order, err := scanOrder(r.q.QueryRow(ctx, query, orderID, string(status), externalOrderID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if err := r.exists(ctx, orderID); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to complete pending order: %w", err)
	}

	return order, true, nil
}

func (r *OrderRepository) RecordExternalOrderID(ctx context.Context, orderID, externalOrderID string) error {
	query := `
		UPDATE orders
		SET external_order_id = $2, updated_at = NOW()
		WHERE order_id = $1
		  AND external_order_id IS NULL
	`

	tag, err := r.q.Exec(ctx, query, orderID, externalOrderID)
	if err != nil {
		return fmt.Errorf("failed to record external order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.exists(ctx, orderID)
	}
	return nil
}

// FindStalePending finds ONLINE orders that have been PENDING since before the cutoff
func (r *OrderRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment_method = 'ONLINE'
		  AND payment_status = 'PENDING'
		  AND pending_since < $1
		ORDER BY pending_since ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale pending orders: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale pending orders: %w", err)
	}

	return results, nil
}

func (r *OrderRepository) exists(ctx context.Context, orderID string) error {
	var found bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`, orderID).Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !found {
		return domain.NewOrderNotFoundError(orderID)
	}
	return nil
}

// scanOrder converts a database row into a domain Order. pgx.ErrNoRows is
// returned unwrapped so callers can map it.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.OrderID, &m.TotalAmount, &m.Currency, &m.PaymentMethod, &m.PaymentStatus,
		&m.ExternalSessionID, &m.ExternalOrderID, &m.PaymentToken,
		&m.PaidAt, &m.PendingSince, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toDomainOrder(m), nil
}
