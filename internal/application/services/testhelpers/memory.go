package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// MemoryOrders is a thread-safe in-memory OrderRepository with the same
// guarded-update semantics as the Postgres store.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// Writes counts successful terminal transitions per order.
	Writes map[string]int
	// FindBySessionIDFn overrides lookups by session id when set.
	FindBySessionIDFn func(ctx context.Context, sessionID string) (*domain.Order, error)
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		orders: make(map[string]*domain.Order),
		Writes: make(map[string]int),
	}
}

func (m *MemoryOrders) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MemoryOrders) FindByID(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, domain.NewOrderNotFoundError(orderID)
	}
	return cloneOrder(order), nil
}

func (m *MemoryOrders) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	if m.FindBySessionIDFn != nil {
		return m.FindBySessionIDFn(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.ExternalSessionID != nil && *order.ExternalSessionID == sessionID {
			return cloneOrder(order), nil
		}
	}
	return nil, domain.NewOrderNotFoundError(sessionID)
}

func (m *MemoryOrders) MarkPending(_ context.Context, order *domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.orders[order.ID]
	if !ok {
		return false, domain.NewOrderNotFoundError(order.ID)
	}
	if current.PaymentStatus != domain.StatusNone && current.PaymentStatus != domain.StatusPending {
		return false, nil
	}
	next := cloneOrder(current)
	if next.ExternalSessionID == nil {
		next.ExternalSessionID = order.ExternalSessionID
	}
	next.PaymentToken = order.PaymentToken
	if next.PendingSince == nil {
		next.PendingSince = order.PendingSince
	}
	next.PaymentStatus = domain.StatusPending
	next.UpdatedAt = order.UpdatedAt
	m.orders[order.ID] = next
	return true, nil
}

func (m *MemoryOrders) CompletePending(_ context.Context, orderID string, status domain.PaymentStatus, externalOrderID string, at time.Time) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.orders[orderID]
	if !ok {
		return nil, false, domain.NewOrderNotFoundError(orderID)
	}
	if current.PaymentStatus != domain.StatusPending {
		return nil, false, nil
	}

	next := cloneOrder(current)
	var err error
	if status == domain.StatusPaid {
		err = next.MarkPaid(at)
	} else {
		err = next.MarkFailed(at)
	}
	if err != nil {
		return nil, false, err
	}
	if externalOrderID != "" && next.ExternalOrderID == nil {
		next.ExternalOrderID = &externalOrderID
	}

	m.orders[orderID] = next
	m.Writes[orderID]++
	return cloneOrder(next), true, nil
}

func (m *MemoryOrders) RecordExternalOrderID(_ context.Context, orderID, externalOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.orders[orderID]
	if !ok {
		return domain.NewOrderNotFoundError(orderID)
	}
	if current.ExternalOrderID == nil {
		current.ExternalOrderID = &externalOrderID
	}
	return nil
}

func (m *MemoryOrders) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []*domain.Order
	for _, order := range m.orders {
		if order.IsOnline() && order.PaymentStatus == domain.StatusPending &&
			order.PendingSince != nil && order.PendingSince.Before(cutoff) {
			stale = append(stale, cloneOrder(order))
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].PendingSince.Before(*stale[j].PendingSince)
	})
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// TerminalWrites returns how many terminal transitions were written for an order.
func (m *MemoryOrders) TerminalWrites(orderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes[orderID]
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.ExternalSessionID = clonePtr(o.ExternalSessionID)
	c.ExternalOrderID = clonePtr(o.ExternalOrderID)
	c.PaymentToken = clonePtr(o.PaymentToken)
	c.PaidAt = clonePtr(o.PaidAt)
	c.PendingSince = clonePtr(o.PendingSince)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MemoryNotifications is an in-memory NotificationLog.
type MemoryNotifications struct {
	mu      sync.Mutex
	records map[string]*domain.NotificationRecord
}

func NewMemoryNotifications() *MemoryNotifications {
	return &MemoryNotifications{records: make(map[string]*domain.NotificationRecord)}
}

func (m *MemoryNotifications) Append(_ context.Context, record *domain.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *record
	m.records[record.ID] = &c
	return nil
}

func (m *MemoryNotifications) Resolve(_ context.Context, id string, outcome domain.NotificationOutcome, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return domain.NewNotificationNotFoundError(id)
	}
	now := time.Now()
	record.Outcome = outcome
	record.Detail = &detail
	record.ProcessedAt = &now
	return nil
}

func (m *MemoryNotifications) FindByID(_ context.Context, id string) (*domain.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, domain.NewNotificationNotFoundError(id)
	}
	c := *record
	return &c, nil
}

// Outcomes lists the recorded outcome of every notification.
func (m *MemoryNotifications) Outcomes() []domain.NotificationOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.NotificationOutcome, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Outcome)
	}
	return out
}
