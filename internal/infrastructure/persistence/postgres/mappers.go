package postgres

import (
	"github.com/DanielPopoola/sisi-payments/internal/domain"
)

// toDomainOrder: maps db model to domain entity
func toDomainOrder(m OrderModel) *domain.Order {
	return &domain.Order{
		ID:                m.OrderID,
		Total:             domain.Money{Amount: m.TotalAmount, Currency: m.Currency},
		PaymentMethod:     domain.PaymentMethod(m.PaymentMethod),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		ExternalSessionID: m.ExternalSessionID,
		ExternalOrderID:   m.ExternalOrderID,
		PaymentToken:      m.PaymentToken,
		PaidAt:            m.PaidAt,
		PendingSince:      m.PendingSince,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// toOrderModel: maps domain entity to db model
func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		OrderID:           o.ID,
		TotalAmount:       o.Total.Amount,
		Currency:          o.Total.Currency,
		PaymentMethod:     string(o.PaymentMethod),
		PaymentStatus:     string(o.PaymentStatus),
		ExternalSessionID: o.ExternalSessionID,
		ExternalOrderID:   o.ExternalOrderID,
		PaymentToken:      o.PaymentToken,
		PaidAt:            o.PaidAt,
		PendingSince:      o.PendingSince,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toDomainNotification(m NotificationModel) *domain.NotificationRecord {
	return &domain.NotificationRecord{
		ID:     m.ID,
		Source: domain.NotificationSource(m.Source),
		Notification: domain.Notification{
			SessionID:       deref(m.SessionID),
			ExternalOrderID: deref(m.ExternalOrderID),
			Amount:          deref(m.Amount),
			Currency:        deref(m.Currency),
			Sign:            deref(m.Sign),
		},
		Outcome:     domain.NotificationOutcome(m.Outcome),
		Detail:      m.Detail,
		ReceivedAt:  m.ReceivedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

func toNotificationModel(r *domain.NotificationRecord) *NotificationModel {
	n := r.Notification
	return &NotificationModel{
		ID:              r.ID,
		Source:          string(r.Source),
		SessionID:       nullable(n.SessionID),
		ExternalOrderID: nullable(n.ExternalOrderID),
		Amount:          nullable(n.Amount),
		Currency:        nullable(n.Currency),
		Sign:            nullable(n.Sign),
		Outcome:         string(r.Outcome),
		Detail:          r.Detail,
		ReceivedAt:      r.ReceivedAt,
		ProcessedAt:     r.ProcessedAt,
	}
}

func nullable[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
