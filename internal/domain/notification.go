package domain

import "time"

// NotificationSource tells which entry point delivered a notification.
type NotificationSource string

const (
	SourceWebhook NotificationSource = "WEBHOOK"
	SourceReturn  NotificationSource = "RETURN"
)

// NotificationOutcome is the audit state of one inbound notification.
type NotificationOutcome string

const (
	OutcomeReceived     NotificationOutcome = "received"
	OutcomeRejected     NotificationOutcome = "rejected"
	OutcomeOrphaned     NotificationOutcome = "orphaned"
	OutcomeInconclusive NotificationOutcome = "inconclusive"
	OutcomeApplied      NotificationOutcome = "applied"
	OutcomeDuplicate    NotificationOutcome = "duplicate"
)

// Notification is the normalized field set every gateway callback is reduced to.
type Notification struct {
	SessionID       string `json:"session_id"`
	ExternalOrderID string `json:"external_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Sign            string `json:"sign"`
}

// Validate checks that every field needed to verify the notification is present.
func (n Notification) Validate() error {
	switch {
	case n.SessionID == "":
		return NewMissingRequiredFieldError("session id")
	case n.ExternalOrderID == "":
		return NewMissingRequiredFieldError("order id")
	case n.Currency == "":
		return NewMissingRequiredFieldError("currency")
	case n.Sign == "":
		return NewMissingRequiredFieldError("sign")
	case n.Amount <= 0:
		return NewInvalidAmountError(n.Amount)
	}
	return nil
}

// NotificationRecord is the audit log entry of an inbound notification.
type NotificationRecord struct {
	ID           string
	Source       NotificationSource
	Notification Notification
	Outcome      NotificationOutcome
	Detail       *string
	ReceivedAt   time.Time
	ProcessedAt  *time.Time
}
