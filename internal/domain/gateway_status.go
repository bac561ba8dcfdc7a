package domain

import "strings"

// ParseGatewayStatus maps the gateway's status vocabulary onto a payment
// status. Anything not recognised as definitively paid or failed is PENDING,
// which callers treat as inconclusive.
func ParseGatewayStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "completed", "confirmed", "paid":
		return StatusPaid
	case "failed", "rejected", "cancelled", "canceled", "chargeback":
		return StatusFailed
	default:
		return StatusPending
	}
}
