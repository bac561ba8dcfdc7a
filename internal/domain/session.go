package domain

import "strings"

// DefaultSessionPrefix is prepended to the order id to form the gateway session id.
const DefaultSessionPrefix = "sisi-"

// SessionIDFor derives the gateway session id for an order. It is a pure
// function of the order id, so re-registration always reuses the same value.
func SessionIDFor(prefix, orderID string) string {
	return prefix + orderID
}

// DeriveOrderID recovers the order id from a session id produced by
// SessionIDFor. It is the only place that knows how session ids are built;
// callers use it as the fallback lookup key.
func DeriveOrderID(prefix, sessionID string) (string, bool) {
	sessionID = strings.TrimSpace(sessionID)
	if prefix == "" || !strings.HasPrefix(sessionID, prefix) {
		return "", false
	}
	orderID := strings.TrimPrefix(sessionID, prefix)
	if orderID == "" {
		return "", false
	}
	return orderID, true
}
