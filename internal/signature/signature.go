// Package signature computes and checks the gateway's request signatures.
//
// The legacy protocol signs a pipe-joined tuple with MD5:
//
//	registration: session_id|amount|currency|crc
//	verification: session_id|order_id|amount|currency|crc
//
// Amounts are integer minor units so both sides format them identically.
package signature

import (
	"crypto/md5" //nolint:gosec // mandated by the gateway protocol
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

var ErrMissingField = errors.New("signature field missing")

// Variant selects which tuple layout is signed.
type Variant int

const (
	Registration Variant = iota
	Verification
)

func (v Variant) String() string {
	if v == Verification {
		return "verification"
	}
	return "registration"
}

// Fields is the ordered tuple the digest is computed over. OrderID is only
// part of the verification variant.
type Fields struct {
	Variant   Variant
	SessionID string
	OrderID   string
	Amount    int64
	Currency  string
	Secret    string
}

// RegistrationFields builds the tuple signed when registering a transaction.
func RegistrationFields(sessionID string, amount int64, currency, secret string) Fields {
	return Fields{
		Variant:   Registration,
		SessionID: sessionID,
		Amount:    amount,
		Currency:  currency,
		Secret:    secret,
	}
}

// VerificationFields builds the tuple carried by notifications and verify calls.
func VerificationFields(sessionID, orderID string, amount int64, currency, secret string) Fields {
	return Fields{
		Variant:   Verification,
		SessionID: sessionID,
		OrderID:   orderID,
		Amount:    amount,
		Currency:  currency,
		Secret:    secret,
	}
}

func (f Fields) canonical() (string, error) {
	if f.SessionID == "" || f.Currency == "" || f.Secret == "" || f.Amount <= 0 {
		return "", ErrMissingField
	}

	parts := []string{f.SessionID}
	if f.Variant == Verification {
		if f.OrderID == "" {
			return "", ErrMissingField
		}
		parts = append(parts, f.OrderID)
	}
	parts = append(parts, strconv.FormatInt(f.Amount, 10), f.Currency, f.Secret)

	return strings.Join(parts, "|"), nil
}

// Sign returns the lower-case hex digest of the tuple.
func Sign(f Fields) (string, error) {
	payload, err := f.canonical()
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(payload)) //nolint:gosec // mandated by the gateway protocol
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares it in constant time. A tuple that
// cannot be signed never verifies.
func Verify(f Fields, digest string) bool {
	expected, err := Sign(f)
	if err != nil || digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(digest))) == 1
}
