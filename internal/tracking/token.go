// Package tracking issues the tokens that let an anonymous visitor read the
// payment status of one order from the return page.
package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrInvalidToken = errors.New("invalid tracking token")

type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("tracking secret must be at least 16 bytes")
	}
	return &Issuer{secret: []byte(secret)}, nil
}

// Issue returns hex(HMAC-SHA256(secret, orderID)).
func (i *Issuer) Issue(orderID string) string {
	return hex.EncodeToString(i.mac(orderID))
}

// Verify checks a token against the order id in constant time.
func (i *Issuer) Verify(orderID, token string) error {
	if orderID == "" || token == "" {
		return ErrInvalidToken
	}
	given, err := hex.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal(i.mac(orderID), given) {
		return ErrInvalidToken
	}
	return nil
}

func (i *Issuer) mac(orderID string) []byte {
	m := hmac.New(sha256.New, i.secret)
	m.Write([]byte(orderID))
	return m.Sum(nil)
}
