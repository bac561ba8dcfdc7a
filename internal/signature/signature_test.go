package signature_test

import (
	"crypto/md5" //nolint:gosec // test mirrors the gateway protocol
	"encoding/hex"
	"strings"
	"testing"

	"github.com/DanielPopoola/sisi-payments/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "crc-secret"

func TestSign_CanonicalForm(t *testing.T) {
	t.Run("registration tuple omits order id", func(t *testing.T) {
		digest, err := signature.Sign(signature.RegistrationFields("sisi-O1", 4250, "PLN", secret))
		require.NoError(t, err)

		sum := md5.Sum([]byte("sisi-O1|4250|PLN|crc-secret")) //nolint:gosec
		assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	})

	t.Run("verification tuple includes order id", func(t *testing.T) {
		digest, err := signature.Sign(signature.VerificationFields("sisi-O1", "317000", 4250, "PLN", secret))
		require.NoError(t, err)

		sum := md5.Sum([]byte("sisi-O1|317000|4250|PLN|crc-secret")) //nolint:gosec
		assert.Equal(t, hex.EncodeToString(sum[:]), digest)
		assert.Equal(t, strings.ToLower(digest), digest)
	})

	t.Run("variants never collide", func(t *testing.T) {
		reg, err := signature.Sign(signature.RegistrationFields("sisi-O1", 4250, "PLN", secret))
		require.NoError(t, err)
		ver, err := signature.Sign(signature.VerificationFields("sisi-O1", "317000", 4250, "PLN", secret))
		require.NoError(t, err)

		assert.NotEqual(t, reg, ver)
	})
}

func TestSign_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		fields signature.Fields
	}{
		{"no session", signature.RegistrationFields("", 4250, "PLN", secret)},
		{"no amount", signature.RegistrationFields("sisi-O1", 0, "PLN", secret)},
		{"no currency", signature.RegistrationFields("sisi-O1", 4250, "", secret)},
		{"no secret", signature.RegistrationFields("sisi-O1", 4250, "PLN", "")},
		{"verification without order id", signature.VerificationFields("sisi-O1", "", 4250, "PLN", secret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signature.Sign(tt.fields)
			assert.ErrorIs(t, err, signature.ErrMissingField)
			assert.False(t, signature.Verify(tt.fields, "d41d8cd98f00b204e9800998ecf8427e"))
		})
	}
}

func TestVerify_TamperedFields(t *testing.T) {
	original := signature.VerificationFields("sisi-O1", "317000", 4250, "PLN", secret)
	digest, err := signature.Sign(original)
	require.NoError(t, err)

	require.True(t, signature.Verify(original, digest))
	assert.True(t, signature.Verify(original, strings.ToUpper(digest)), "hex case is not significant")

	tampered := map[string]signature.Fields{
		"amount":     signature.VerificationFields("sisi-O1", "317000", 1, "PLN", secret),
		"session id": signature.VerificationFields("sisi-O2", "317000", 4250, "PLN", secret),
		"order id":   signature.VerificationFields("sisi-O1", "317001", 4250, "PLN", secret),
		"currency":   signature.VerificationFields("sisi-O1", "317000", 4250, "EUR", secret),
		"secret":     signature.VerificationFields("sisi-O1", "317000", 4250, "PLN", "guess"),
	}

	for name, fields := range tampered {
		t.Run(name, func(t *testing.T) {
			assert.False(t, signature.Verify(fields, digest))
		})
	}

	t.Run("empty digest", func(t *testing.T) {
		assert.False(t, signature.Verify(original, ""))
	})
}
