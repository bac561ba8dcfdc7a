package tracking_test

import (
	"testing"

	"github.com/DanielPopoola/sisi-payments/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer, err := tracking.NewIssuer("0123456789abcdef-tracking")
	require.NoError(t, err)

	t.Run("issued token verifies", func(t *testing.T) {
		token := issuer.Issue("O1")

		assert.Len(t, token, 64)
		assert.NoError(t, issuer.Verify("O1", token))
	})

	t.Run("token is bound to its order", func(t *testing.T) {
		token := issuer.Issue("O1")

		assert.ErrorIs(t, issuer.Verify("O2", token), tracking.ErrInvalidToken)
	})

	t.Run("token is bound to the secret", func(t *testing.T) {
		other, err := tracking.NewIssuer("another-secret-of-length")
		require.NoError(t, err)

		assert.ErrorIs(t, other.Verify("O1", issuer.Issue("O1")), tracking.ErrInvalidToken)
	})

	t.Run("malformed tokens are rejected", func(t *testing.T) {
		for _, token := range []string{"", "zz", issuer.Issue("O1")[:10]} {
			assert.ErrorIs(t, issuer.Verify("O1", token), tracking.ErrInvalidToken)
		}
	})
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := tracking.NewIssuer("short")
	assert.Error(t, err)
}
