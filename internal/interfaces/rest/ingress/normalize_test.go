package ingress_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/ingress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var want = domain.Notification{
	SessionID:       "sisi-O1",
	ExternalOrderID: "317000",
	Amount:          4250,
	Currency:        "PLN",
	Sign:            "abc123",
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.Boundary()
}

func TestParse_Encodings(t *testing.T) {
	form := url.Values{
		"sessionId": {"sisi-O1"},
		"orderId":   {"317000"},
		"amount":    {"4250"},
		"currency":  {"PLN"},
		"sign":      {"abc123"},
	}

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"form", "application/x-www-form-urlencoded", form.Encode()},
		{"json numbers", "application/json", `{"sessionId":"sisi-O1","orderId":317000,"amount":4250,"currency":"PLN","sign":"abc123"}`},
		{"json strings", "application/json; charset=utf-8", `{"sessionId":"sisi-O1","orderId":"317000","amount":"4250","currency":"pln","sign":"abc123"}`},
		{"legacy names", "application/x-www-form-urlencoded", "p24_session_id=sisi-O1&p24_order_id=317000&p24_amount=4250&p24_currency=PLN&p24_sign=abc123"},
		{"snake case session", "application/x-www-form-urlencoded", "session_id=sisi-O1&external_order_id=317000&amount=4250&currency=PLN&sign=abc123"},
		{"json sent as text", "text/plain", `{"sessionId":"sisi-O1","orderId":317000,"amount":4250,"currency":"PLN","sign":"abc123"}`},
		{"form without content type", "", form.Encode()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payments/notify", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			cb, err := ingress.Parse(req, 0)

			require.NoError(t, err)
			assert.Equal(t, want, cb.Notification)
			assert.True(t, cb.HasNotification())
		})
	}
}

func TestParse_Multipart(t *testing.T) {
	body, boundary := multipartBody(t, map[string]string{
		"sessionId": "sisi-O1",
		"orderId":   "317000",
		"amount":    "4250",
		"currency":  "PLN",
		"sign":      "abc123",
	})

	t.Run("declared boundary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/return", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

		cb, err := ingress.Parse(req, 0)

		require.NoError(t, err)
		assert.Equal(t, want, cb.Notification)
	})

	t.Run("boundary missing from header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/return", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", "multipart/form-data")

		cb, err := ingress.Parse(req, 0)

		require.NoError(t, err)
		assert.Equal(t, want, cb.Notification)
	})
}

func TestParse_QueryFillsGaps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/payments/return?order_id=O1&token=tok&sessionId=sisi-O1&orderId=317000&amount=4250&currency=PLN&sign=abc123", nil)

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.Equal(t, want, cb.Notification)
	assert.Equal(t, "O1", cb.OrderID)
	assert.Equal(t, "tok", cb.Token)
}

func TestParse_BodyWinsOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost,
		"/payments/return?order_id=O1&token=tok&sessionId=sisi-OTHER",
		strings.NewReader(`{"sessionId":"sisi-O1"}`))
	req.Header.Set("Content-Type", "application/json")

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.Equal(t, "sisi-O1", cb.Notification.SessionID)
	assert.Equal(t, "O1", cb.OrderID)
}

// ===== EDGE CASES =====

func TestParse_ReturnWithoutGatewayFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payments/return?order_id=O1&token=tok", nil)

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.False(t, cb.HasNotification())
	assert.Equal(t, "O1", cb.OrderID)
}

func TestParse_LocalOrderIDIsNotTheExternalOne(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payments/return?order_id=O1", nil)

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.Empty(t, cb.Notification.ExternalOrderID)
}

func TestParse_FractionalAmountIsDropped(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/payments/notify",
		strings.NewReader(`{"sessionId":"sisi-O1","amount":42.5}`))
	req.Header.Set("Content-Type", "application/json")

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.Zero(t, cb.Notification.Amount)
}

func TestParse_BodyTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/payments/notify", strings.NewReader(strings.Repeat("a", 65)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := ingress.Parse(req, 64)

	assert.ErrorIs(t, err, ingress.ErrBodyTooLarge)
}

func TestParse_GarbageBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/payments/notify", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	cb, err := ingress.Parse(req, 0)

	require.NoError(t, err)
	assert.False(t, cb.HasNotification())
}
