// Package ingress reduces gateway callbacks to a domain.Notification no matter
// how the gateway chose to encode them.
package ingress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/spf13/cast"
)

// DefaultMaxBody bounds how much of a callback body is read.
const DefaultMaxBody = 64 << 10

var ErrBodyTooLarge = errors.New("callback body too large")

var (
	sessionKeys  = []string{"sessionId", "session_id", "p24_session_id"}
	orderKeys    = []string{"orderId", "p24_order_id", "external_order_id"}
	amountKeys   = []string{"amount", "p24_amount"}
	currencyKeys = []string{"currency", "p24_currency"}
	signKeys     = []string{"sign", "p24_sign"}
)

// Callback is a normalized inbound callback. OrderID and Token come from the
// return URL this service handed to the gateway; they are never part of the
// signed set.
type Callback struct {
	Notification domain.Notification
	OrderID      string
	Token        string
}

// HasNotification reports whether the callback carried any gateway field.
// Browser returns often carry none.
func (c *Callback) HasNotification() bool {
	n := c.Notification
	return n.SessionID != "" || n.ExternalOrderID != "" || n.Sign != ""
}

type values map[string]any

func (v values) pick(keys ...string) (any, bool) {
	for _, k := range keys {
		if raw, ok := v[k]; ok && raw != nil && cast.ToString(raw) != "" {
			return raw, true
		}
	}
	return nil, false
}

func (v values) str(keys ...string) string {
	raw, ok := v.pick(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cast.ToString(raw))
}

// Parse reads the request body once and tries every encoding the gateway
// is known to use, starting with the declared content type. Query
// parameters fill in whatever the body did not carry. An amount that cannot
// be coerced is left at zero so the notification fails authentication.
func Parse(r *http.Request, maxBody int64) (*Callback, error) {
	body, err := readBody(r, maxBody)
	if err != nil {
		return nil, err
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	fields := values{}
	for _, decode := range decoders(mediaType) {
		if decoded := decode(body, params); len(decoded) > 0 {
			fields = decoded
			break
		}
	}

	for key, vals := range r.URL.Query() {
		if _, ok := fields[key]; !ok && len(vals) > 0 {
			fields[key] = vals[0]
		}
	}

	cb := &Callback{
		Notification: domain.Notification{
			SessionID:       fields.str(sessionKeys...),
			ExternalOrderID: fields.str(orderKeys...),
			Currency:        strings.ToUpper(fields.str(currencyKeys...)),
			Sign:            fields.str(signKeys...),
		},
		OrderID: fields.str("order_id"),
		Token:   fields.str("token"),
	}
	if raw, ok := fields.pick(amountKeys...); ok {
		if amount, err := domain.ParseMinorUnits(raw); err == nil {
			cb.Notification.Amount = amount
		}
	}
	return cb, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read callback body: %w", err)
	}
	if int64(len(body)) > maxBody {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

type decoder func(body []byte, params map[string]string) values

func decoders(mediaType string) []decoder {
	all := []decoder{decodeForm, decodeMultipart, decodeJSON}
	var first decoder
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		first = decodeForm
	case strings.HasPrefix(mediaType, "multipart/"):
		first = decodeMultipart
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		first = decodeJSON
	default:
		return all
	}
	return append([]decoder{first}, all...)
}

func decodeJSON(body []byte, _ map[string]string) values {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	return fields
}

func decodeForm(body []byte, _ map[string]string) values {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' || bytes.HasPrefix(trimmed, []byte("--")) {
		return nil
	}
	parsed, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil
	}
	fields := values{}
	for key, vals := range parsed {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

// decodeMultipart uses the declared boundary, or recovers it from the first
// delimiter line when the gateway sent a bare content type.
func decodeMultipart(body []byte, params map[string]string) values {
	boundary := params["boundary"]
	if boundary == "" {
		boundary = sniffBoundary(body)
	}
	if boundary == "" {
		return nil
	}

	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(int64(len(body)) + 1)
	if err != nil {
		return nil
	}
	defer func() { _ = form.RemoveAll() }()

	fields := values{}
	for key, vals := range form.Value {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

func sniffBoundary(body []byte) string {
	trimmed := bytes.TrimLeft(body, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte("--")) {
		return ""
	}
	line, _, _ := bytes.Cut(trimmed[2:], []byte("\n"))
	return strings.TrimSpace(string(bytes.TrimSuffix(line, []byte("\r"))))
}
