package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cast"
)

const (
	registerPath        = "/api/v1/transaction/register"
	verifyPath          = "/api/v1/transaction/verify"
	bySessionIDPath     = "/api/v1/transaction/by/sessionId/{id}"
	byOrderIDPath       = "/api/v1/transaction/by/orderId/{id}"
	paymentPagePathTmpl = "/trnRequest/%s"
)

// Client talks to the gateway's REST API with form-encoded requests and HTTP
// basic auth (pos id : api key).
type Client struct {
	http       *resty.Client
	baseURL    string
	merchantID string
	posID      string
	language   string
}

func NewClient(cfg config.GatewayConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.PosID, cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		merchantID: cfg.MerchantID,
		posID:      cfg.PosID,
		language:   cfg.Language,
	}
}

func (c *Client) Register(ctx context.Context, req application.RegisterRequest) (*application.RegisterResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"merchantId":  c.merchantID,
			"posId":       c.posID,
			"sessionId":   req.SessionID,
			"amount":      strconv.FormatInt(req.Amount, 10),
			"currency":    req.Currency,
			"description": req.Description,
			"email":       req.Email,
			"language":    c.language,
			"urlReturn":   req.ReturnURL,
			"urlStatus":   req.StatusURL,
			"sign":        req.Sign,
		}).
		Post(registerPath)
	if err != nil {
		return nil, &GatewayError{Operation: "register", Err: err}
	}
	if resp.IsError() {
		return nil, responseError("register", resp)
	}

	var token string
	if isJSON(resp) {
		env, err := decodeEnvelope(resp)
		if err != nil {
			return nil, &GatewayError{Operation: "register", StatusCode: resp.StatusCode(), Code: "malformed_response", Message: err.Error()}
		}
		var data registerData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return nil, &GatewayError{Operation: "register", StatusCode: resp.StatusCode(), Code: "malformed_response", Message: err.Error()}
			}
		}
		token = data.Token
	} else {
		values, _ := url.ParseQuery(strings.TrimSpace(resp.String()))
		token = values.Get("token")
	}

	if token == "" {
		return nil, &GatewayError{
			Operation:  "register",
			StatusCode: resp.StatusCode(),
			Code:       "missing_token",
			Message:    "register response carried no payment token",
		}
	}

	return &application.RegisterResponse{
		Token:       token,
		RedirectURL: c.PaymentPageURL(token),
	}, nil
}

// PaymentPageURL is where the customer is sent to pay.
func (c *Client) PaymentPageURL(token string) string {
	return c.baseURL + fmt.Sprintf(paymentPagePathTmpl, url.PathEscape(token))
}

// Verify asks the gateway to confirm a notified transaction. Both the legacy
// "error=0" body and the JSON {data:{status:"success"}} body count as
// confirmed. A 400/422 answer is a definitive refusal, not an error.
func (c *Client) Verify(ctx context.Context, req application.VerifyRequest) (*application.VerifyResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"merchantId": c.merchantID,
			"posId":      c.posID,
			"sessionId":  req.SessionID,
			"orderId":    req.ExternalOrderID,
			"amount":     strconv.FormatInt(req.Amount, 10),
			"currency":   req.Currency,
			"sign":       req.Sign,
		}).
		Put(verifyPath)
	if err != nil {
		return nil, &GatewayError{Operation: "verify", Err: err}
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		gwErr := responseError("verify", resp)
		return &application.VerifyResponse{Confirmed: false, Detail: gwErr.Message}, nil
	case resp.IsError():
		return nil, responseError("verify", resp)
	}

	if isJSON(resp) {
		env, err := decodeEnvelope(resp)
		if err != nil {
			return nil, &GatewayError{Operation: "verify", StatusCode: resp.StatusCode(), Code: "malformed_response", Message: err.Error()}
		}
		var data verifyData
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &data)
		}
		if strings.EqualFold(data.Status, "success") {
			return &application.VerifyResponse{Confirmed: true}, nil
		}
		if data.Status == "" && env.Error != nil && cast.ToString(env.Error) == "0" {
			return &application.VerifyResponse{Confirmed: true}, nil
		}
		return &application.VerifyResponse{Confirmed: false, Detail: "status " + data.Status}, nil
	}

	values, _ := url.ParseQuery(strings.TrimSpace(resp.String()))
	if values.Has("error") && values.Get("error") == "0" {
		return &application.VerifyResponse{Confirmed: true}, nil
	}
	return &application.VerifyResponse{Confirmed: false, Detail: values.Get("errorMessage")}, nil
}

func (c *Client) StatusBySessionID(ctx context.Context, sessionID string) (*application.TransactionStatus, error) {
	return c.status(ctx, "status_by_session", bySessionIDPath, sessionID)
}

func (c *Client) StatusByOrderID(ctx context.Context, externalOrderID string) (*application.TransactionStatus, error) {
	return c.status(ctx, "status_by_order", byOrderIDPath, externalOrderID)
}

func (c *Client) status(ctx context.Context, op, path, id string) (*application.TransactionStatus, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get(path)
	if err != nil {
		return nil, &GatewayError{Operation: op, Err: err}
	}
	if resp.IsError() {
		return nil, responseError(op, resp)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, &GatewayError{Operation: op, StatusCode: resp.StatusCode(), Code: "malformed_response", Message: err.Error()}
	}

	var data transactionData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &GatewayError{Operation: op, StatusCode: resp.StatusCode(), Code: "malformed_response", Message: err.Error()}
		}
	}

	// An amount the gateway omitted or garbled is left at zero, which
	// callers read as unknown.
	amount, _ := domain.ParseMinorUnits(data.Amount)

	return &application.TransactionStatus{
		SessionID:       data.SessionID,
		ExternalOrderID: cast.ToString(data.OrderID),
		RawStatus:       rawStatus(data.Status),
		Amount:          amount,
	}, nil
}

// rawStatus renders numeric status codes into the textual vocabulary.
// 0 and 1 are "no payment yet" and "advance payment", 2 is a settled payment.
func rawStatus(v any) string {
	switch s := v.(type) {
	case float64:
		switch int(s) {
		case 0, 1:
			return "pending"
		case 2:
			return "success"
		case 3:
			return "returned"
		}
		return strconv.Itoa(int(s))
	case string:
		return s
	case nil:
		return ""
	}
	return cast.ToString(v)
}

func isJSON(resp *resty.Response) bool {
	if strings.Contains(resp.Header().Get("Content-Type"), "json") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(resp.Body()), []byte("{"))
}

func decodeEnvelope(resp *resty.Response) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resp.Request.URL, err)
	}
	return &env, nil
}

func responseError(op string, resp *resty.Response) *GatewayError {
	gwErr := &GatewayError{
		Operation:  op,
		StatusCode: resp.StatusCode(),
		Code:       strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode()), " ", "_")),
		Message:    strings.TrimSpace(resp.String()),
	}

	if isJSON(resp) {
		if env, err := decodeEnvelope(resp); err == nil {
			if env.Code != nil {
				gwErr.Code = cast.ToString(env.Code)
			}
			if env.Error != nil {
				gwErr.Message = cast.ToString(env.Error)
			}
		}
		return gwErr
	}

	if values, err := url.ParseQuery(gwErr.Message); err == nil && values.Has("error") {
		gwErr.Code = values.Get("error")
		if msg := values.Get("errorMessage"); msg != "" {
			gwErr.Message = msg
		}
	}
	return gwErr
}
