package gateway

import "encoding/json"

// envelope is the JSON shape of every gateway response. Data is decoded per
// endpoint.
type envelope struct {
	Data         json.RawMessage `json:"data"`
	ResponseCode *int            `json:"responseCode"`
	Error        any             `json:"error"`
	Code         any             `json:"code"`
}

type registerData struct {
	Token string `json:"token"`
}

type verifyData struct {
	Status string `json:"status"`
}

// transactionData is the by-session / by-order lookup result. Status and
// OrderID arrive as either numbers or strings depending on the endpoint version.
type transactionData struct {
	Status    any    `json:"status"`
	OrderID   any    `json:"orderId"`
	SessionID string `json:"sessionId"`
	Amount    any    `json:"amount"`
}
