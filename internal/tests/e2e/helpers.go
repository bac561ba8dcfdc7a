package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
	"github.com/stretchr/testify/require"
)

// FakeGateway answers the register, verify and status endpoints the way the
// real gateway does.
type FakeGateway struct {
	server *httptest.Server

	mu           sync.Mutex
	confirm      bool
	transactions map[string]Transaction
	verifyCalls  int
}

type Transaction struct {
	Status  string
	OrderID int64
	Amount  int64
}

func NewFakeGateway(t *testing.T) *FakeGateway {
	t.Helper()
	g := &FakeGateway{confirm: true, transactions: map[string]Transaction{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/transaction/register", g.register)
	mux.HandleFunc("PUT /api/v1/transaction/verify", g.verify)
	mux.HandleFunc("GET /api/v1/transaction/by/sessionId/{id}", g.bySession)

	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *FakeGateway) URL() string { return g.server.URL }

func (g *FakeGateway) SetConfirm(confirm bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirm = confirm
}

func (g *FakeGateway) SetTransaction(sessionID string, tx Transaction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transactions[sessionID] = tx
}

func (g *FakeGateway) VerifyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

func (g *FakeGateway) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("sign") == "" {
		http.Error(w, `{"error":"invalid request","code":400}`, http.StatusBadRequest)
		return
	}
	writeGatewayJSON(w, http.StatusOK, map[string]any{
		"data": map[string]string{"token": "tok-" + r.PostForm.Get("sessionId")},
	})
}

func (g *FakeGateway) verify(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.verifyCalls++
	confirm := g.confirm
	g.mu.Unlock()

	if !confirm {
		writeGatewayJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid transaction", "code": 400})
		return
	}
	writeGatewayJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "success"}})
}

func (g *FakeGateway) bySession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	g.mu.Lock()
	tx, ok := g.transactions[id]
	g.mu.Unlock()

	if !ok {
		writeGatewayJSON(w, http.StatusNotFound, map[string]any{"error": "Transaction not found", "code": 404})
		return
	}
	data := map[string]any{
		"status":    tx.Status,
		"sessionId": id,
		"amount":    tx.Amount,
	}
	if tx.OrderID != 0 {
		data["orderId"] = tx.OrderID
	}
	writeGatewayJSON(w, http.StatusOK, map[string]any{"data": data})
}

func writeGatewayJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// TestClient wraps HTTP calls to the payments service.
type TestClient struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client
}

func NewTestClient(baseURL, adminKey string) *TestClient {
	return &TestClient{
		baseURL:  baseURL,
		adminKey: adminKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Response struct {
	StatusCode int
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      *rest.APIError  `json:"error"`
}

func (c *TestClient) do(t *testing.T, method, path, contentType string, body []byte, admin bool) *Response {
	t.Helper()

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := &Response{StatusCode: resp.StatusCode}
	require.NoError(t, json.Unmarshal(raw, out), string(raw))
	return out
}

func (c *TestClient) Register(t *testing.T, orderID, email string) *Response {
	body, _ := json.Marshal(map[string]string{"email": email})
	return c.do(t, http.MethodPost, "/orders/"+orderID+"/payment", "application/json", body, false)
}

func (c *TestClient) Notify(t *testing.T, form url.Values) *Response {
	return c.do(t, http.MethodPost, "/payments/notify", "application/x-www-form-urlencoded", []byte(form.Encode()), false)
}

// Return replays the browser landing on the return URL handed out at
// registration, with extra gateway fields appended to the query.
func (c *TestClient) Return(t *testing.T, returnURL string, extra url.Values) *Response {
	t.Helper()
	u, err := url.Parse(returnURL)
	require.NoError(t, err)

	q := u.Query()
	for k, v := range extra {
		q[k] = v
	}
	return c.do(t, http.MethodGet, u.Path+"?"+q.Encode(), "", nil, false)
}

func (c *TestClient) Status(t *testing.T, orderID, token string) *Response {
	return c.do(t, http.MethodGet, "/orders/"+orderID+"/payment-status?token="+url.QueryEscape(token), "", nil, false)
}

func (c *TestClient) Reconcile(t *testing.T) *Response {
	return c.do(t, http.MethodPost, "/admin/reconcile", "", nil, true)
}

func decode[T any](t *testing.T, resp *Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}
