package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
)

var timeoutBody = string(mustMarshal(rest.APIResponse{
	Error: &rest.APIError{Code: application.ErrCodeTimeout, Message: "Request timeout"},
}))

func mustMarshal(v any) []byte {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return body
}

// Timeout bounds the whole request. Handlers see the deadline on the request
// context, so gateway calls made inside them are cancelled with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
