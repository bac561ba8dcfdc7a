package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
)

// AdminAuth requires "Authorization: Bearer <key>".
func AdminAuth(key string) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), expected) != 1 {
				rest.WriteError(w, application.NewUnauthorizedError(nil), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
