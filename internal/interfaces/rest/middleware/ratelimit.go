package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
	limiterlib "github.com/ulule/limiter/v3"
)

// RateLimit throttles a route per client IP. name keeps the counters of
// different routes apart in a shared store. A store failure lets the
// request through.
func RateLimit(name string, lim *limiterlib.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + lim.GetIPKey(r)

			limit, err := lim.Get(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", "route", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(limit.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(limit.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(limit.Reset, 10))

			if limit.Reached {
				logger.Info("rate limit reached", "route", name, "key", key)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write(tooManyRequestsBody)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var tooManyRequestsBody = mustMarshal(rest.APIResponse{
	Error: &rest.APIError{Code: "RATE_LIMITED", Message: "Too many requests"},
})

// NewLimiter builds a limiter from the "<n>-<S|M|H|D>" format.
func NewLimiter(store limiterlib.Store, formatted string, trustForwardHeader bool) (*limiterlib.Limiter, error) {
	rate, err := limiterlib.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiterlib.New(store, rate, limiterlib.WithTrustForwardHeader(trustForwardHeader)), nil
}
