package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/sisi-payments/internal/application/services"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/ingress"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/sisi-payments/internal/worker"
	limiterlib "github.com/ulule/limiter/v3"
)

type PaymentRegistrar interface {
	Register(ctx context.Context, cmd services.RegisterCommand) (*services.Registration, error)
}

type NotificationVerifier interface {
	Handle(ctx context.Context, source domain.NotificationSource, n domain.Notification) (*services.Outcome, error)
	Enqueue(ctx context.Context, source domain.NotificationSource, n domain.Notification) (string, error)
}

type StatusReader interface {
	Lookup(ctx context.Context, orderID, token string) (*services.PaymentView, error)
}

type Reconciliation interface {
	RunOnce(ctx context.Context) (*worker.SweepReport, error)
	RefreshOrder(ctx context.Context, orderID string) (*services.Outcome, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options tune the inbound surface. A nil limiter disables rate limiting
// for that route.
type Options struct {
	AsyncWebhook  bool
	AdminKey      string
	MaxBody       int64
	StatusLimiter *limiterlib.Limiter
	ReturnLimiter *limiterlib.Limiter
}

type Handlers struct {
	registrar      PaymentRegistrar
	verifier       NotificationVerifier
	status         StatusReader
	reconciliation Reconciliation
	health         HealthChecker
	opts           Options
	logger         *slog.Logger
}

func NewHandlers(
	registrar PaymentRegistrar,
	verifier NotificationVerifier,
	status StatusReader,
	reconciliation Reconciliation,
	health HealthChecker,
	opts Options,
	logger *slog.Logger,
) *Handlers {
	if opts.MaxBody <= 0 {
		opts.MaxBody = ingress.DefaultMaxBody
	}
	return &Handlers{
		registrar:      registrar,
		verifier:       verifier,
		status:         status,
		reconciliation: reconciliation,
		health:         health,
		opts:           opts,
		logger:         logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/{orderID}/payment", h.HandleRegister)
	mux.Handle("GET /orders/{orderID}/payment-status", h.limited("status", h.opts.StatusLimiter, h.HandleStatus))

	mux.HandleFunc("POST /payments/notify", h.HandleNotify)
	mux.Handle("GET /payments/return", h.limited("return", h.opts.ReturnLimiter, h.HandleReturn))
	mux.Handle("POST /payments/return", h.limited("return", h.opts.ReturnLimiter, h.HandleReturn))

	admin := middleware.AdminAuth(h.opts.AdminKey)
	mux.Handle("POST /admin/orders/{orderID}/refresh", admin(http.HandlerFunc(h.HandleRefresh)))
	mux.Handle("POST /admin/reconcile", admin(http.HandlerFunc(h.HandleReconcile)))

	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

func (h *Handlers) limited(name string, lim *limiterlib.Limiter, fn http.HandlerFunc) http.Handler {
	if lim == nil {
		return fn
	}
	return middleware.RateLimit(name, lim, h.logger)(fn)
}
