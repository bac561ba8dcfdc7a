package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
)

const healthTimeout = 2 * time.Second

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.reconciliation.RefreshOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (h *Handlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.RunOnce(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, report)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		rest.WriteError(w, &application.ServiceError{
			Code:       "UNHEALTHY",
			Message:    "Database unreachable",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
