package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/application/services"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
)

// HandleRegister opens a gateway transaction for the order and returns the
// URL the customer is redirected to.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterPaymentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.opts.MaxBody)).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(fmt.Errorf("decode request: %w", err)), h.logger)
		return
	}

	reg, err := h.registrar.Register(r.Context(), services.RegisterCommand{
		OrderID: r.PathValue("orderID"),
		Email:   req.Email,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

// HandleStatus serves the read-only payment status to a holder of the
// tracking token.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.status.Lookup(r.Context(), r.PathValue("orderID"), r.URL.Query().Get("token"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toPaymentStatusResponse(view))
}
