package handlers

import (
	"errors"
	"net/http"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/ingress"
)

// HandleNotify is the gateway webhook. The gateway redelivers anything that
// is not answered with 2xx, so a transient failure is reported as 503 and a
// notification for an unknown session is accepted with 202.
func (h *Handlers) HandleNotify(w http.ResponseWriter, r *http.Request) {
	cb, err := ingress.Parse(r, h.opts.MaxBody)
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	if h.opts.AsyncWebhook {
		id, err := h.verifier.Enqueue(r.Context(), domain.SourceWebhook, cb.Notification)
		if err != nil {
			rest.WriteError(w, err, h.logger)
			return
		}
		rest.WriteJSON(w, http.StatusOK, QueuedResponse{NotificationID: id})
		return
	}

	outcome, err := h.verifier.Handle(r.Context(), domain.SourceWebhook, cb.Notification)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleReturn is where the customer's browser lands after paying. Gateway
// fields, when present, are verified like a webhook; the page then shows
// whatever the order record holds.
func (h *Handlers) HandleReturn(w http.ResponseWriter, r *http.Request) {
	cb, err := ingress.Parse(r, h.opts.MaxBody)
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	if cb.HasNotification() {
		_, err := h.verifier.Handle(r.Context(), domain.SourceReturn, cb.Notification)
		switch {
		case errors.Is(err, application.ErrAuthenticationFailure), errors.Is(err, application.ErrAmountMismatch):
			rest.WriteError(w, err, h.logger)
			return
		case err != nil:
			h.logger.Warn("return callback left order unresolved",
				"order_id", cb.OrderID,
				"session_id", cb.Notification.SessionID,
				"error", err,
			)
		}
	}

	view, err := h.status.Lookup(r.Context(), cb.OrderID, cb.Token)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toPaymentStatusResponse(view))
}
