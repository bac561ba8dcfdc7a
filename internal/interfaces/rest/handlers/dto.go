package handlers

import (
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application/services"
)

type RegisterPaymentRequest struct {
	Email string `json:"email"`
}

type RegistrationResponse struct {
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	RedirectURL   string `json:"redirect_url"`
	TrackingToken string `json:"tracking_token"`
	ReturnURL     string `json:"return_url"`
}

type PaymentStatusResponse struct {
	OrderID string     `json:"order_id"`
	Status  string     `json:"status"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`
	Message string     `json:"message"`
}

type OutcomeResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Applied bool   `json:"applied"`
}

type QueuedResponse struct {
	NotificationID string `json:"notification_id"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func toRegistrationResponse(reg *services.Registration) RegistrationResponse {
	return RegistrationResponse{
		OrderID:       reg.OrderID,
		SessionID:     reg.SessionID,
		Status:        string(reg.Status),
		RedirectURL:   reg.RedirectURL,
		TrackingToken: reg.TrackingToken,
		ReturnURL:     reg.ReturnURL,
	}
}

func toPaymentStatusResponse(view *services.PaymentView) PaymentStatusResponse {
	return PaymentStatusResponse{
		OrderID: view.OrderID,
		Status:  view.Status,
		PaidAt:  view.PaidAt,
		Message: view.Message,
	}
}

func toOutcomeResponse(outcome *services.Outcome) OutcomeResponse {
	return OutcomeResponse{
		OrderID: outcome.OrderID,
		Status:  string(outcome.Status),
		Applied: outcome.Applied,
	}
}
