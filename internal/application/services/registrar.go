package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/domain"
	"github.com/DanielPopoola/sisi-payments/internal/signature"
	"github.com/DanielPopoola/sisi-payments/internal/tracking"
	"github.com/go-playground/validator"
)

type RegisterCommand struct {
	OrderID string `validate:"required"`
	Email   string `validate:"required,email"`
}

// Registration is what the ordering app needs to send the customer to the
// gateway and later show them the payment status.
type Registration struct {
	OrderID       string
	SessionID     string
	PaymentToken  string
	RedirectURL   string
	TrackingToken string
	ReturnURL     string
	Status        domain.PaymentStatus
}

type Registrar struct {
	orders   application.OrderRepository
	gateway  application.GatewayClient
	tracker  *tracking.Issuer
	settings Settings
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistrar(
	orders application.OrderRepository,
	gateway application.GatewayClient,
	tracker *tracking.Issuer,
	settings Settings,
	logger *slog.Logger,
) *Registrar {
	return &Registrar{
		orders:   orders,
		gateway:  gateway,
		tracker:  tracker,
		settings: settings,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register opens a gateway transaction for an ONLINE order and moves it to
// PENDING. The session id is derived from the order id, so calling Register
// again for the same order reuses it. On any gateway failure the order is
// left as it was.
func (s *Registrar) Register(ctx context.Context, cmd RegisterCommand) (*Registration, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, application.NewInvalidInputError(err)
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, application.NewInternalError(err)
	}

	if !order.IsOnline() {
		return nil, application.NewInvalidStateError(domain.NewNotOnlineOrderError(order.ID, order.PaymentMethod))
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, application.NewInvalidStateError(domain.NewAlreadyTerminalError(order.ID, order.PaymentStatus))
	}

	sessionID := order.SessionID(s.settings.SessionPrefix)

	sign, err := signature.Sign(signature.RegistrationFields(
		sessionID,
		order.Total.Amount,
		order.Total.Currency,
		s.settings.CRC,
	))
	if err != nil {
		if s.settings.CRC == "" {
			return nil, application.NewConfigurationError(err)
		}
		return nil, application.NewInvalidInputError(err)
	}

	trackingToken := s.tracker.Issue(order.ID)
	returnURL := s.returnURL(order.ID, trackingToken)

	resp, err := s.gateway.Register(ctx, application.RegisterRequest{
		SessionID:   sessionID,
		Amount:      order.Total.Amount,
		Currency:    order.Total.Currency,
		Description: s.description(order.ID),
		Email:       cmd.Email,
		ReturnURL:   returnURL,
		StatusURL:   s.statusURL(),
		Sign:        sign,
	})
	if err != nil {
		s.logger.Error("transaction registration failed",
			"order_id", order.ID,
			"session_id", sessionID,
			"error", err,
		)
		return nil, gatewayFailure(err)
	}
	if resp.Token == "" {
		return nil, application.NewGatewayRejectedError(errors.New("register response carried no token"))
	}

	if err := order.MarkPending(sessionID, resp.Token, s.now()); err != nil {
		return nil, application.NewInvalidStateError(err)
	}

	ok, err := s.orders.MarkPending(ctx, order)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if !ok {
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		return nil, application.NewInvalidStateError(domain.NewAlreadyTerminalError(current.ID, current.PaymentStatus))
	}

	s.logger.Info("transaction registered",
		"order_id", order.ID,
		"session_id", sessionID,
		"amount", order.Total.Amount,
		"currency", order.Total.Currency,
	)

	return &Registration{
		OrderID:       order.ID,
		SessionID:     sessionID,
		PaymentToken:  resp.Token,
		RedirectURL:   resp.RedirectURL,
		TrackingToken: trackingToken,
		ReturnURL:     returnURL,
		Status:        domain.StatusPending,
	}, nil
}

func (s *Registrar) returnURL(orderID, token string) string {
	q := url.Values{}
	q.Set("order_id", orderID)
	q.Set("token", token)
	return strings.TrimRight(s.settings.PublicURL, "/") + "/payments/return?" + q.Encode()
}

func (s *Registrar) statusURL() string {
	return strings.TrimRight(s.settings.PublicURL, "/") + "/payments/notify"
}

func (s *Registrar) description(orderID string) string {
	if s.settings.Description == "" {
		return "Order " + orderID
	}
	return s.settings.Description + " " + orderID
}
