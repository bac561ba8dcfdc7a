// Package queue carries logged notification ids from the webhook to the
// background verifier over NATS.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/nats-io/nats.go"
)

const flushTimeout = 2 * time.Second

// VerificationMessage is the payload published per notification. The
// notification itself stays in Postgres; only its id travels.
type VerificationMessage struct {
	NotificationID string `json:"notification_id"`
}

func Connect(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("sisi-payments"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Enqueue publishes the id and waits for the server to acknowledge the flush.
func (p *Publisher) Enqueue(ctx context.Context, notificationID string) error {
	data, err := json.Marshal(VerificationMessage{NotificationID: notificationID})
	if err != nil {
		return fmt.Errorf("encode verification message: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}
	return nil
}

// Subscriber delivers each message to one member of the queue group.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	group   string
	logger  *slog.Logger
}

func NewSubscriber(conn *nats.Conn, cfg config.NATSConfig, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		conn:    conn,
		subject: cfg.Subject,
		group:   cfg.Queue,
		logger:  logger,
	}
}

// Subscribe registers handler and returns a func that drains the subscription.
// Malformed payloads are logged and dropped.
func (s *Subscriber) Subscribe(handler func(notificationID string)) (func() error, error) {
	sub, err := s.conn.QueueSubscribe(s.subject, s.group, func(msg *nats.Msg) {
		var m VerificationMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil || m.NotificationID == "" {
			s.logger.Error("dropping malformed verification message",
				"subject", msg.Subject,
				"error", err,
			)
			return
		}
		handler(m.NotificationID)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	return sub.Drain, nil
}
