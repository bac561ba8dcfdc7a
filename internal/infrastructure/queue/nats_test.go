package queue_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupNATS(t *testing.T) config.NATSConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping nats integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor: wait.ForLog("Server is ready").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return config.NATSConfig{
		URL:     "nats://" + host + ":" + port.Port(),
		Subject: "payments.notifications.test",
		Queue:   "payments-verifier",
	}
}

func TestPublishSubscribe(t *testing.T) {
	cfg := setupNATS(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	conn, err := queue.Connect(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	received := make(chan string, 4)
	drain, err := queue.NewSubscriber(conn, cfg, logger).Subscribe(func(id string) {
		received <- id
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = drain() })

	// A payload without an id is dropped, not delivered.
	require.NoError(t, conn.Publish(cfg.Subject, []byte(`{}`)))

	publisher := queue.NewPublisher(conn, cfg.Subject)
	require.NoError(t, publisher.Enqueue(context.Background(), "notif-1"))

	select {
	case id := <-received:
		assert.Equal(t, "notif-1", id)
	case <-time.After(5 * time.Second):
		t.Fatal("verification message was not delivered")
	}
}
