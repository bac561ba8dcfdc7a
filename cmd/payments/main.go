package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/api"
	"github.com/DanielPopoola/sisi-payments/internal/application/services"
	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/cache"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/gateway"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/queue"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/sisi-payments/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/sisi-payments/internal/tracking"
	"github.com/DanielPopoola/sisi-payments/internal/worker"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
		"webhook_mode", cfg.Webhook.Mode,
	)

	ctx := context.Background()

	doc, err := api.LoadDocument(ctx)
	if err != nil {
		logger.Error("invalid api description", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	orderRepo := postgres.NewOrderRepository(db.Pool)
	notificationRepo := postgres.NewNotificationRepository(db.Pool)

	tracker, err := tracking.NewIssuer(cfg.Tracking.Secret)
	if err != nil {
		logger.Error("invalid tracking secret", "error", err)
		os.Exit(1)
	}

	gatewayClient := gateway.NewClient(cfg.Gateway)
	retryGatewayClient := gateway.NewRetryClient(gatewayClient, cfg.Retry)

	settings := services.Settings{
		CRC:           cfg.Gateway.CRC,
		SessionPrefix: cfg.Gateway.SessionPrefix,
		Description:   cfg.Gateway.Description,
		PublicURL:     cfg.Server.PublicURL,
	}

	reconciler := services.NewReconciler(orderRepo, settings.SessionPrefix, logger)
	registrar := services.NewRegistrar(orderRepo, retryGatewayClient, tracker, settings, logger)
	verifier := services.NewVerifier(reconciler, retryGatewayClient, notificationRepo, settings.CRC, logger)
	statusService := services.NewStatusService(orderRepo, tracker)
	refresher := services.NewRefresher(reconciler, retryGatewayClient, settings.SessionPrefix, logger)

	poller := worker.NewPoller(orderRepo, refresher, cfg.Worker, logger)
	if redisClient != nil {
		poller.WithLock(cache.NewSweepLock(redisClient, cfg.Worker.LockTTL, logger))
	}

	var consumer *worker.VerifyConsumer
	async := cfg.Webhook.Mode == "async"
	if async {
		if !cfg.NATS.Enabled() {
			logger.Error("async webhook mode requires nats.url")
			os.Exit(1)
		}
		conn, err := queue.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		verifier.WithQueue(queue.NewPublisher(conn, cfg.NATS.Subject))
		consumer = worker.NewVerifyConsumer(
			queue.NewSubscriber(conn, cfg.NATS, logger),
			verifier,
			cfg.Gateway.Timeout*time.Duration(cfg.Retry.MaxRetries+1),
			logger,
		)
	}

	limiterStore, err := cache.NewLimiterStore(redisClient)
	if err != nil {
		logger.Error("failed to create rate limiter store", "error", err)
		os.Exit(1)
	}
	statusLimiter, err := middleware.NewLimiter(limiterStore, cfg.RateLimit.Status, cfg.RateLimit.TrustForwardHeader)
	if err != nil {
		logger.Error("invalid status rate limit", "rate", cfg.RateLimit.Status, "error", err)
		os.Exit(1)
	}
	returnLimiter, err := middleware.NewLimiter(limiterStore, cfg.RateLimit.Return, cfg.RateLimit.TrustForwardHeader)
	if err != nil {
		logger.Error("invalid return rate limit", "rate", cfg.RateLimit.Return, "error", err)
		os.Exit(1)
	}

	h := handlers.NewHandlers(
		registrar,
		verifier,
		statusService,
		poller,
		db,
		handlers.Options{
			AsyncWebhook:  async,
			AdminKey:      cfg.Admin.APIKey,
			StatusLimiter: statusLimiter,
			ReturnLimiter: returnLimiter,
		},
		logger,
	)

	mux := http.NewServeMux()
	if err := api.RegisterDocsRoutes(mux, doc); err != nil {
		logger.Error("failed to register docs", "error", err)
		os.Exit(1)
	}
	h.RegisterRoutes(mux)

	router := http.Handler(mux)

	handler := middleware.Timeout(cfg.Server.WriteTimeout)(router)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go poller.Start(workerCtx)
	if consumer != nil {
		go func() {
			if err := consumer.Start(workerCtx); err != nil {
				logger.Error("verification consumer stopped", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
