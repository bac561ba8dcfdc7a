package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/DanielPopoola/sisi-payments/internal/config"
)

type RetryClient struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner application.GatewayClient, cfg config.RetryConfig) *RetryClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryClient) Register(ctx context.Context, req application.RegisterRequest) (*application.RegisterResponse, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.RegisterResponse, error) {
		return r.inner.Register(ctx, req)
	})
}

func (r *RetryClient) Verify(ctx context.Context, req application.VerifyRequest) (*application.VerifyResponse, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.VerifyResponse, error) {
		return r.inner.Verify(ctx, req)
	})
}

func (r *RetryClient) StatusBySessionID(ctx context.Context, sessionID string) (*application.TransactionStatus, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.TransactionStatus, error) {
		return r.inner.StatusBySessionID(ctx, sessionID)
	})
}

func (r *RetryClient) StatusByOrderID(ctx context.Context, externalOrderID string) (*application.TransactionStatus, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.TransactionStatus, error) {
		return r.inner.StatusByOrderID(ctx, externalOrderID)
	})
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			timer := time.NewTimer(r.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, lastErr
			case <-timer.C:
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return application.IsRetryable(err)
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}
