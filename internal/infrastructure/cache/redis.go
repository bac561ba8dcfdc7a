// Package cache holds the Redis-backed pieces shared by replicas: the sweep
// lock and the rate limiter store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize     = 20
	defaultMinIdleConns = 2
	defaultTimeout      = 3 * time.Second
)

// NewRedisClient opens a client and pings it once.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     defaultPoolSize,
		MinIdleConns: defaultMinIdleConns,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}
