package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "sisi-payments:reconcile:sweep"

// releaseScript deletes the key only if it still holds our token, so a
// holder whose lease expired cannot drop a lock taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock is a lease in Redis taken with SET NX PX.
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func NewSweepLock(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SweepLock {
	return &SweepLock{
		client: client,
		key:    sweepLockKey,
		ttl:    ttl,
		logger: logger,
	}
}

// TryAcquire returns nil, nil when another replica holds the lease.
func (l *SweepLock) TryAcquire(ctx context.Context) (func(context.Context), error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, nil
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warn("failed to release sweep lock",
				"key", l.key,
				"error", err,
			)
		}
	}
	return release, nil
}
