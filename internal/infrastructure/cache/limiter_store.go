package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	limiterlib "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "sisi-payments:limiter"

// NewLimiterStore shares counters through Redis when a client is given and
// keeps them per process otherwise.
func NewLimiterStore(client *redis.Client) (limiterlib.Store, error) {
	opts := limiterlib.StoreOptions{Prefix: limiterPrefix}
	if client == nil {
		return memory.NewStoreWithOptions(opts), nil
	}

	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, nil
}
