package throttle

import (
	"context"
	"fmt"
	"time"

	platformredis "votilio/internal/platform/redis"
)

// Redis is a fixed-window attempt store shared across replicas. INCR plus
// a first-write EXPIRE keeps it one round trip per attempt.
type Redis struct {
	client *platformredis.Client
}

// NewRedis creates a Redis-backed attempt store.
func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

// Allow records an attempt and reports whether it stayed within the limit.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := "throttle:cast:" + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle incr: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}
