package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "sed:ratelimit:"

// RateLimitRepository counts requests in fixed windows.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository builds the counter store. client may be nil, in
// which case every hit counts as the first.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Hit increments the counter of key and returns the count in the current window.
func (r *RateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if r.client == nil {
		return 1, nil
	}
	redisKey := rateLimitPrefix + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, fmt.Errorf("redis expire %s: %w", redisKey, err)
		}
	}
	return count, nil
}
