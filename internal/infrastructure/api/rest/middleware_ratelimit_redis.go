package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is RateLimiter's distributed counterpart: ingest
// submission counters live in Redis instead of process memory, so the
// limit holds across every replica fronting the ingest entry (§6), not
// just one.
type RedisRateLimiter struct {
	client        redis.UniversalClient
	keyPrefix     string
	limit         int
	window        time.Duration
	blockDuration time.Duration
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
// client: Redis client.
// keyPrefix: prefix for Redis keys (e.g. "ratelimit:ingest:").
// limit: max submissions per window.
// window: time window for counting submissions.
// blockDuration: how long to block after exceeding limit.
func NewRedisRateLimiter(client redis.UniversalClient, keyPrefix string, limit int, window, blockDuration time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:        client,
		keyPrefix:     keyPrefix,
		limit:         limit,
		window:        window,
		blockDuration: blockDuration,
	}
}

// Middleware returns a gin middleware that rate-limits by client IP,
// falling open (allowing the request) on a Redis error rather than
// blocking ingest because the rate-limit store is unreachable.
func (rl *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := rl.Allow(c.Request.Context(), clientIP)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			respondErrorWithDetails(c, http.StatusTooManyRequests, "too many ingest submissions", "RATE_LIMIT_EXCEEDED", map[string]interface{}{
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Allow checks if a submission from the given key should be allowed.
// Returns: allowed, retry_after_seconds, error.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	blockKey := rl.keyPrefix + "block:" + key
	countKey := rl.keyPrefix + "count:" + key

	blocked, err := rl.client.Exists(ctx, blockKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis exists error: %w", err)
	}

	if blocked > 0 {
		ttl, err := rl.client.TTL(ctx, blockKey).Result()
		if err != nil {
			return false, int(rl.blockDuration.Seconds()), nil
		}
		return false, int(ttl.Seconds()), nil
	}

	count, err := rl.client.Incr(ctx, countKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr error: %w", err)
	}

	if count == 1 {
		if err := rl.client.Expire(ctx, countKey, rl.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire error: %w", err)
		}
	}

	if int(count) > rl.limit {
		if err := rl.client.Set(ctx, blockKey, "1", rl.blockDuration).Err(); err != nil {
			return false, 0, fmt.Errorf("redis set block error: %w", err)
		}
		return false, int(rl.blockDuration.Seconds()), nil
	}

	return true, 0, nil
}

// Reset clears the rate limit state for a specific key.
func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	blockKey := rl.keyPrefix + "block:" + key
	countKey := rl.keyPrefix + "count:" + key

	pipe := rl.client.Pipeline()
	pipe.Del(ctx, blockKey)
	pipe.Del(ctx, countKey)
	_, err := pipe.Exec(ctx)
	return err
}
