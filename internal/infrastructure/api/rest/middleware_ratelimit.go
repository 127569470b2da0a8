package rest

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles ingest submissions (§6 External Interfaces) per
// client IP in a single-process deployment. Each owner can in principle
// fire many concurrent loads (§5: "parallel workers at the load level"),
// but an unbounded submission rate from one caller still needs a ceiling
// independent of how many loads it spawns.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientInfo
	limit   int
	window  time.Duration
	cleanup time.Duration
}

type clientInfo struct {
	attempts  int
	firstSeen time.Time
	blocked   bool
	blockedAt time.Time
}

// NewRateLimiter creates a rate limiter.
// limit: max ingest submissions per window.
// window: time window for counting submissions.
// blockDuration: how long to block after exceeding limit.
func NewRateLimiter(limit int, window, blockDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientInfo),
		limit:   limit,
		window:  window,
		cleanup: blockDuration,
	}

	go rl.cleanupLoop()

	return rl
}

// Middleware returns a gin middleware that rate-limits by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !rl.Allow(clientIP) {
			respondErrorWithDetails(c, http.StatusTooManyRequests, "too many ingest submissions", "RATE_LIMIT_EXCEEDED", map[string]interface{}{
				"retry_after": int(rl.cleanup.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Allow checks if a submission from the given key should be allowed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[key]

	if !exists {
		rl.clients[key] = &clientInfo{
			attempts:  1,
			firstSeen: now,
		}
		return true
	}

	if client.blocked {
		if now.Sub(client.blockedAt) > rl.cleanup {
			client.blocked = false
			client.attempts = 1
			client.firstSeen = now
			return true
		}
		return false
	}

	if now.Sub(client.firstSeen) > rl.window {
		client.attempts = 1
		client.firstSeen = now
		return true
	}

	client.attempts++

	if client.attempts > rl.limit {
		client.blocked = true
		client.blockedAt = now
		return false
	}

	return true
}

// Reset clears the rate limit state for a specific key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, key)
}

// cleanupLoop periodically removes expired entries so rl.clients does not
// grow unboundedly across the server's lifetime.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, client := range rl.clients {
			if !client.blocked && now.Sub(client.firstSeen) > rl.window {
				delete(rl.clients, key)
			}
			if client.blocked && now.Sub(client.blockedAt) > rl.cleanup*2 {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}
