// ratelimit.go implements per-session rate limiting using a token bucket.
//
// How token bucket works:
// - Each session gets a bucket holding up to N tokens (N = requests per hour)
// - Each request consumes 1 token
// - Tokens refill at a steady rate of N per hour
// - An empty bucket rejects the request with 429 Too Many Requests
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter tracks request rates per session.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	perHour    int
	bucketIdle time.Duration

	now func() time.Time
}

// bucket tracks the token state for a single session.
type bucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// allowResult carries the decision and the values for the response headers.
type allowResult struct {
	allowed   bool
	remaining float64
	limit     float64
}

// NewRateLimiter creates a limiter allowing perHour requests per session.
// perHour <= 0 disables limiting.
func NewRateLimiter(perHour int) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		perHour:    perHour,
		bucketIdle: time.Hour,
		now:        time.Now,
	}
}

// RateLimit returns Gin middleware that enforces the per-session limit.
// It must run after SessionAuth.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		if s == nil || rl.perHour <= 0 {
			c.Next()
			return
		}

		result := rl.allow(s.ID)
		c.Header("X-RateLimit-Limit", formatFloat(result.limit))
		if !result.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			abortWithError(c, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Try again later.")
			return
		}
		c.Header("X-RateLimit-Remaining", formatFloat(result.remaining))

		c.Next()
	}
}

// allow consumes a token for key if one is available.
func (rl *RateLimiter) allow(key string) allowResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     float64(rl.perHour),
			maxTokens:  float64(rl.perHour),
			refillRate: float64(rl.perHour) / 3600.0,
			lastRefill: now,
		}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return allowResult{allowed: false, remaining: 0, limit: b.maxTokens}
	}

	b.tokens--
	return allowResult{allowed: true, remaining: b.tokens, limit: b.maxTokens}
}

// Prune drops buckets unused for longer than an hour and returns how many
// were removed. A dropped bucket restarts full on its next request.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	pruned := 0
	for id, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.bucketIdle {
			delete(rl.buckets, id)
			pruned++
		}
	}
	return pruned
}

// RunCleanup prunes stale buckets every interval until stop is closed.
func (rl *RateLimiter) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

// formatFloat converts a float to a string for headers.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
