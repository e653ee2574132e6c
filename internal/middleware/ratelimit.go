// Package middleware provides the HTTP middleware chain for the exploration
// API: owner scoping, request IDs, per-IP rate limiting, body limits, and
// response hardening.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets bounds the tracked-IP table so an address scan cannot grow it
// without limit.
const maxBuckets = 100_000

// bucket is the per-IP token state. Tokens refill continuously at the
// limiter's rate; last only advances when at least one whole token accrued,
// so fractional refill is never lost at low rates.
type bucket struct {
	tokens int
	last   time.Time
}

// RateLimiter throttles requests per client IP with a token bucket. Every
// expansion request fans out to the suggestion provider, so the limiter
// sits in front of the whole API to protect the provider quota.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	burst   int
}

// NewRateLimiter creates a limiter allowing ratePerSec sustained requests
// with the given burst. A background goroutine evicts idle buckets until
// ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    ratePerSec,
		burst:   burst,
	}
	go rl.evictIdle(ctx)

	return rl
}

// take refills the bucket for elapsed time and consumes one token.
// Caller holds rl.mu.
func (rl *RateLimiter) take(b *bucket) bool {
	now := time.Now()

	if refill := int(now.Sub(b.last).Seconds() * float64(rl.rate)); refill > 0 {
		b.tokens = min(b.tokens+refill, rl.burst)
		b.last = now
	}

	if b.tokens == 0 {
		return false
	}

	b.tokens--

	return true
}

func (rl *RateLimiter) evictIdle(ctx context.Context) {
	const maxAge = 10 * time.Minute

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.last) > maxAge {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Handler returns gin middleware that applies the limiter per client IP.
// c.ClientIP() cannot be spoofed through X-Forwarded-For because the router
// runs with SetTrustedProxies(nil).
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		b, ok := rl.buckets[ip]
		if !ok {
			if len(rl.buckets) >= maxBuckets {
				rl.mu.Unlock()
				respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

				return
			}

			b = &bucket{tokens: rl.burst, last: time.Now()}
			rl.buckets[ip] = b
		}

		allowed := rl.take(b)
		rl.mu.Unlock()

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
