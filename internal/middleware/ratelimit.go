package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
)

const (
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	burst     int
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter allowing requestsPerMinute with the
// given burst, and starts its cleanup loop.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		perMinute: requestsPerMinute,
		burst:     burst,
		stopCh:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request from key may proceed and how many tokens remain.
func (r *RateLimiter) Allow(key string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), r.burst),
		}
		r.limiters[key] = entry
	}
	entry.lastSeen = time.Now()

	allowed := entry.limiter.Allow()
	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for key, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > LimiterTTL {
					delete(r.limiters, key)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimit returns a Gin middleware that rejects clients exceeding their bucket.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := rl.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := int(time.Minute.Seconds()) / max(rl.perMinute, 1)
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			logger.Get().Warnw("rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			abortWithError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
