package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key. Buckets live in process
// memory, so limits are per instance.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
	// next time stale buckets are swept
	sweepAt time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// Middleware enforces the limit for the key derived by keyFn, falling
// back to the client IP.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		allowed, retryAfter := rl.take(key)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) take(key string) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	b, ok := rl.clients[key]
	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
		return true, 0
	}

	if b.count >= rl.limit {
		retryAfter := int(b.windowEnd.Sub(now).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++
	return true, 0
}

// caller holds rl.mu
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Before(rl.sweepAt) {
		return
	}
	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
	rl.sweepAt = now.Add(rl.window)
}

// KeyByIP is for unauthenticated endpoints.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP prefers the logged-in user so shared NATs are not
// throttled together.
func KeyByUserOrIP(c *gin.Context) string {
	if s, ok := SessionFromContext(c); ok {
		return "user:" + s.UserID
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
