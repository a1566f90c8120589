package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Buckets idle for limiterIdleTTL are dropped and start full on return.
const (
	limiterIdleTTL     = 10 * time.Minute
	limiterCleanupTick = time.Minute
)

// IPRateLimiter stores a token bucket for each client IP.
type IPRateLimiter struct {
	ips *cache.Cache
	ttl time.Duration
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return newIPRateLimiter(r, b, limiterIdleTTL, limiterCleanupTick)
}

func newIPRateLimiter(r rate.Limit, b int, ttl, cleanup time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		ips: cache.New(ttl, cleanup),
		ttl: ttl,
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use. Every
// lookup extends the bucket's idle deadline.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, ok := i.ips.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		i.ips.Set(ip, limiter, i.ttl)
		return limiter
	}

	limiter := rate.NewLimiter(i.r, i.b)
	if err := i.ips.Add(ip, limiter, i.ttl); err != nil {
		// Another request created it first.
		if v, ok := i.ips.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Len returns the number of tracked IPs.
func (i *IPRateLimiter) Len() int {
	return i.ips.ItemCount()
}

// RateLimit rejects requests from an IP that exceeds its bucket.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
