package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiters holds one token bucket per caller key.
type limiters struct {
	m     sync.Map // map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func (l *limiters) get(key string) *rate.Limiter {
	if v, ok := l.m.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.m.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	return v.(*rate.Limiter)
}

// rateLimitKey prefers the authenticated principal, then the client IP.
func rateLimitKey(c *gin.Context) string {
	if p, ok := PrincipalFrom(c); ok && p.ID != "" {
		return "sub:" + p.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware enforces an in-process token bucket per caller:
// rps tokens per second, at most burst stored.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := &limiters{limit: rate.Limit(rps), burst: burst}
	return func(c *gin.Context) {
		lim := store.get(rateLimitKey(c))
		if !lim.Allow() {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rps)))
			c.Header("X-RateLimit-Remaining", "0")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// retryAfterSeconds is the wait for one token, rounded up.
func retryAfterSeconds(rps float64) int {
	if rps <= 0 {
		return 1
	}
	secs := int(1/rps + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}
