package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiter caps inbound chat frames on a single connection. A nil
// limiter allows everything.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}

const maxTrackedIPs = 4096

// ipRateLimiter keeps one token bucket per client IP for the auth endpoints.
type ipRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &ipRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      rate.Every(time.Minute / time.Duration(perMinute)),
		b:      perMinute,
	}
}

func (i *ipRateLimiter) get(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if l, ok := i.limits[ip]; ok {
		return l
	}
	if len(i.limits) >= maxTrackedIPs {
		i.pruneLocked(time.Now())
	}
	l := rate.NewLimiter(i.r, i.b)
	i.limits[ip] = l
	return l
}

// pruneLocked drops idle buckets, i.e. those that refilled completely.
func (i *ipRateLimiter) pruneLocked(now time.Time) {
	for ip, l := range i.limits {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(i.limits, ip)
		}
	}
}

// Middleware rejects requests over the per-IP budget with 429.
func (i *ipRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if i != nil && !i.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
