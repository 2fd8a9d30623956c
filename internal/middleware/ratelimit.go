package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type sellerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SellerRateLimiter throttles file uploads and export requests per
// (tenant, seller). Limiters idle for longer than ttl are dropped; the map
// is swept at most once per ttl.
type SellerRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*sellerLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewSellerRateLimiter allows perMinute requests per seller with the given burst
func NewSellerRateLimiter(perMinute float64, burst int, ttl time.Duration) *SellerRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SellerRateLimiter{
		limiters: make(map[string]*sellerLimiter),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *SellerRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		l.evictIdle(now)
		l.lastSweep = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &sellerLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (l *SellerRateLimiter) evictIdle(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.limiters, k)
		}
	}
}

// Allow reports whether the seller may make another request now
func (l *SellerRateLimiter) Allow(tenantID, sellerID string) bool {
	return l.get(tenantID+"/"+sellerID).AllowN(l.now(), 1)
}

// Middleware rejects requests over the limit with 429. It must run after
// TenantMiddleware and SellerMiddleware.
func (l *SellerRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(GetTenantID(c), GetSellerID(c)) {
			c.Header("Retry-After", "60")
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many import or export requests, please wait a minute and try again")
			return
		}
		c.Next()
	}
}
