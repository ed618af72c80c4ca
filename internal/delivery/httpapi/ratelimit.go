package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client's bucket is kept after its last request.
const limiterIdleTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client key. Buckets idle for longer than
// limiterIdleTTL are dropped, at most once per TTL, on the next lookup.
type clientLimiter struct {
	mu        sync.Mutex
	limits    map[string]*clientEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time

	now func() time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limits:    make(map[string]*clientEntry),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (cl *clientLimiter) getLimiter(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	if now.Sub(cl.lastSweep) >= limiterIdleTTL {
		cl.evictIdle(now)
	}

	if entry, ok := cl.limits[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(cl.rate, cl.burst)
	cl.limits[key] = &clientEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// evictIdle must be called with cl.mu held.
func (cl *clientLimiter) evictIdle(now time.Time) {
	for key, entry := range cl.limits {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(cl.limits, key)
		}
	}
	cl.lastSweep = now
}

// Allow reports whether a request from key may proceed now.
func (cl *clientLimiter) Allow(key string) bool {
	return cl.getLimiter(key).Allow()
}

// middleware rejects clients over their rate with 429, keyed by the client IP.
func (cl *clientLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cl.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
