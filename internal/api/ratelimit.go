package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// maxClientLimiters caps how many per-client buckets are kept in memory.
// When full, an arbitrary entry is evicted.
const maxClientLimiters = 10000

type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimiter(requestsPerSecond, burst int) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (c *clientLimiter) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[key]; ok {
		return l
	}
	if len(c.limiters) >= maxClientLimiters {
		for k := range c.limiters {
			delete(c.limiters, k)
			break
		}
	}
	l := rate.NewLimiter(c.rate, c.burst)
	c.limiters[key] = l
	return l
}

// RateLimit returns a token-bucket middleware keyed by client address.
// Rejected requests get 429 with Retry-After.
func RateLimit(requestsPerSecond, burst int) func(http.Handler) http.Handler {
	limiter := newClientLimiter(requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.get(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
