package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter is a per-client token bucket limiter guarding the
// introspection API from a noisy poller: the endpoints are cheap
// snapshot reads, but a tight client loop hitting /cache or /group on
// every goroutine tick is still worth bounding.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (rl *rateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters[clientID]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[clientID] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// cleanup drops limiters that have gone idle long enough to refill to a
// full bucket, so a long-running process doesn't accumulate one entry
// per ever-seen client forever.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for id, limiter := range rl.limiters {
		if limiter.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, id)
		}
	}
}

// rateLimitMiddleware enforces requestsPerMinute (with burst headroom)
// per remote address.
func rateLimitMiddleware(requestsPerMinute, burst int) func(http.Handler) http.Handler {
	rl := newRateLimiter(requestsPerMinute, burst)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientIP(r)
			if !rl.allow(clientID) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
