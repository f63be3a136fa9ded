package web

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client limiter bookkeeping.
const (
	// limiterIdle is how long an unused client limiter is kept.
	limiterIdle = 10 * time.Minute

	// sweepEvery is how often idle limiters are dropped.
	sweepEvery = time.Minute

	retryAfterSeconds = "1"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client address.
// A zero rate disables limiting.
type rateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(requestsPerSecond float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether client may make a request now.
func (r *rateLimiter) Allow(client string) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > sweepEvery {
		for key, c := range r.clients {
			if now.Sub(c.lastSeen) > limiterIdle {
				delete(r.clients, key)
			}
		}
		r.lastSweep = now
	}

	c, ok := r.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Middleware passes requests over the client's rate to rejected instead of
// next. rejected writes the 429 response; Retry-After is already set.
func (r *rateLimiter) Middleware(next, rejected http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow(clientKey(req)) {
			w.Header().Set("Retry-After", retryAfterSeconds)
			rejected.ServeHTTP(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// clientKey identifies the caller by remote host.
func clientKey(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
