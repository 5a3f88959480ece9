// internal/httpserver/ratelimit.go
//
// Per-client token buckets (golang.org/x/time/rate) for mutating routes.

package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter hands out one token bucket per client key.
type limiter struct {
	mu    sync.Mutex
	rps   int
	burst int
	byKey map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiter(rps, burst int) *limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = rps
	}
	return &limiter{rps: rps, burst: burst, byKey: make(map[string]*bucket)}
}

func (l *limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if b, ok := l.byKey[key]; ok {
		b.seen = now
		return b.lim
	}
	b := &bucket{lim: rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst), seen: now}
	l.byKey[key] = b
	return b.lim
}

// sweep forgets clients not seen since before. A forgotten client starts
// again with a full bucket.
func (l *limiter) sweep(before time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.byKey {
		if b.seen.Before(before) {
			delete(l.byKey, k)
			n++
		}
	}
	return n
}

// middleware rejects requests over the client's budget with 429.
func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the request's IP without the port (RealIP has already run).
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
