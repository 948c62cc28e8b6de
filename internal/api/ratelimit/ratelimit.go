// Package ratelimit provides per-IP token-bucket limiting middleware with
// distinct limiters per operation class.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scamshield/scamshield/internal/api/respond"
	"github.com/scamshield/scamshield/internal/model"
)

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// PerMinute builds a limiter allowing n requests per minute per IP, with a
// burst of n.
func PerMinute(n int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(n) / 60.0),
		burst:   n,
	}
}

// Allow reports whether ip may proceed and, when denied, how many seconds to
// wait before retrying.
func (l *Limiter) Allow(ip string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	l.evictStale()

	if b.lim.Allow() {
		return true, 0
	}
	wait := b.lim.Reserve()
	delay := wait.Delay()
	wait.Cancel()
	secs := int(delay.Seconds()) + 1
	return false, secs
}

// evictStale drops buckets idle for over an hour; called with mu held.
func (l *Limiter) evictStale() {
	if len(l.buckets) < 10000 {
		return
	}
	cutoff := time.Now().Add(-time.Hour)
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// Middleware wraps next with the limiter, answering RATE_LIMIT_EXCEEDED with
// a retry-after hint when the bucket is empty.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := l.Allow(clientIP(r))
		if !ok {
			respond.WriteError(w, model.NewRateLimitError("too many requests", retryAfter, nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller address, honouring X-Forwarded-For from a
// fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return fwd[:i]
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
