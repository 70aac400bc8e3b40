package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/choremane/internal/auth"
)

// RealIP extracts the client's real IP address, preferring Cloudflare's
// CF-Connecting-IP header, then X-Forwarded-For, and falling back to RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequesterKey keys rate limits by the authenticated email, or by client IP
// for anonymous requests.
func RequesterKey(r *http.Request) string {
	if email := auth.Email(r.Context()); email != "" {
		return "user:" + email
	}
	return "ip:" + RealIP(r)
}

// quota counts one requester's hits within a clock-aligned period.
type quota struct {
	period time.Time
	span   time.Duration
	used   int
}

func (q *quota) ends() time.Time { return q.period.Add(q.span) }

// RateLimiter counts requests per key in fixed periods aligned to the clock,
// so every requester's budget renews at the same instants.
type RateLimiter struct {
	mu     sync.Mutex
	quotas map[string]*quota
	now    func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		quotas: make(map[string]*quota),
		now:    time.Now,
	}
}

// Take spends one request from key's budget of limit per span. When the
// budget is exhausted it reports false with the time left until it renews.
func (rl *RateLimiter) Take(key string, limit int, span time.Duration) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	period := now.Truncate(span)
	q := rl.quotas[key]
	if q == nil || q.span != span || !q.period.Equal(period) {
		q = &quota{period: period, span: span}
		rl.quotas[key] = q
	}
	if q.used >= limit {
		return false, q.ends().Sub(now)
	}
	q.used++
	return true, 0
}

// Prune drops quotas whose period has ended and reports how many remain.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, q := range rl.quotas {
		if !now.Before(q.ends()) {
			delete(rl.quotas, key)
		}
	}
	return len(rl.quotas)
}

// Run prunes every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

// RateLimit returns middleware that rate-limits requests by a key function.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, wait := limiter.Take(keyFunc(r), limit, d); !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				writeDetail(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
