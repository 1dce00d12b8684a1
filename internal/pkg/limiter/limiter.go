/*
Package limiter throttles message submissions to the local view API.

It keeps one token bucket (rate.Limiter) per client address and periodically
drops buckets that have refilled, so idle clients do not accumulate memory.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatview/internal/pkg/errs"
	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/resp"
)

// cleanupInterval is how often idle buckets are swept.
const cleanupInterval = 3 * time.Minute

// KeyedLimiter rate limits events per key (a client address for the view API).
type KeyedLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a key to its token bucket.
	limits map[string]*rate.Limiter

	// r is the number of events allowed per second for each key.
	r rate.Limit

	// b is the burst size for each key.
	b int
}

// New creates a KeyedLimiter allowing r events per second with burst b per key.
// Idle buckets are swept until ctx is done.
func New(ctx context.Context, r rate.Limit, b int) *KeyedLimiter {
	l := &KeyedLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.sweepLoop(ctx)

	return l
}

// Get returns the bucket for key, creating it on first use.
func (l *KeyedLimiter) Get(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists = l.limits[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limits[key] = limiter
	}

	return limiter
}

// Allow reports whether one more event for key fits in its bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.Get(key).Allow()
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limits)
}

func (l *KeyedLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, remaining := l.sweep(now)
			logx.Debug("Rate limiter sweep finished.", "removed", removed, "remaining", remaining)
		}
	}
}

// sweep drops every bucket that is full at now, meaning its key has been idle.
func (l *KeyedLimiter) sweep(now time.Time) (removed, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, key)
			removed++
		}
	}

	return removed, len(l.limits)
}

// Middleware rejects requests over the per-address limit with ErrRateLimitExceeded.
func (l *KeyedLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !l.Allow(ip) {
			logx.Warn("Submission rejected: rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
