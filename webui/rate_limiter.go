package webui

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// attemptRecord counts requests in the current window for one client.
type attemptRecord struct {
	count   int
	resetAt time.Time
}

func (a attemptRecord) expired(now time.Time) bool {
	return !now.Before(a.resetAt)
}

// RateLimiter allows at most limit events per client per window.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]attemptRecord
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter. A non-positive limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string]attemptRecord),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records one event for key. It returns false, with the time until the
// window resets, once the limit is exceeded.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	if r.limit <= 0 {
		return true, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec, ok := r.attempts[key]
	if !ok || rec.expired(now) {
		rec = attemptRecord{resetAt: now.Add(r.window)}
	}
	if rec.count >= r.limit {
		return false, rec.resetAt.Sub(now)
	}
	rec.count++
	r.attempts[key] = rec
	return true, 0
}

// Blocked reports whether key is over the limit without recording an event.
func (r *RateLimiter) Blocked(key string) (bool, time.Duration) {
	if r.limit <= 0 {
		return false, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec, ok := r.attempts[key]
	if !ok || rec.expired(now) || rec.count < r.limit {
		return false, 0
	}
	return true, rec.resetAt.Sub(now)
}

// Reset forgets key.
func (r *RateLimiter) Reset(key string) {
	r.mu.Lock()
	delete(r.attempts, key)
	r.mu.Unlock()
}

// Cleanup drops expired records and returns how many were removed.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, rec := range r.attempts {
		if rec.expired(now) {
			delete(r.attempts, key)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is done.
func (r *RateLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// Count returns the number of tracked clients.
func (r *RateLimiter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

// Middleware rejects clients over the limit with 429 and Retry-After.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ok, wait := r.Allow(clientIP(req)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many summarization requests, try again shortly")
			return
		}
		next.ServeHTTP(w, req)
	})
}
