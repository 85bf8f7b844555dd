package middleware

import (
	"context"
	"sync"
	"time"
)

// InvalidAuthRateLimiter counts failed logins per key (client IP) and
// blocks further attempts once the limit is hit within the window.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter allows 5 failures per minute. The cleanup loop
// stops with ctx.
func NewInvalidAuthRateLimiter(ctx context.Context) *InvalidAuthRateLimiter {
	rl := &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    5,
		window:   time.Minute,
	}
	go rl.cleanup(ctx)
	return rl
}

// Blocked reports whether key has used up its failures for the current window.
func (r *InvalidAuthRateLimiter) Blocked(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.attempts[key]
	if !ok || time.Since(info.firstAt) > r.window {
		return false
	}
	return info.count >= r.limit
}

// Fail records a failed attempt.
func (r *InvalidAuthRateLimiter) Fail(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, ok := r.attempts[key]
	if !ok || now.Sub(info.firstAt) > r.window {
		r.attempts[key] = &attemptInfo{count: 1, firstAt: now}
		return
	}
	info.count++
}

// Reset forgets key after a successful login.
func (r *InvalidAuthRateLimiter) Reset(key string) {
	r.mu.Lock()
	delete(r.attempts, key)
	r.mu.Unlock()
}

func (r *InvalidAuthRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for key, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, key)
				}
			}
			r.mu.Unlock()
		}
	}
}
