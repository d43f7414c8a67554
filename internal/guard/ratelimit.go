package guard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter implements a sliding window rate limiter keyed by caller.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     clock
}

// NewRateLimiter creates a rate limiter with the given limit per window.
// A non-positive limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check records a request for key and reports whether it is within the limit.
func (rl *RateLimiter) Check(_ context.Context, key string) Result {
	if rl == nil || rl.limit <= 0 {
		return allow()
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return Result{
			Reason: fmt.Sprintf("slow down: at most %d commands per %s", rl.limit, rl.window),
			Guard:  "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return allow()
}
