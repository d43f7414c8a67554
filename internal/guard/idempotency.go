package guard

import (
	"context"
	"sync"
	"time"
)

// IdempotencyGuard drops repeated deliveries of the same request key seen
// within ttl. Chat platforms retry webhooks they consider slow.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  clock
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Check returns whether the given key has already been processed.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) Result {
	if ig == nil || key == "" {
		return allow()
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := ig.now()
	for k, at := range ig.seen {
		if now.Sub(at) > ig.ttl {
			delete(ig.seen, k)
		}
	}

	if _, ok := ig.seen[key]; ok {
		return Result{
			Reason: "duplicate request: already processed",
			Guard:  "idempotency",
		}
	}

	ig.seen[key] = now
	return allow()
}

// Remove forgets key so a failed request can be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	if ig == nil {
		return
	}
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
