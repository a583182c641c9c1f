// Package rate provides the per-identifier login throttle. Limits are kept
// in process: login attempts are already serialized per identifier by the
// cache-backed session flow, so a distributed counter buys little here.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneAfter is how long an idle identifier's limiter is retained.
const pruneAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces a token-bucket budget per identifier.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
}

// New creates a [Limiter] allowing attempts requests per window, with the
// whole budget available as a burst.
func New(attempts int, window time.Duration) *Limiter {
	if attempts < 1 {
		attempts = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   rate.Every(window / time.Duration(attempts)),
		burst:   attempts,
	}
}

// Allow reports whether the identifier still has attempt budget and
// consumes one attempt if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.entries[key]
	if !ok {
		l.prune(now)
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

// prune drops idle entries. Called with the lock held, only on the
// new-identifier path to keep the hot path allocation-free.
func (l *Limiter) prune(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > pruneAfter {
			delete(l.entries, key)
		}
	}
}
