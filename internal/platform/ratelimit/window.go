package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until a slot frees up; zero when allowed.
	RetryAfter int
}

// Windows is an in-process sliding-window counter keyed by caller. It is
// not shared between replicas.
type Windows struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewWindows() *Windows {
	return &Windows{buckets: make(map[string][]time.Time), now: time.Now}
}

// Allow records a hit for key when fewer than limit hits fall inside the
// trailing window.
func (w *Windows) Allow(key string, limit int, window time.Duration) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	hits := prune(w.buckets[key], now.Add(-window))

	if len(hits) >= limit {
		w.buckets[key] = hits
		resetAt := now.Add(window)
		if len(hits) > 0 {
			resetAt = hits[0].Add(window)
		}
		return Result{
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: max(1, int(resetAt.Sub(now).Round(time.Second)/time.Second)),
		}
	}

	hits = append(hits, now)
	w.buckets[key] = hits
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(hits),
		ResetAt:   hits[0].Add(window),
	}
}

// Count returns the hits for key still inside window.
func (w *Windows) Count(key string, window time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	hits := prune(w.buckets[key], w.now().Add(-window))
	w.buckets[key] = hits
	return len(hits)
}

// prune drops timestamps at or before cutoff. hits is sorted ascending.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(hits); i++ {
		if hits[i].After(cutoff) {
			break
		}
	}
	return hits[i:]
}
