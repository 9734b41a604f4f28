package writeq

import (
	"math"
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// rateWindow is the sliding window the backend enforces its
	// write-frequency limit over.
	rateWindow = time.Minute
	// deferThreshold is the fraction of the write budget the queue is
	// willing to consume before it starts deferring flushes. Staying
	// below the hard limit keeps headroom for writes the queue does not
	// control (e.g. another extension context).
	deferThreshold = 0.8
)

// --------------------------------------------------------------------------
// Rate Limiter
// --------------------------------------------------------------------------

// RateLimiter tracks successful backend writes over a sliding window and
// tells the flush loop when to back off before the backend would start
// rejecting.
type RateLimiter struct {
	mu      sync.Mutex
	max     int // writes allowed per window, <= 0 disables the limiter
	history []time.Time
}

// NewRateLimiter creates a limiter for a backend allowing maxPerMinute
// write operations in any sliding 60 second window.
func NewRateLimiter(maxPerMinute int) *RateLimiter {
	return &RateLimiter{max: maxPerMinute}
}

// ShouldDefer reports whether a flush at the given time should be skipped
// because the window budget is nearly exhausted. The pending queue is left
// untouched by a deferred flush; the next cycle simply retries.
func (r *RateLimiter) ShouldDefer(now time.Time) bool {
	if r.max <= 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(now)
	budget := int(math.Ceil(deferThreshold * float64(r.max)))
	return len(r.history) >= budget
}

// RecordWrite adds a timestamp to the history. It must only be called
// after a backend Set succeeded; failed writes do not consume backend
// budget.
func (r *RateLimiter) RecordWrite(now time.Time) {
	if r.max <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(now)
	r.history = append(r.history, now)
}

// WindowCount returns the number of recorded writes still inside the
// window at the given time.
func (r *RateLimiter) WindowCount(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(now)
	return len(r.history)
}

// prune drops timestamps that fell out of the sliding window. Callers must
// hold r.mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rateWindow)
	keep := r.history[:0]
	for _, ts := range r.history {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	r.history = keep
}
