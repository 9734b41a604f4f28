// Package writeq implements a per-key coalescing, throttled, rate-aware
// write queue in front of a kv.Backend.
//
// The package focuses on:
//   - Last-write-wins coalescing: at most one payload is pending per key;
//     re-enqueueing a key settles the earlier receipt with ErrSuperseded
//     and the backend only ever observes the newest value
//   - A single flush timer for the whole queue, armed when the queue turns
//     non-empty and firing after the configured write throttle; each cycle
//     sends up to a batch cap of keys in one combined Set call
//   - A sliding-window RateLimiter that defers flushes once a fraction of
//     the backend's write-frequency budget is consumed, and a backoff path
//     that stretches the next flush delay after the backend rejected a
//     batch for quota or rate reasons
//
// Key Components:
//
//   - Queue: owns the pending-write map, the flush timer and the limiter.
//     Timer scheduling goes through the sched.Scheduler abstraction, so
//     tests drive the throttle and backoff timing deterministically with a
//     manual clock.
//
//   - Receipt: the per-write outcome. Enqueue returns immediately; callers
//     that care about durability wait on the receipt, callers racing their
//     own updates (timer ticks against status toggles) swallow
//     ErrSuperseded as the expected outcome.
//
//   - RateLimiter: records a timestamp per successful backend Set and
//     reports, against a 60 second sliding window, when flushing should
//     pause. Failed writes never consume budget.
//
// Entries enqueued while a flush is in progress are picked up by the next
// cycle, never lost and never double-sent. There is no cancellation of an
// in-flight backend call; discarding only ever applies to payloads that
// were not yet sent.
package writeq
