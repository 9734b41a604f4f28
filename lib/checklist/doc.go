// Package checklist persists a task checklist and per-task timer state on
// a byte-limited, rate-limited key-value backend, giving callers a simple
// save/load contract that never loses data silently.
//
// The package focuses on:
//   - Chunked storage of the task collection: the encoded collection is
//     partitioned into the minimum number of chunks that fit the backend's
//     per-item byte limit, described by a single index record that is the
//     sole authority on which chunk keys are live
//   - Per-task timer records stored under their own keys so rapid timer
//     ticks never rewrite the chunked collection
//   - Crash-visible recovery: a corrupt index yields an empty collection, a
//     corrupt chunk or task record is dropped with a warning, and a load
//     never fails because of one bad record
//
// Key Components:
//
//   - Store: the facade collaborators hold. All writes funnel through one
//     writeq.Queue, so a save is a batch of per-key enqueues that lands as
//     one physical Set whenever it fits the batch cap, and repeated saves
//     coalesce to the newest collection.
//
//   - Validation: ValidateTask and ValidateTimerState guard both
//     directions. Invalid values are rejected before they are enqueued and
//     dropped (with a warning) when read back.
//
//   - Quota helpers: StorageInfo and NearLimit let the UI warn users above
//     80% usage; saves whose serialized size cannot fit the total quota
//     fail fast with a QuotaExceededError instead of attempting a partial
//     write.
//
// Error Semantics:
//
// ErrSuperseded (see the writeq package) is the expected outcome of a
// write replaced by a newer one and is swallowed by well-behaved callers.
// Quota and rate violations reject the affected receipts and stretch the
// queue's flush delay; any other backend failure propagates untouched.
package checklist
