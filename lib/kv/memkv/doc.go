// Package memkv implements an in-memory kv.Backend that enforces the full
// quota envelope of a restrictive host backend: per-item byte limits, a
// total byte quota and a sliding-window write-rate limit.
//
// The implementation keeps stored items in a lock-free concurrent map so
// reads and full scans never contend with writers, while all write
// operations are serialized through a single mutex so quota accounting
// stays exact. A batch Set is all-or-nothing: if any item in the batch
// violates a quota, no item is stored.
//
// The clock used for write-rate accounting is injectable through Options,
// which lets tests drive the sliding window deterministically.
package memkv
