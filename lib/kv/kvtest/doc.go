// Package kvtest provides a reusable conformance test suite for kv.Backend
// implementations plus a scriptable fake backend for unit tests of the
// layers built on top of the adapter.
//
// RunBackendTests exercises the full backend contract (batched get/set/
// remove, full scans, byte accounting and all three quota classes) and is
// run by every real backend implementation in its own package test.
//
// Fake records every write call and lets tests inject failures for
// specific operations, which is how the coalescer and store tests verify
// batching, supersession and backoff behavior deterministically.
package kvtest
