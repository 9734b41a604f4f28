// Package kv defines the narrow adapter interface between the persistence
// core and a byte- and rate-limited key-value host, together with a unified
// error system for quota and write-rate violations.
//
// The package focuses on:
//   - A minimal interface (Backend) covering exactly the four operations the
//     store needs: batched Get, batched Set, batched Remove and BytesInUse
//   - A Limits struct describing the quota envelope of a backend (total
//     bytes, bytes per item, write operations per minute)
//   - Typed errors (Error with RetCode) plus substring-based classifiers so
//     that failures of foreign backends can be recognized as well
//
// Key Components:
//
//   - Backend Interface: The core abstraction all storage adapters
//     implement. Keeping it this narrow keeps the write coalescing and
//     chunking logic portable and independently testable against a fake
//     adapter.
//
//   - Error System: Backend implementations report quota violations with
//     stable message substrings (QUOTA_BYTES, QUOTA_BYTES_PER_ITEM,
//     MAX_WRITE_OPERATIONS_PER_MINUTE). IsQuotaError and IsRateLimitError
//     first inspect the typed error code and fall back to substring
//     matching, since host platforms surface these conditions as plain
//     error strings.
//
// Implementations:
//
//	The repository includes two implementations of the Backend interface:
//
//	- Memory Backend (memkv): An in-memory implementation that enforces
//	  the full quota envelope. It is the default for tests and short-lived
//	  tooling. Available in the
//	  "github.com/penpenguin/PetaTas-sub000/lib/kv/memkv" package.
//
//	- File Backend (filekv): A single-file JSON snapshot implementation
//	  with atomic rewrite on every mutation, used by the CLI to persist
//	  between invocations. Available in the
//	  "github.com/penpenguin/PetaTas-sub000/lib/kv/filekv" package.
package kv
