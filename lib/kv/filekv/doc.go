// Package filekv implements a kv.Backend persisted as a single JSON
// snapshot file, used by the CLI to keep state between invocations.
//
// Quota enforcement is delegated to an inner memory backend; after every
// successful mutation the full state is written to a temporary file and
// renamed into place, so a crash mid-write never leaves a torn snapshot
// behind. A corrupt snapshot fails the open rather than being silently
// discarded.
package filekv
