package checklist

import (
	"errors"
	"fmt"

	"github.com/penpenguin/PetaTas-sub000/lib/writeq"
)

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// ValidationError rejects a malformed Task or TimerState before it is ever
// enqueued; nothing invalid reaches the backend.
type ValidationError struct {
	Entity string // "task" or "timer state"
	ID     string // offending entity id, may be empty
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Entity, e.ID, e.Reason)
}

// QuotaExceededError rejects a save whose serialized form cannot fit the
// backend's budget, before any partial write is attempted.
type QuotaExceededError struct {
	Scope string // "item" or "total"
	Bytes int    // serialized size that was required
	Limit int    // budget it collided with
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %d bytes against %s limit of %d", e.Bytes, e.Scope, e.Limit)
}

// --------------------------------------------------------------------------
// Classification
// --------------------------------------------------------------------------

// IsSuperseded reports whether err is the expected outcome of a write that
// was replaced by a newer write for the same key. Well-behaved callers
// swallow it rather than surfacing a failure.
func IsSuperseded(err error) bool {
	return errors.Is(err, writeq.ErrSuperseded)
}
