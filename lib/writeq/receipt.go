package writeq

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded rejects a pending write whose key was enqueued again before
// the payload was ever sent to the backend. Callers racing their own timer
// ticks are expected to swallow it; the newer write carries their data.
var ErrSuperseded = errors.New("Write operation replaced by newer write")

// Receipt tracks the outcome of one enqueued write. It is resolved exactly
// once: either when the payload was flushed to the backend (nil error),
// when the flush failed, or when a newer write for the same key superseded
// it (ErrSuperseded).
type Receipt struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newReceipt() *Receipt {
	return &Receipt{done: make(chan struct{})}
}

// resolve settles the receipt. Only the first call has any effect.
func (r *Receipt) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done returns a channel that is closed once the write was flushed,
// superseded or failed.
func (r *Receipt) Done() <-chan struct{} {
	return r.done
}

// Err returns the outcome of the write. It must only be called after Done
// is closed.
func (r *Receipt) Err() error {
	return r.err
}

// Wait blocks until the write settles or the context is cancelled.
// Cancellation does not cancel the write itself; a payload already handed
// to the queue is flushed or superseded regardless.
func (r *Receipt) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolved returns a receipt that is already settled with the given error.
func Resolved(err error) *Receipt {
	r := newReceipt()
	r.resolve(err)
	return r
}

// Join aggregates several receipts into one: the joined receipt settles
// once all inputs settled and carries the first error among them in
// argument order (nil when every write landed).
func Join(receipts ...*Receipt) *Receipt {
	if len(receipts) == 1 {
		return receipts[0]
	}

	joined := newReceipt()
	go func() {
		var firstErr error
		for _, r := range receipts {
			<-r.Done()
			if firstErr == nil {
				firstErr = r.Err()
			}
		}
		joined.resolve(firstErr)
	}()
	return joined
}
