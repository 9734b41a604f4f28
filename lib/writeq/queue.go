package writeq

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/logging"
	"github.com/penpenguin/PetaTas-sub000/lib/sched"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricFlushedWrites   = metrics.NewCounter(`petatas_writeq_flushed_writes_total`)
	metricSupersededWrite = metrics.NewCounter(`petatas_writeq_superseded_writes_total`)
	metricDeferredFlushes = metrics.NewCounter(`petatas_writeq_deferred_flushes_total`)
	metricFailedFlushes   = metrics.NewCounter(`petatas_writeq_failed_flushes_total`)
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the write queue.
type Options struct {
	// WriteThrottle is the minimum spacing between flush attempts and the
	// delay between the first enqueue into an empty queue and its flush.
	WriteThrottle time.Duration
	// MaxWritesPerMinute is the backend's write-frequency budget the
	// limiter protects. <= 0 disables deferral.
	MaxWritesPerMinute int
	// BatchSize caps how many keys a single flush sends in one Set call.
	BatchSize int
	// BackoffFactor stretches the next flush delay after the backend
	// rejected a batch for quota or rate reasons.
	BackoffFactor int
}

// DefaultOptions returns the default write queue options, tuned for
// extension sync storage limits.
func DefaultOptions() *Options {
	return &Options{
		WriteThrottle:      2 * time.Second,
		MaxWritesPerMinute: kv.DefaultLimits().MaxWriteOperationsPerMinute,
		BatchSize:          10,
		BackoffFactor:      3,
	}
}

func (o *Options) withDefaults() Options {
	out := *o
	defaults := DefaultOptions()
	if out.WriteThrottle <= 0 {
		out.WriteThrottle = defaults.WriteThrottle
	}
	if out.BatchSize <= 0 {
		out.BatchSize = defaults.BatchSize
	}
	if out.BackoffFactor <= 1 {
		out.BackoffFactor = defaults.BackoffFactor
	}
	return out
}

// --------------------------------------------------------------------------
// Core write queue structure
// --------------------------------------------------------------------------

// Queue is a per-key coalescing, throttled write queue in front of a
// kv.Backend. For every key at most one payload is pending at any instant;
// enqueueing a key again rejects the earlier receipt with ErrSuperseded and
// replaces the payload, so the backend only ever sees the newest value.
//
// A single flush timer serves the whole queue. It is armed when the queue
// turns non-empty and re-armed after every flush cycle that leaves entries
// behind, either because the batch cap was hit or because entries arrived
// while flushing.
type Queue struct {
	backend kv.Backend
	sched   sched.Scheduler
	logger  *slog.Logger
	opts    Options
	limiter *RateLimiter

	pending *xsync.MapOf[string, *pendingWrite]

	mu      sync.Mutex // guards timer arming and backoff state
	armed   bool
	handle  sched.Handle
	backoff bool
	closed  bool

	flushMu sync.Mutex // serializes flush cycles
}

// pendingWrite is the queue's record of one not-yet-flushed payload.
type pendingWrite struct {
	key        string
	payload    []byte
	receipt    *Receipt
	enqueuedAt time.Time
}

// New creates a write queue in front of the given backend. A nil options
// pointer selects DefaultOptions; a nil logger disables diagnostics.
func New(backend kv.Backend, scheduler sched.Scheduler, logger *slog.Logger, opts *Options) *Queue {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	resolved := opts.withDefaults()

	return &Queue{
		backend: backend,
		sched:   scheduler,
		logger:  logger,
		opts:    resolved,
		limiter: NewRateLimiter(resolved.MaxWritesPerMinute),
		pending: xsync.NewMapOf[string, *pendingWrite](),
	}
}

// Limiter exposes the queue's rate limiter for introspection.
func (q *Queue) Limiter() *RateLimiter {
	return q.limiter
}

// Len returns the number of pending writes.
func (q *Queue) Len() int {
	return q.pending.Size()
}

// --------------------------------------------------------------------------
// Enqueue / Discard
// --------------------------------------------------------------------------

// Enqueue queues payload for key, replacing any still-pending payload for
// the same key (whose receipt settles with ErrSuperseded). The returned
// receipt settles once the payload was flushed, superseded or failed.
func (q *Queue) Enqueue(key string, payload []byte) *Receipt {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Resolved(kv.NewError(kv.RetCInternalError, "write queue is closed"))
	}
	q.mu.Unlock()

	write := &pendingWrite{
		key:        key,
		payload:    payload,
		receipt:    newReceipt(),
		enqueuedAt: q.sched.Now(),
	}

	if old, loaded := q.pending.LoadAndStore(key, write); loaded {
		old.receipt.resolve(ErrSuperseded)
		metricSupersededWrite.Inc()
	}

	// The queue may have closed between the check above and the store. The
	// drain loop saw q.closed before scanning, so an entry landing here can
	// slip past it; sweep it out ourselves or its receipt never settles.
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if cur, ok := q.pending.LoadAndDelete(key); ok {
			cur.receipt.resolve(kv.NewError(kv.RetCInternalError, "write queue is closed"))
		}
		return write.receipt
	}
	if !q.armed {
		q.armLocked(q.nextDelayLocked())
	}
	q.mu.Unlock()

	return write.receipt
}

// Discard drops any pending writes for the given keys before they reach
// the backend, settling their receipts with ErrSuperseded. It returns how
// many writes were dropped. Used when keys are removed so a queued write
// cannot resurrect them.
func (q *Queue) Discard(keys ...string) int {
	dropped := 0
	for _, key := range keys {
		if write, ok := q.pending.LoadAndDelete(key); ok {
			write.receipt.resolve(ErrSuperseded)
			metricSupersededWrite.Inc()
			dropped++
		}
	}
	return dropped
}

// DiscardPrefix drops every pending write whose key starts with prefix.
func (q *Queue) DiscardPrefix(prefix string) int {
	var keys []string
	q.pending.Range(func(key string, _ *pendingWrite) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	return q.Discard(keys...)
}

// --------------------------------------------------------------------------
// Flush cycle
// --------------------------------------------------------------------------

// flushCycle runs when the flush timer fires. Exactly one cycle runs at a
// time; entries enqueued while a cycle is in progress are picked up by the
// next one, never lost and never double-sent.
func (q *Queue) flushCycle() {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	q.armed = false
	q.mu.Unlock()

	now := q.sched.Now()
	if q.limiter.ShouldDefer(now) {
		metricDeferredFlushes.Inc()
		q.logger.Warn("write rate near backend limit, deferring flush",
			"pending", q.pending.Size(),
			"windowWrites", q.limiter.WindowCount(now))
		q.rearmIfPending()
		return
	}

	// Drain up to BatchSize entries. A key replaced between Range and
	// LoadAndDelete simply contributes its newer payload here.
	keys := make([]string, 0, q.opts.BatchSize)
	q.pending.Range(func(key string, _ *pendingWrite) bool {
		keys = append(keys, key)
		return len(keys) < q.opts.BatchSize
	})

	batch := make(map[string][]byte, len(keys))
	writes := make([]*pendingWrite, 0, len(keys))
	for _, key := range keys {
		if write, ok := q.pending.LoadAndDelete(key); ok {
			batch[key] = write.payload
			writes = append(writes, write)
		}
	}

	if len(batch) == 0 {
		q.rearmIfPending()
		return
	}

	err := q.backend.Set(context.Background(), batch)
	if err != nil {
		metricFailedFlushes.Inc()
		if kv.IsThrottleError(err) {
			q.logger.Warn("Storage quota exceeded, increasing throttle delay",
				"error", err, "batchSize", len(batch))
			q.mu.Lock()
			q.backoff = true
			q.mu.Unlock()
		} else {
			q.logger.Error("flush failed", "error", err, "batchSize", len(batch))
		}
		for _, write := range writes {
			write.receipt.resolve(err)
		}
	} else {
		q.limiter.RecordWrite(now)
		metricFlushedWrites.Add(len(batch))
		for _, write := range writes {
			write.receipt.resolve(nil)
		}
	}

	q.rearmIfPending()
}

// rearmIfPending arms the flush timer again when entries remain and no
// timer is currently armed.
func (q *Queue) rearmIfPending() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.armed && !q.closed && q.pending.Size() > 0 {
		q.armLocked(q.nextDelayLocked())
	}
}

// nextDelayLocked returns the delay for the next flush, consuming a
// pending backoff. Callers must hold q.mu.
func (q *Queue) nextDelayLocked() time.Duration {
	if q.backoff {
		q.backoff = false
		return q.opts.WriteThrottle * time.Duration(q.opts.BackoffFactor)
	}
	return q.opts.WriteThrottle
}

// armLocked schedules the next flush cycle. Callers must hold q.mu.
func (q *Queue) armLocked(delay time.Duration) {
	q.armed = true
	q.handle = q.sched.Schedule(delay, q.flushCycle)
}

// --------------------------------------------------------------------------
// Shutdown
// --------------------------------------------------------------------------

// Close stops the flush timer and drains every pending write synchronously
// in batch-sized Set calls, so a process exit loses nothing. The first
// backend error is returned; receipts of unflushed writes settle with it.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	if q.handle != nil {
		q.handle.Cancel()
	}
	q.armed = false
	q.mu.Unlock()

	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	var firstErr error
	for q.pending.Size() > 0 {
		keys := make([]string, 0, q.opts.BatchSize)
		q.pending.Range(func(key string, _ *pendingWrite) bool {
			keys = append(keys, key)
			return len(keys) < q.opts.BatchSize
		})

		batch := make(map[string][]byte, len(keys))
		writes := make([]*pendingWrite, 0, len(keys))
		for _, key := range keys {
			if write, ok := q.pending.LoadAndDelete(key); ok {
				batch[key] = write.payload
				writes = append(writes, write)
			}
		}
		if len(batch) == 0 {
			break
		}

		err := q.backend.Set(ctx, batch)
		for _, write := range writes {
			write.receipt.resolve(err)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			q.logger.Error("drain on close failed", "error", err, "batchSize", len(batch))
		}
	}
	return firstErr
}
