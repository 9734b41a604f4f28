package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/penpenguin/PetaTas-sub000/lib/codec"
	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/logging"
	"github.com/penpenguin/PetaTas-sub000/lib/sched"
	"github.com/penpenguin/PetaTas-sub000/lib/writeq"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a Store during initialization.
type Options struct {
	// WriteThrottle overrides the coalescer's flush delay (default 2s).
	WriteThrottle time.Duration
	// MaxWritesPerMinute overrides the write budget the coalescer
	// protects (default: the backend's limit).
	MaxWritesPerMinute int
	// Codec selects the record encoding (default json).
	Codec codec.Codec
	// Scheduler drives flush timers and timestamps (default OS timers).
	Scheduler sched.Scheduler
	// Logger receives operational warnings (default: discard).
	Logger *slog.Logger
}

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// Store persists a task checklist and per-task timer state on a
// size-bounded, rate-limited key-value backend. The task collection is
// written as bounded chunks plus an index record; every write funnels
// through one coalescing queue so rapid updates collapse to the newest
// value.
//
// Construct it once per process and hand it by reference to whichever
// component needs persistence.
type Store struct {
	backend kv.Backend
	queue   *writeq.Queue
	codec   codec.Codec
	sched   sched.Scheduler
	logger  *slog.Logger

	mu            sync.Mutex
	lastChunkKeys []string // chunk keys of the newest save handed to the queue
}

// New creates a store on top of the given backend. A nil options pointer
// selects all defaults.
func New(backend kv.Backend, opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = sched.NewTimerScheduler()
	}
	recordCodec := opts.Codec
	if recordCodec == nil {
		recordCodec = codec.NewJSONCodec()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	queueOpts := writeq.DefaultOptions()
	if opts.WriteThrottle > 0 {
		queueOpts.WriteThrottle = opts.WriteThrottle
	}
	if opts.MaxWritesPerMinute != 0 {
		queueOpts.MaxWritesPerMinute = opts.MaxWritesPerMinute
	} else {
		queueOpts.MaxWritesPerMinute = backend.Limits().MaxWriteOperationsPerMinute
	}

	return &Store{
		backend: backend,
		queue:   writeq.New(backend, scheduler, logger, queueOpts),
		codec:   recordCodec,
		sched:   scheduler,
		logger:  logger,
	}
}

// Queue exposes the underlying write queue, mainly for tests and tooling.
func (s *Store) Queue() *writeq.Queue {
	return s.queue
}

// Close drains every pending write to the backend and releases it.
func (s *Store) Close(ctx context.Context) error {
	if err := s.queue.Close(ctx); err != nil {
		return err
	}
	return s.backend.Close()
}

// --------------------------------------------------------------------------
// Task collection
// --------------------------------------------------------------------------

// SaveTasks validates and persists the whole task collection, replacing
// whatever was stored before. The write is chunked, coalesced and
// throttled; the returned receipt settles once the collection landed on the
// backend (or was superseded by a newer save).
//
// A collection too large for the backend's total quota fails fast with a
// *QuotaExceededError before anything is enqueued.
func (s *Store) SaveTasks(tasks []Task) (*writeq.Receipt, error) {
	chunks, idx, err := s.buildChunks(tasks)
	if err != nil {
		return nil, err
	}

	encodedIdx, err := s.codec.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}

	totalBytes := kv.ItemSize(indexKey, encodedIdx)
	for key, payload := range chunks {
		totalBytes += kv.ItemSize(key, payload)
	}
	if limit := s.backend.Limits().QuotaBytes; totalBytes > limit {
		return nil, &QuotaExceededError{Scope: "total", Bytes: totalBytes, Limit: limit}
	}

	// Enqueue all keys of this save back to back so they land in a single
	// physical Set whenever they fit under the batch cap: an observer must
	// not see a fresh index pointing at not-yet-written chunks.
	receipts := make([]*writeq.Receipt, 0, len(idx.Chunks)+1)
	for _, key := range idx.Chunks {
		receipts = append(receipts, s.queue.Enqueue(key, chunks[key]))
	}
	receipts = append(receipts, s.queue.Enqueue(indexKey, encodedIdx))
	joined := writeq.Join(receipts...)

	s.mu.Lock()
	stale := missingFrom(s.lastChunkKeys, idx.Chunks)
	s.lastChunkKeys = idx.Chunks
	s.mu.Unlock()

	if len(stale) > 0 {
		// A shrinking save leaves chunk keys behind that the new index no
		// longer references. Drop any still-queued writes for them and
		// reclaim the stored ones once the new collection landed.
		s.queue.Discard(stale...)
		go func() {
			if err := joined.Wait(context.Background()); err != nil {
				return
			}
			if err := s.backend.Remove(context.Background(), stale); err != nil {
				s.logger.Warn("failed to reclaim stale chunks", "keys", stale, "error", err)
			}
		}()
	}

	return joined, nil
}

// maxTotalHint caps how far a decoded index's Total may size the result
// allocation. Collections are bounded by the byte quota long before this.
const maxTotalHint = 4096

// LoadTasks reads the stored collection. A missing or undecodable index
// yields an empty list; individual corrupt or invalid records are dropped
// with a warning instead of failing the whole load.
func (s *Store) LoadTasks(ctx context.Context) ([]Task, error) {
	res, err := s.backend.Get(ctx, []string{indexKey})
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	raw, ok := res[indexKey]
	if !ok {
		return []Task{}, nil
	}

	var idx chunkIndex
	if err := s.codec.Unmarshal(raw, &idx); err != nil {
		s.logger.Warn("task index is corrupt, treating collection as empty", "error", err)
		return []Task{}, nil
	}
	if idx.Total < 0 {
		s.logger.Warn("task index is corrupt, treating collection as empty", "total", idx.Total)
		return []Task{}, nil
	}
	if len(idx.Chunks) == 0 {
		return []Task{}, nil
	}

	chunkRes, err := s.backend.Get(ctx, idx.Chunks)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}

	// Total is untrusted input; use it only as a capped allocation hint.
	tasks := make([]Task, 0, min(idx.Total, maxTotalHint))
	for _, key := range idx.Chunks {
		payload, ok := chunkRes[key]
		if !ok {
			s.logger.Warn("chunk referenced by index is missing", "key", key)
			continue
		}
		var record chunkRecord
		if err := s.codec.Unmarshal(payload, &record); err != nil {
			s.logger.Warn("dropping undecodable chunk", "key", key, "error", err)
			continue
		}
		for i, entry := range record.Entries {
			var task Task
			if err := s.codec.Unmarshal(entry, &task); err != nil {
				s.logger.Warn("dropping undecodable task record", "key", key, "entry", i, "error", err)
				continue
			}
			if err := ValidateTask(task); err != nil {
				s.logger.Warn("dropping invalid task record", "key", key, "entry", i, "error", err)
				continue
			}
			normalizeTask(&task)
			tasks = append(tasks, task)
		}
	}

	if len(tasks) != idx.Total {
		s.logger.Warn("task collection recovered partially",
			"expected", idx.Total, "recovered", len(tasks))
	}
	return tasks, nil
}

// ClearTasks removes the index and every chunk, including orphaned chunks
// an interrupted earlier process may have left behind.
func (s *Store) ClearTasks(ctx context.Context) error {
	s.queue.Discard(indexKey)
	s.queue.DiscardPrefix(chunkKeyPrefix)

	keys, err := s.chunkKeysInUse(ctx)
	if err != nil {
		return err
	}
	keys = append(keys, indexKey)

	if err := s.backend.Remove(ctx, keys); err != nil {
		return fmt.Errorf("remove task records: %w", err)
	}

	s.mu.Lock()
	s.lastChunkKeys = nil
	s.mu.Unlock()
	return nil
}

// chunkKeysInUse lists all stored chunk keys, preferring a full scan (which
// also finds orphans) and falling back to the index when the backend cannot
// scan.
func (s *Store) chunkKeysInUse(ctx context.Context) ([]string, error) {
	all, err := s.backend.Get(ctx, nil)
	if err == nil {
		var keys []string
		for key := range all {
			if strings.HasPrefix(key, chunkKeyPrefix) {
				keys = append(keys, key)
			}
		}
		return keys, nil
	}

	res, err := s.backend.Get(ctx, []string{indexKey})
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	raw, ok := res[indexKey]
	if !ok {
		return nil, nil
	}
	var idx chunkIndex
	if err := s.codec.Unmarshal(raw, &idx); err != nil {
		return nil, nil
	}
	return idx.Chunks, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// missingFrom returns the elements of old that do not appear in new.
func missingFrom(old, new []string) []string {
	if len(old) == 0 {
		return nil
	}
	current := make(map[string]struct{}, len(new))
	for _, key := range new {
		current[key] = struct{}{}
	}
	var missing []string
	for _, key := range old {
		if _, ok := current[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

