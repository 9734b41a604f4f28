package memkv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const writeRateWindow = time.Minute

// --------------------------------------------------------------------------
// Core memory backend structure
// --------------------------------------------------------------------------

// memImpl implements kv.Backend fully in memory while enforcing the same
// quota envelope a restrictive host backend would.
type memImpl struct {
	limits kv.Limits
	now    func() time.Time

	data *xsync.MapOf[string, []byte] // Map of stored items, lock-free reads

	// write accounting (total bytes, write-rate history). Writes are
	// serialized so quota checks and mutations stay consistent.
	mu         sync.Mutex
	totalBytes int
	writeLog   []time.Time
}

// Options configures the memory backend during initialization.
type Options struct {
	Limits kv.Limits        // Quota envelope to enforce (zero value = kv.DefaultLimits)
	Now    func() time.Time // Clock used for write-rate accounting (nil = time.Now)
}

// DefaultOptions returns the default memory backend options.
func DefaultOptions() *Options {
	return &Options{
		Limits: kv.DefaultLimits(),
		Now:    time.Now,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMemoryBackend creates a new in-memory backend with the specified
// options (optional).
func NewMemoryBackend(opts *Options) kv.Backend {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Limits == (kv.Limits{}) {
		opts.Limits = kv.DefaultLimits()
	}

	return &memImpl{
		limits: opts.Limits,
		now:    opts.Now,
		data:   xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kv.Backend)
// --------------------------------------------------------------------------

func (m *memImpl) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte)

	if keys == nil {
		m.data.Range(func(key string, value []byte) bool {
			result[key] = cloneBytes(value)
			return true
		})
		return result, nil
	}

	for _, key := range keys {
		if value, ok := m.data.Load(key); ok {
			result[key] = cloneBytes(value)
		}
	}
	return result, nil
}

func (m *memImpl) Set(_ context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWriteRate(); err != nil {
		return err
	}

	// Validate the whole batch before mutating anything: either every
	// item lands or none does.
	delta := 0
	for key, value := range items {
		size := kv.ItemSize(key, value)
		if size > m.limits.QuotaBytesPerItem {
			return kv.NewError(kv.RetCQuotaBytesPerItem,
				fmt.Sprintf("%s: item %q is %d bytes (limit %d)",
					kv.MsgQuotaBytesPerItem, key, size, m.limits.QuotaBytesPerItem))
		}
		delta += size
		if old, ok := m.data.Load(key); ok {
			delta -= kv.ItemSize(key, old)
		}
	}
	if m.totalBytes+delta > m.limits.QuotaBytes {
		return kv.NewError(kv.RetCQuotaBytes,
			fmt.Sprintf("%s: write of %d bytes exceeds total quota %d (%d in use)",
				kv.MsgQuotaBytes, delta, m.limits.QuotaBytes, m.totalBytes))
	}

	for key, value := range items {
		m.data.Store(key, cloneBytes(value))
	}
	m.totalBytes += delta
	m.recordWrite()
	return nil
}

func (m *memImpl) Remove(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWriteRate(); err != nil {
		return err
	}

	for _, key := range keys {
		if old, ok := m.data.LoadAndDelete(key); ok {
			m.totalBytes -= kv.ItemSize(key, old)
		}
	}
	m.recordWrite()
	return nil
}

func (m *memImpl) BytesInUse(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, nil
}

func (m *memImpl) Limits() kv.Limits {
	return m.limits
}

func (m *memImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Write-rate accounting
// --------------------------------------------------------------------------

// checkWriteRate rejects the operation if the sliding-window write budget
// is exhausted. Callers must hold m.mu.
func (m *memImpl) checkWriteRate() error {
	if m.limits.MaxWriteOperationsPerMinute <= 0 {
		return nil
	}

	cutoff := m.now().Add(-writeRateWindow)
	keep := m.writeLog[:0]
	for _, ts := range m.writeLog {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	m.writeLog = keep

	if len(m.writeLog) >= m.limits.MaxWriteOperationsPerMinute {
		return kv.NewError(kv.RetCWriteRate,
			fmt.Sprintf("%s: %d write operations in the last minute (limit %d)",
				kv.MsgWriteRate, len(m.writeLog), m.limits.MaxWriteOperationsPerMinute))
	}
	return nil
}

// recordWrite appends the current time to the write history. Callers must
// hold m.mu.
func (m *memImpl) recordWrite() {
	if m.limits.MaxWriteOperationsPerMinute <= 0 {
		return
	}
	m.writeLog = append(m.writeLog, m.now())
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
