package sched

import (
	"sort"
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Manual implementation (for deterministic tests)
// --------------------------------------------------------------------------

// ManualScheduler is a Scheduler whose clock only moves when Advance is
// called. Due callbacks run synchronously inside Advance, in due order,
// which makes throttle and backoff timing fully deterministic in tests.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending []*manualEntry
}

type manualEntry struct {
	id    int
	due   time.Time
	fn    func()
	sched *ManualScheduler
}

// NewManualScheduler creates a manual scheduler starting at the given time.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	entry := &manualEntry{
		id:    m.nextID,
		due:   m.now.Add(delay),
		fn:    fn,
		sched: m,
	}
	m.pending = append(m.pending, entry)
	return entry
}

func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d and runs every callback that comes
// due, in due order. Callbacks scheduled while advancing run too if their
// delay still falls inside the window.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		entry := m.popDue(target)
		if entry == nil {
			break
		}
		entry.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// PendingCount returns how many callbacks are currently scheduled.
func (m *ManualScheduler) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// popDue removes and returns the earliest entry due at or before target,
// advancing the clock to its due time. Returns nil when nothing is due.
func (m *ManualScheduler) popDue(target time.Time) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due.Equal(m.pending[j].due) {
			return m.pending[i].id < m.pending[j].id
		}
		return m.pending[i].due.Before(m.pending[j].due)
	})

	if len(m.pending) == 0 || m.pending[0].due.After(target) {
		return nil
	}

	entry := m.pending[0]
	m.pending = m.pending[1:]
	if entry.due.After(m.now) {
		m.now = entry.due
	}
	return entry
}

func (e *manualEntry) Cancel() bool {
	e.sched.mu.Lock()
	defer e.sched.mu.Unlock()

	for i, pending := range e.sched.pending {
		if pending.id == e.id {
			e.sched.pending = append(e.sched.pending[:i], e.sched.pending[i+1:]...)
			return true
		}
	}
	return false
}
