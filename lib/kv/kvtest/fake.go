package kvtest

import (
	"context"
	"sync"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
)

// Fake is a scriptable in-memory kv.Backend for unit tests. It records
// every Set and Remove call and lets tests inject failures for specific
// operations. Unlike memkv it enforces no quotas of its own, so tests stay
// in full control of which errors occur when.
type Fake struct {
	mu     sync.Mutex
	data   map[string][]byte
	limits kv.Limits

	setCalls    []map[string][]byte
	removeCalls [][]string

	setErrs     []error // consumed front to back by Set
	getErr      error
	bytesErr    error
	bytesInUse  int
	bytesManual bool
}

// NewFake creates a fake backend with the default quota envelope reported
// by Limits (nothing is enforced).
func NewFake() *Fake {
	return &Fake{
		data:   make(map[string][]byte),
		limits: kv.DefaultLimits(),
	}
}

// --------------------------------------------------------------------------
// Scripting
// --------------------------------------------------------------------------

// FailNextSet queues an error to be returned by the next Set call. Multiple
// queued errors are consumed in order.
func (f *Fake) FailNextSet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErrs = append(f.setErrs, err)
}

// FailGets makes every Get call return err until reset with nil.
func (f *Fake) FailGets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

// FailBytesInUse makes every BytesInUse call return err until reset with nil.
func (f *Fake) FailBytesInUse(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bytesErr = err
}

// ReportBytesInUse overrides the value BytesInUse returns.
func (f *Fake) ReportBytesInUse(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bytesInUse = n
	f.bytesManual = true
}

// SetLimits overrides the quota envelope reported by Limits.
func (f *Fake) SetLimits(limits kv.Limits) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = limits
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// SetCalls returns a copy of every batch passed to Set, in call order.
func (f *Fake) SetCalls() []map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string][]byte, len(f.setCalls))
	copy(out, f.setCalls)
	return out
}

// SetCount returns how many times Set was called.
func (f *Fake) SetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.setCalls)
}

// RemoveCalls returns a copy of every key slice passed to Remove.
func (f *Fake) RemoveCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.removeCalls))
	copy(out, f.removeCalls)
	return out
}

// Stored returns a copy of the value currently stored under key.
func (f *Fake) Stored(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Len returns the number of stored items.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kv.Backend)
// --------------------------------------------------------------------------

func (f *Fake) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	result := make(map[string][]byte)
	if keys == nil {
		for key, value := range f.data {
			result[key] = append([]byte(nil), value...)
		}
		return result, nil
	}
	for _, key := range keys {
		if value, ok := f.data[key]; ok {
			result[key] = append([]byte(nil), value...)
		}
	}
	return result, nil
}

func (f *Fake) Set(_ context.Context, items map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	recorded := make(map[string][]byte, len(items))
	for key, value := range items {
		recorded[key] = append([]byte(nil), value...)
	}
	f.setCalls = append(f.setCalls, recorded)

	if len(f.setErrs) > 0 {
		err := f.setErrs[0]
		f.setErrs = f.setErrs[1:]
		return err
	}

	for key, value := range recorded {
		f.data[key] = value
	}
	return nil
}

func (f *Fake) Remove(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removeCalls = append(f.removeCalls, append([]string(nil), keys...))
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *Fake) BytesInUse(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bytesErr != nil {
		return 0, f.bytesErr
	}
	if f.bytesManual {
		return f.bytesInUse, nil
	}
	total := 0
	for key, value := range f.data {
		total += kv.ItemSize(key, value)
	}
	return total, nil
}

func (f *Fake) Limits() kv.Limits {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limits
}

func (f *Fake) Close() error {
	return nil
}
