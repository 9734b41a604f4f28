package filekv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/memkv"
)

// --------------------------------------------------------------------------
// Core file backend structure
// --------------------------------------------------------------------------

// fileImpl implements kv.Backend as a single JSON snapshot file. All quota
// enforcement is delegated to an inner memory backend; the file is
// rewritten atomically after every successful mutation.
type fileImpl struct {
	path  string
	inner kv.Backend

	mu sync.Mutex // serializes snapshot writes
}

// Options configures the file backend during initialization.
type Options struct {
	Limits kv.Limits // Quota envelope to enforce (zero value = kv.DefaultLimits)
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewFileBackend creates a backend persisted at path, loading any existing
// snapshot. The snapshot contents count against the quota envelope, so a
// file written under one set of limits may fail to open under a smaller
// one.
func NewFileBackend(path string, opts *Options) (kv.Backend, error) {
	if opts == nil {
		opts = &Options{}
	}

	inner := memkv.NewMemoryBackend(&memkv.Options{
		Limits: opts.Limits,
	})

	f := &fileImpl{
		path:  path,
		inner: inner,
	}
	if err := f.restore(); err != nil {
		return nil, err
	}
	return f, nil
}

// restore loads the snapshot file into the inner backend, if one exists.
func (f *fileImpl) restore() error {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("read snapshot: %v", err))
	}

	var snapshot map[string][]byte
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("decode snapshot %s: %v", f.path, err))
	}
	if len(snapshot) == 0 {
		return nil
	}
	return f.inner.Set(context.Background(), snapshot)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kv.Backend)
// --------------------------------------------------------------------------

func (f *fileImpl) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	return f.inner.Get(ctx, keys)
}

func (f *fileImpl) Set(ctx context.Context, items map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.inner.Set(ctx, items); err != nil {
		return err
	}
	return f.persist(ctx)
}

func (f *fileImpl) Remove(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.inner.Remove(ctx, keys); err != nil {
		return err
	}
	return f.persist(ctx)
}

func (f *fileImpl) BytesInUse(ctx context.Context) (int, error) {
	return f.inner.BytesInUse(ctx)
}

func (f *fileImpl) Limits() kv.Limits {
	return f.inner.Limits()
}

func (f *fileImpl) Close() error {
	return f.inner.Close()
}

// --------------------------------------------------------------------------
// Snapshot persistence
// --------------------------------------------------------------------------

// persist writes the full state to a temp file and renames it into place.
// Callers must hold f.mu.
func (f *fileImpl) persist(ctx context.Context) error {
	all, err := f.inner.Get(ctx, nil)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("encode snapshot: %v", err))
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".petatas-*.tmp")
	if err != nil {
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("create temp snapshot: %v", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("write snapshot: %v", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("close snapshot: %v", err))
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return kv.NewError(kv.RetCInternalError, fmt.Sprintf("replace snapshot: %v", err))
	}
	return nil
}
