package filekv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/kvtest"
)

func Test(t *testing.T) {
	kvtest.RunBackendTests(t, "FileBackend", func(limits kv.Limits) kv.Backend {
		backend, err := NewFileBackend(filepath.Join(t.TempDir(), "store.json"), &Options{Limits: limits})
		if err != nil {
			t.Fatalf("NewFileBackend failed: %v", err)
		}
		return backend
	})
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	backend, err := NewFileBackend(path, nil)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	if err := backend.Set(ctx, map[string][]byte{
		"persist-a": []byte("alpha"),
		"persist-b": []byte("beta"),
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := backend.Remove(ctx, []string{"persist-b"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	backend.Close()

	reopened, err := NewFileBackend(path, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	result, err := reopened.Get(ctx, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 item after reopen, got %d", len(result))
	}
	if !bytes.Equal(result["persist-a"], []byte("alpha")) {
		t.Errorf("Expected persist-a to survive reopen, got %q", result["persist-a"])
	}
}

func TestCorruptSnapshotFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewFileBackend(path, nil); err == nil {
		t.Fatalf("Expected open of corrupt snapshot to fail")
	}
}
