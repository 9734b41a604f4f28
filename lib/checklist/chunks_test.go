package checklist

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/kvtest"
	"github.com/penpenguin/PetaTas-sub000/lib/sched"
)

func testTask(id int) Task {
	return Task{
		ID:        fmt.Sprintf("task-%03d", id),
		Name:      fmt.Sprintf("row %d pasted from the table", id),
		Status:    StatusTodo,
		Notes:     "some longer note text to give the record realistic bulk",
		ElapsedMs: int64(id) * 1000,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		UpdatedAt: time.Unix(1700000100, 0).UTC(),
		AdditionalColumns: map[string]string{
			"Priority": "high",
			"Owner":    "someone",
		},
	}
}

func testTasks(n int) []Task {
	tasks := make([]Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, testTask(i))
	}
	return tasks
}

func newChunkTestStore(limits kv.Limits) (*Store, *kvtest.Fake) {
	fake := kvtest.NewFake()
	fake.SetLimits(limits)
	store := New(fake, &Options{
		Scheduler: sched.NewManualScheduler(time.Unix(1700000000, 0)),
	})
	return store, fake
}

func TestBuildChunksSingleChunk(t *testing.T) {
	store, _ := newChunkTestStore(kv.DefaultLimits())

	chunks, idx, err := store.buildChunks(testTasks(3))
	if err != nil {
		t.Fatalf("buildChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if idx.Total != 3 {
		t.Errorf("Expected index total 3, got %d", idx.Total)
	}
	if len(idx.Chunks) != 1 || !strings.HasPrefix(idx.Chunks[0], chunkKeyPrefix) {
		t.Errorf("Unexpected chunk key list: %v", idx.Chunks)
	}
	if idx.Version != indexVersion {
		t.Errorf("Expected index version %d, got %d", indexVersion, idx.Version)
	}
}

func TestBuildChunksSplitsAtByteBudget(t *testing.T) {
	limits := kv.DefaultLimits()
	limits.QuotaBytesPerItem = 1024
	store, _ := newChunkTestStore(limits)

	tasks := testTasks(12)
	chunks, idx, err := store.buildChunks(tasks)
	if err != nil {
		t.Fatalf("buildChunks failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected collection to split into multiple chunks, got %d", len(chunks))
	}
	if idx.Total != len(tasks) {
		t.Errorf("Expected index total %d, got %d", len(tasks), idx.Total)
	}

	// Every chunk must respect the per-item budget
	for key, payload := range chunks {
		if size := kv.ItemSize(key, payload); size > limits.QuotaBytesPerItem {
			t.Errorf("Chunk %s is %d bytes, exceeds budget %d", key, size, limits.QuotaBytesPerItem)
		}
	}

	// Concatenating chunks in index order must yield exactly Total entries
	entries := 0
	for _, key := range idx.Chunks {
		var record chunkRecord
		if err := store.codec.Unmarshal(chunks[key], &record); err != nil {
			t.Fatalf("Chunk %s undecodable: %v", key, err)
		}
		entries += len(record.Entries)
	}
	if entries != idx.Total {
		t.Errorf("Chunks hold %d entries, index says %d", entries, idx.Total)
	}
}

func TestBuildChunksEmptyCollection(t *testing.T) {
	store, _ := newChunkTestStore(kv.DefaultLimits())

	chunks, idx, err := store.buildChunks(nil)
	if err != nil {
		t.Fatalf("buildChunks failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty collection, got %d", len(chunks))
	}
	if idx.Total != 0 || len(idx.Chunks) != 0 {
		t.Errorf("Expected empty index, got %+v", idx)
	}
}

func TestBuildChunksRejectsOversizedEntry(t *testing.T) {
	limits := kv.DefaultLimits()
	limits.QuotaBytesPerItem = 256
	store, _ := newChunkTestStore(limits)

	big := testTask(0)
	big.Notes = strings.Repeat("x", 1024)

	_, _, err := store.buildChunks([]Task{big})
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if quotaErr.Scope != "item" {
		t.Errorf("Expected item-scope quota error, got %q", quotaErr.Scope)
	}
}

func TestBuildChunksRejectsInvalidTask(t *testing.T) {
	store, _ := newChunkTestStore(kv.DefaultLimits())

	bad := testTask(0)
	bad.Status = "paused"

	_, _, err := store.buildChunks([]Task{bad})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestBuildChunksRejectsDuplicateID(t *testing.T) {
	store, _ := newChunkTestStore(kv.DefaultLimits())

	twin := testTask(0)
	twin.Name = "same id, different row"

	_, _, err := store.buildChunks([]Task{testTask(0), testTask(1), twin})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.ID != testTask(0).ID {
		t.Errorf("Expected the duplicated id to be reported, got %q", validationErr.ID)
	}
}
