package checklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/writeq"
)

func testTimerState(taskID string, elapsed int64) TimerState {
	return TimerState{
		TaskID:    taskID,
		IsRunning: true,
		StartTime: time.Unix(1700000000, 0).UTC(),
		ElapsedMs: elapsed,
	}
}

func TestTimerSaveLoadRoundTrip(t *testing.T) {
	store, _, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	state := testTimerState("task-007", 4200)
	receipt, err := store.SaveTimerState(state)
	if err != nil {
		t.Fatalf("SaveTimerState failed: %v", err)
	}
	clock.Advance(testThrottle + time.Millisecond)
	if err := receipt.Wait(ctx); err != nil {
		t.Fatalf("Save receipt settled with %v", err)
	}

	loaded, err := store.LoadTimerState(ctx, "task-007")
	if err != nil {
		t.Fatalf("LoadTimerState failed: %v", err)
	}
	if loaded == nil {
		t.Fatalf("Expected a timer state, got nil")
	}
	if loaded.TaskID != state.TaskID || loaded.IsRunning != state.IsRunning ||
		loaded.ElapsedMs != state.ElapsedMs || !loaded.StartTime.Equal(state.StartTime) {
		t.Errorf("Round trip changed the state:\nsaved:  %+v\nloaded: %+v", state, *loaded)
	}
}

// TestTimerTicksCoalesce pins the tick fan-in behavior: back-to-back saves
// for the same task produce one backend write carrying the latest state,
// and the replaced receipt settles with ErrSuperseded.
func TestTimerTicksCoalesce(t *testing.T) {
	store, fake, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	first, err := store.SaveTimerState(testTimerState("task-001", 1000))
	if err != nil {
		t.Fatalf("First SaveTimerState failed: %v", err)
	}
	second, err := store.SaveTimerState(testTimerState("task-001", 2000))
	if err != nil {
		t.Fatalf("Second SaveTimerState failed: %v", err)
	}

	clock.Advance(testThrottle + time.Millisecond)

	if err := first.Wait(ctx); !errors.Is(err, writeq.ErrSuperseded) {
		t.Errorf("Expected first tick superseded, got %v", err)
	}
	if err := second.Wait(ctx); err != nil {
		t.Errorf("Expected second tick clean, got %v", err)
	}
	if fake.SetCount() != 1 {
		t.Fatalf("Expected exactly one Set, got %d", fake.SetCount())
	}

	loaded, err := store.LoadTimerState(ctx, "task-001")
	if err != nil || loaded == nil {
		t.Fatalf("LoadTimerState failed: %v / %v", loaded, err)
	}
	if loaded.ElapsedMs != 2000 {
		t.Errorf("Expected the latest tick to win, got elapsed %d", loaded.ElapsedMs)
	}
}

func TestTimerStatesForDifferentTasksDoNotCoalesce(t *testing.T) {
	store, fake, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	a, _ := store.SaveTimerState(testTimerState("task-001", 1000))
	b, _ := store.SaveTimerState(testTimerState("task-002", 2000))

	clock.Advance(testThrottle + time.Millisecond)

	if err := a.Wait(ctx); err != nil {
		t.Errorf("Expected task-001 save clean, got %v", err)
	}
	if err := b.Wait(ctx); err != nil {
		t.Errorf("Expected task-002 save clean, got %v", err)
	}
	if fake.Len() != 2 {
		t.Errorf("Expected two stored records, got %d", fake.Len())
	}
}

func TestLoadTimerStateAbsent(t *testing.T) {
	store, _, _ := newTestStore(kv.DefaultLimits())

	loaded, err := store.LoadTimerState(context.Background(), "task-404")
	if err != nil {
		t.Fatalf("LoadTimerState failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for an absent record, got %+v", loaded)
	}
}

func TestLoadTimerStateSwallowsBackendError(t *testing.T) {
	store, fake, _ := newTestStore(kv.DefaultLimits())

	fake.FailGets(errors.New("backend offline"))
	loaded, err := store.LoadTimerState(context.Background(), "task-001")
	if err != nil {
		t.Fatalf("Expected read failure to be swallowed, got %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil on read failure, got %+v", loaded)
	}
}

func TestLoadTimerStateDropsCorruptRecord(t *testing.T) {
	store, fake, _ := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	fake.Set(ctx, map[string][]byte{timerKey("task-001"): []byte("{torn")})

	loaded, err := store.LoadTimerState(ctx, "task-001")
	if err != nil {
		t.Fatalf("LoadTimerState failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected corrupt record to be dropped, got %+v", loaded)
	}
}

func TestSaveTimerStateRejectsInvalid(t *testing.T) {
	store, _, _ := newTestStore(kv.DefaultLimits())

	if _, err := store.SaveTimerState(TimerState{TaskID: ""}); err == nil {
		t.Errorf("Expected validation error for empty task id")
	}
	if _, err := store.SaveTimerState(TimerState{TaskID: "task-001", ElapsedMs: -1}); err == nil {
		t.Errorf("Expected validation error for negative elapsed time")
	}
}

func TestClearTimerState(t *testing.T) {
	store, fake, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	receipt, _ := store.SaveTimerState(testTimerState("task-001", 1000))
	clock.Advance(testThrottle + time.Millisecond)
	if err := receipt.Wait(ctx); err != nil {
		t.Fatalf("Save receipt settled with %v", err)
	}

	if err := store.ClearTimerState(ctx, "task-001"); err != nil {
		t.Fatalf("ClearTimerState failed: %v", err)
	}
	if _, ok := fake.Stored(timerKey("task-001")); ok {
		t.Errorf("Expected record removed")
	}

	loaded, _ := store.LoadTimerState(ctx, "task-001")
	if loaded != nil {
		t.Errorf("Expected nil after clear, got %+v", loaded)
	}
}

func TestClearTimerStateDropsQueuedWrite(t *testing.T) {
	store, fake, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	receipt, _ := store.SaveTimerState(testTimerState("task-001", 1000))
	if err := store.ClearTimerState(ctx, "task-001"); err != nil {
		t.Fatalf("ClearTimerState failed: %v", err)
	}

	clock.Advance(testThrottle + time.Millisecond)
	if err := receipt.Wait(ctx); !errors.Is(err, writeq.ErrSuperseded) {
		t.Errorf("Expected discarded write to settle superseded, got %v", err)
	}
	if fake.SetCount() != 0 {
		t.Errorf("Expected no backend write after discard, got %d", fake.SetCount())
	}
}

func TestClearTimerStatesIsIdempotent(t *testing.T) {
	store, fake, clock := newTestStore(kv.DefaultLimits())
	ctx := context.Background()

	// Two timer records plus an unrelated task collection
	a, _ := store.SaveTimerState(testTimerState("task-001", 1000))
	b, _ := store.SaveTimerState(testTimerState("task-002", 2000))
	tasksReceipt, err := store.SaveTasks(testTasks(2))
	if err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}
	clock.Advance(testThrottle + time.Millisecond)
	for _, receipt := range []*writeq.Receipt{a, b, tasksReceipt} {
		if err := receipt.Wait(ctx); err != nil {
			t.Fatalf("Save receipt settled with %v", err)
		}
	}

	if err := store.ClearTimerStates(ctx); err != nil {
		t.Fatalf("ClearTimerStates failed: %v", err)
	}
	removed := len(fake.RemoveCalls())
	if err := store.ClearTimerStates(ctx); err != nil {
		t.Fatalf("Second ClearTimerStates failed: %v", err)
	}
	if len(fake.RemoveCalls()) != removed {
		t.Errorf("Expected second clear to be a no-op")
	}

	if loaded, _ := store.LoadTimerState(ctx, "task-001"); loaded != nil {
		t.Errorf("Expected task-001 timer removed, got %+v", loaded)
	}
	if loaded, _ := store.LoadTimerState(ctx, "task-002"); loaded != nil {
		t.Errorf("Expected task-002 timer removed, got %+v", loaded)
	}

	// The task collection itself must survive a timer wipe
	tasks, err := store.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected task collection untouched, got %d tasks", len(tasks))
	}
}
