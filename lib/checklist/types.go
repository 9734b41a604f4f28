package checklist

import (
	"time"
)

// --------------------------------------------------------------------------
// Task entity
// --------------------------------------------------------------------------

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Task is one checklist row, typically produced by pasting a table. Columns
// the tool does not model natively survive round trips in
// AdditionalColumns.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	ElapsedMs int64     `json:"elapsedMs"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// AdditionalColumns holds extra table columns by header name. Key
	// order is irrelevant; keys are unique.
	AdditionalColumns map[string]string `json:"additionalColumns,omitempty"`
}

// TimerState is the running-timer record of one task, stored separately
// from the task itself so rapid timer ticks never rewrite the chunked
// collection.
type TimerState struct {
	TaskID    string    `json:"taskId"`
	IsRunning bool      `json:"isRunning"`
	StartTime time.Time `json:"startTime"`
	ElapsedMs int64     `json:"elapsedMs"`
}

// --------------------------------------------------------------------------
// Storage records
// --------------------------------------------------------------------------

// chunkIndex is the index record: the sole authority on which chunk keys,
// in what order, constitute the stored task collection.
type chunkIndex struct {
	Version   int       `json:"version"`
	Chunks    []string  `json:"chunks"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// chunkRecord is one stored chunk: an ordered page of individually encoded
// task entries. Entries are kept pre-encoded so a single corrupt record can
// be dropped on load without losing the rest of the chunk.
type chunkRecord struct {
	Entries [][]byte `json:"entries"`
}
