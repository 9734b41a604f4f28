package checklist

import (
	"strings"
)

// ValidateTask checks the invariants every stored task must satisfy.
func ValidateTask(task Task) error {
	if strings.TrimSpace(task.ID) == "" {
		return &ValidationError{Entity: "task", Reason: "id must not be empty"}
	}
	if !task.Status.Valid() {
		return &ValidationError{Entity: "task", ID: task.ID,
			Reason: "status must be one of todo, in-progress, done"}
	}
	if task.ElapsedMs < 0 {
		return &ValidationError{Entity: "task", ID: task.ID,
			Reason: "elapsedMs must not be negative"}
	}
	return nil
}

// ValidateTimerState checks the invariants every stored timer record must
// satisfy.
func ValidateTimerState(state TimerState) error {
	if strings.TrimSpace(state.TaskID) == "" {
		return &ValidationError{Entity: "timer state", Reason: "taskId must not be empty"}
	}
	if state.ElapsedMs < 0 {
		return &ValidationError{Entity: "timer state", ID: state.TaskID,
			Reason: "elapsedMs must not be negative"}
	}
	return nil
}

// normalizeTask repairs tolerable irregularities in a record read back from
// storage. Date fields written by older snapshots may be partially absent.
func normalizeTask(task *Task) {
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	if task.AdditionalColumns == nil {
		task.AdditionalColumns = map[string]string{}
	}
}
