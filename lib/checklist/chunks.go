package checklist

import (
	"fmt"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
)

// --------------------------------------------------------------------------
// Key layout
// --------------------------------------------------------------------------

const (
	indexKey       = "petatas:tasks:index"
	chunkKeyPrefix = "petatas:tasks:chunk:"
	timerKeyPrefix = "petatas:timer:"

	indexVersion = 1
)

func chunkKey(ordinal int) string {
	return fmt.Sprintf("%s%d", chunkKeyPrefix, ordinal)
}

func timerKey(taskID string) string {
	return timerKeyPrefix + taskID
}

// --------------------------------------------------------------------------
// Chunk partitioning
// --------------------------------------------------------------------------

// buildChunks validates and encodes the task collection, partitions it into
// the minimum number of greedy chunks whose encoded size fits the backend's
// per-item budget, and builds a fresh index referencing them in order.
func (s *Store) buildChunks(tasks []Task) (map[string][]byte, chunkIndex, error) {
	limits := s.backend.Limits()

	entries := make([][]byte, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		if err := ValidateTask(task); err != nil {
			return nil, chunkIndex{}, err
		}
		if _, dup := seen[task.ID]; dup {
			return nil, chunkIndex{}, &ValidationError{Entity: "task", ID: task.ID,
				Reason: "id appears more than once in the collection"}
		}
		seen[task.ID] = struct{}{}
		encoded, err := s.codec.Marshal(task)
		if err != nil {
			return nil, chunkIndex{}, fmt.Errorf("encode task %q: %w", task.ID, err)
		}
		entries = append(entries, encoded)
	}

	chunks := make(map[string][]byte)
	var chunkKeys []string

	current := make([][]byte, 0, len(entries))
	var currentEncoded []byte

	seal := func() {
		if len(current) == 0 {
			return
		}
		key := chunkKey(len(chunkKeys))
		chunks[key] = currentEncoded
		chunkKeys = append(chunkKeys, key)
		current = nil
		currentEncoded = nil
	}

	for _, entry := range entries {
		candidate := append(current, entry)
		encoded, err := s.codec.Marshal(chunkRecord{Entries: candidate})
		if err != nil {
			return nil, chunkIndex{}, fmt.Errorf("encode chunk: %w", err)
		}

		// Key length is part of the per-item budget; the widest ordinal
		// this save can produce bounds all of them.
		key := chunkKey(len(entries))
		if kv.ItemSize(key, encoded) > limits.QuotaBytesPerItem {
			if len(current) == 0 {
				// A single entry that does not fit any chunk can never
				// be stored.
				return nil, chunkIndex{}, &QuotaExceededError{
					Scope: "item",
					Bytes: kv.ItemSize(key, encoded),
					Limit: limits.QuotaBytesPerItem,
				}
			}
			seal()
			candidate = [][]byte{entry}
			encoded, err = s.codec.Marshal(chunkRecord{Entries: candidate})
			if err != nil {
				return nil, chunkIndex{}, fmt.Errorf("encode chunk: %w", err)
			}
			if kv.ItemSize(key, encoded) > limits.QuotaBytesPerItem {
				return nil, chunkIndex{}, &QuotaExceededError{
					Scope: "item",
					Bytes: kv.ItemSize(key, encoded),
					Limit: limits.QuotaBytesPerItem,
				}
			}
		}
		current = candidate
		currentEncoded = encoded
	}
	seal()

	idx := chunkIndex{
		Version:   indexVersion,
		Chunks:    chunkKeys,
		Total:     len(tasks),
		UpdatedAt: s.sched.Now(),
	}
	return chunks, idx, nil
}
