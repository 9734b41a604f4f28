package checklist

import (
	"context"
	"fmt"
	"strings"

	"github.com/penpenguin/PetaTas-sub000/lib/writeq"
)

// --------------------------------------------------------------------------
// Timer state persistence
// --------------------------------------------------------------------------

// SaveTimerState persists the running-timer record of one task. Calls for
// the same task funnel through the same queue key, so rapid timer ticks
// coalesce to the latest value and earlier receipts settle with
// ErrSuperseded.
func (s *Store) SaveTimerState(state TimerState) (*writeq.Receipt, error) {
	if err := ValidateTimerState(state); err != nil {
		return nil, err
	}

	payload, err := s.codec.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode timer state %q: %w", state.TaskID, err)
	}
	return s.queue.Enqueue(timerKey(state.TaskID), payload), nil
}

// LoadTimerState reads the timer record of one task. It returns nil (and
// no error) when the record is absent, unreadable or undecodable; a
// missing timer is never worth failing a caller over.
func (s *Store) LoadTimerState(ctx context.Context, taskID string) (*TimerState, error) {
	key := timerKey(taskID)

	res, err := s.backend.Get(ctx, []string{key})
	if err != nil {
		s.logger.Warn("timer state read failed", "taskId", taskID, "error", err)
		return nil, nil
	}
	raw, ok := res[key]
	if !ok {
		return nil, nil
	}

	var state TimerState
	if err := s.codec.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("dropping undecodable timer state", "taskId", taskID, "error", err)
		return nil, nil
	}
	if err := ValidateTimerState(state); err != nil {
		s.logger.Warn("dropping invalid timer state", "taskId", taskID, "error", err)
		return nil, nil
	}
	return &state, nil
}

// ClearTimerState deletes the timer record of one task, including any
// still-queued write for it.
func (s *Store) ClearTimerState(ctx context.Context, taskID string) error {
	key := timerKey(taskID)
	s.queue.Discard(key)

	if err := s.backend.Remove(ctx, []string{key}); err != nil {
		return fmt.Errorf("remove timer state %q: %w", taskID, err)
	}
	return nil
}

// ClearTimerStates deletes every stored timer record in one remove call.
// An empty match is a no-op, not an error.
func (s *Store) ClearTimerStates(ctx context.Context) error {
	s.queue.DiscardPrefix(timerKeyPrefix)

	all, err := s.backend.Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("scan timer states: %w", err)
	}

	var keys []string
	for key := range all {
		if strings.HasPrefix(key, timerKeyPrefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.backend.Remove(ctx, keys); err != nil {
		return fmt.Errorf("remove timer states: %w", err)
	}
	return nil
}
