package sched

import (
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Handle represents a scheduled callback that has not necessarily fired yet.
type Handle interface {
	// Cancel stops the callback from firing. It reports whether the
	// callback was still pending (false means it already fired or was
	// cancelled before).
	Cancel() bool
}

// Scheduler abstracts one-shot timer scheduling and the clock behind it so
// flush and backoff logic can run against real OS timers in production and
// a hand-driven clock in tests.
type Scheduler interface {
	// Schedule runs fn once after delay on an unspecified goroutine.
	Schedule(delay time.Duration, fn func()) Handle
	// Now returns the scheduler's view of the current time.
	Now() time.Time
}

// --------------------------------------------------------------------------
// Timer-backed implementation
// --------------------------------------------------------------------------

// timerSched implements Scheduler on top of time.AfterFunc.
type timerSched struct{}

// NewTimerScheduler creates the production scheduler backed by OS timers.
func NewTimerScheduler() Scheduler {
	return timerSched{}
}

func (timerSched) Schedule(delay time.Duration, fn func()) Handle {
	return timerHandle{timer: time.AfterFunc(delay, fn)}
}

func (timerSched) Now() time.Time {
	return time.Now()
}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.timer.Stop()
}
