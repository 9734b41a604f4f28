// Package sched abstracts one-shot timer scheduling behind a small
// Scheduler interface (Schedule, Now) so components that arm flush or
// backoff timers never touch time.AfterFunc directly.
//
// Two implementations are provided: a production scheduler backed by OS
// timers and a ManualScheduler whose clock only moves when a test calls
// Advance, running due callbacks synchronously and in order.
package sched
