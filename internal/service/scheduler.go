package service

import "time"

// Clock abstracts wall time so debounce arithmetic is testable with a fake.
type Clock interface {
	Now() time.Time
}

// Task is an armed deferred callback.
type Task interface {
	// Stop cancels the task; it reports false when the callback already ran
	// or is running.
	Stop() bool
}

// Scheduler arms deferred callbacks. Arm, cancel and fire are first-class
// operations so the coalescer can be driven by a fake scheduler in tests.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return wallClock{} }

type timerScheduler struct{}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Stop() bool { return t.timer.Stop() }

func (timerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(d, fn)}
}

// NewScheduler returns the time.AfterFunc-backed scheduler.
func NewScheduler() Scheduler { return timerScheduler{} }
