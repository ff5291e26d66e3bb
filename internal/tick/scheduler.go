package tick

import (
	"github.com/roach88/crates/internal/sequencer"
)

// task is one repeating registration.
type task struct {
	fn        func()
	interval  uint64
	nextRun   uint64
	cancelled bool
}

// Cancel stops the task. Safe to call from inside its own callback and more
// than once.
func (t *task) Cancel() {
	t.cancelled = true
}

// Scheduler runs repeating callbacks on a discrete tick clock.
//
// Advance runs every task that is due on the new tick, in registration
// order. A task registered during a tick first runs interval ticks later.
// Not safe for concurrent use; drive it from one goroutine.
type Scheduler struct {
	clock *Clock
	tasks []*task
}

// NewScheduler creates a scheduler. A nil clock starts a fresh one.
func NewScheduler(clock *Clock) *Scheduler {
	if clock == nil {
		clock = NewClock()
	}
	return &Scheduler{clock: clock}
}

// ScheduleRepeating registers fn to run every intervalTicks ticks. Intervals
// below one are treated as one.
func (s *Scheduler) ScheduleRepeating(fn func(), intervalTicks int) sequencer.Handle {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	t := &task{
		fn:       fn,
		interval: uint64(intervalTicks),
		nextRun:  s.clock.Current() + uint64(intervalTicks),
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward one tick and runs the due tasks.
// Returns the new tick.
func (s *Scheduler) Advance() uint64 {
	now := s.clock.Next()

	// Snapshot: tasks registered by callbacks in this tick wait for their
	// own first interval.
	due := s.tasks
	for _, t := range due {
		if t.cancelled || now < t.nextRun {
			continue
		}
		t.nextRun = now + t.interval
		t.fn()
	}

	s.compact()
	return now
}

// AdvanceBy runs n ticks.
func (s *Scheduler) AdvanceBy(n int) {
	for i := 0; i < n; i++ {
		s.Advance()
	}
}

// Pending returns the number of live registrations.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Now returns the current tick.
func (s *Scheduler) Now() uint64 {
	return s.clock.Current()
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// compact drops cancelled tasks while keeping registration order.
func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
