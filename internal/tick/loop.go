package tick

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickDuration is the wall-clock length of one tick (20 ticks/s).
const DefaultTickDuration = 50 * time.Millisecond

// Loop owns the tick goroutine. Each tick it first runs posted work in FIFO
// order, then advances the scheduler.
type Loop struct {
	sched    *Scheduler
	queue    *eventQueue
	duration time.Duration
	logger   *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTickDuration sets the wall-clock tick length.
func WithTickDuration(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.duration = d
		}
	}
}

// WithLoopLogger sets the logger. Default: slog.Default().
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop around sched.
func NewLoop(sched *Scheduler, opts ...LoopOption) *Loop {
	l := &Loop{
		sched:    sched,
		queue:    newEventQueue(),
		duration: DefaultTickDuration,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post hands fn to the tick goroutine. Safe from any goroutine.
// Returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	return l.queue.Enqueue(fn)
}

// Step runs one tick synchronously: posted work, then due tasks.
// Used by Run and by callers that drive ticks manually.
func (l *Loop) Step() uint64 {
	for _, fn := range l.queue.Drain() {
		fn()
	}
	return l.sched.Advance()
}

// Run ticks until ctx is cancelled or Stop is called.
// Must be called from exactly one goroutine.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("tick loop starting", "tick", l.duration)

	ticker := time.NewTicker(l.duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("tick loop stopping: context cancelled", "at_tick", l.sched.Now())
			l.queue.Close()
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		case _, ok := <-l.queue.Wait():
			if !ok {
				l.logger.Info("tick loop stopping: closed", "at_tick", l.sched.Now())
				return nil
			}
			// Posted work runs on the next tick boundary.
		}
	}
}

// Stop closes the loop. Posted work that has not run yet is dropped.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Scheduler returns the underlying scheduler.
func (l *Loop) Scheduler() *Scheduler {
	return l.sched
}
