package sequencer

import (
	"fmt"
	"log/slog"
)

// DefaultInterval is the default number of ticks between stages.
const DefaultInterval = 20

// Handle is a scheduler registration.
type Handle interface {
	Cancel()
}

// Scheduler is the only host primitive the sequencer needs: run fn every
// intervalTicks ticks until the returned handle is cancelled. The first run
// happens intervalTicks ticks after registration.
type Scheduler interface {
	ScheduleRepeating(fn func(), intervalTicks int) Handle
}

// Policy decides what happens when an owner that already has an active
// queue starts another one.
type Policy int

const (
	// PolicyReject fails the second Start with ErrBusy.
	PolicyReject Policy = iota
	// PolicyEnqueue starts the second queue after the active one finishes.
	PolicyEnqueue
)

// String returns the policy name as used in configuration.
func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyEnqueue:
		return "enqueue"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "reject" or "enqueue".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reject", "":
		return PolicyReject, nil
	case "enqueue":
		return PolicyEnqueue, nil
	default:
		return PolicyReject, fmt.Errorf("invalid busy policy %q: must be reject or enqueue", s)
	}
}

// Observer is notified about queue progress. Callbacks run on the tick
// goroutine right after the stage or transition and must not block.
type Observer interface {
	StageRan(q Info, index int, stage string)
	QueueFinished(q Info, final State)
}

type settings struct {
	interval  int
	policy    Policy
	ids       IDGenerator
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Sequencer.
type Option func(*settings)

// WithInterval sets the default ticks between stages for queues that do
// not carry their own interval.
func WithInterval(ticks int) Option {
	return func(s *settings) {
		if ticks > 0 {
			s.interval = ticks
		}
	}
}

// WithPolicy sets the busy-owner policy. Default: PolicyReject.
func WithPolicy(p Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithIDGenerator replaces the UUIDv7 queue id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *settings) {
		s.ids = g
	}
}

// WithObserver adds an observer. Observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observers = append(s.observers, o)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// Sequencer advances queues one stage per scheduler invocation.
//
// INVARIANTS:
//   - stages of a queue run strictly in order, one per invocation
//   - at most one active queue per owner
//   - a finished queue never runs again; its registration is cancelled
type Sequencer[E any] struct {
	sched Scheduler
	env   E
	cfg   settings

	active  map[string]*Queue[E]
	waiting map[string][]*Queue[E]
}

// New creates a sequencer that schedules on sched and hands env to every
// action and subject check.
func New[E any](sched Scheduler, env E, opts ...Option) *Sequencer[E] {
	cfg := settings{
		interval: DefaultInterval,
		policy:   PolicyReject,
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Sequencer[E]{
		sched:   sched,
		env:     env,
		cfg:     cfg,
		active:  make(map[string]*Queue[E]),
		waiting: make(map[string][]*Queue[E]),
	}
}

// Policy returns the busy-owner policy.
func (s *Sequencer[E]) Policy() Policy {
	return s.cfg.policy
}

// Busy reports whether owner has an active queue.
func (s *Sequencer[E]) Busy(owner string) bool {
	_, ok := s.active[owner]
	return ok
}

// Active returns the active queue of owner, if any.
func (s *Sequencer[E]) Active(owner string) (*Queue[E], bool) {
	q, ok := s.active[owner]
	return q, ok
}

// Waiting returns the number of queues held behind the active queue of owner.
func (s *Sequencer[E]) Waiting(owner string) int {
	return len(s.waiting[owner])
}

// Start assigns the queue an id and schedules it.
//
// If the owner is busy, PolicyReject returns ErrBusy and PolicyEnqueue
// holds the queue until the active one finishes. A queue without stages
// drains immediately.
func (s *Sequencer[E]) Start(q *Queue[E]) error {
	if q.state != StatePending || q.id != "" {
		return fmt.Errorf("start queue %s: %w", q.id, ErrAlreadyStarted)
	}
	if q.interval <= 0 {
		q.interval = s.cfg.interval
	}
	q.id = s.cfg.ids.Generate()

	if _, busy := s.active[q.owner]; busy {
		if s.cfg.policy == PolicyReject {
			return fmt.Errorf("start queue %s for %s: %w", q.id, q.owner, ErrBusy)
		}
		s.waiting[q.owner] = append(s.waiting[q.owner], q)
		s.cfg.logger.Debug("queue waiting", "queue", q.id, "owner", q.owner, "position", len(s.waiting[q.owner]))
		return nil
	}

	s.launch(q)
	return nil
}

// Abort ends every queue of owner: waiting queues first, in order, then the
// active one. Each is reported to observers as aborted with the stages it
// ran. Returns the number of queues aborted.
func (s *Sequencer[E]) Abort(owner string) int {
	pending := s.waiting[owner]
	delete(s.waiting, owner)
	n := 0
	for _, q := range pending {
		s.finish(q, StateAborted)
		n++
	}
	if q, ok := s.active[owner]; ok {
		s.finish(q, StateAborted)
		n++
	}
	if n > 0 {
		s.cfg.logger.Debug("owner aborted", "owner", owner, "queues", n)
	}
	return n
}

// launch registers q with the scheduler.
func (s *Sequencer[E]) launch(q *Queue[E]) {
	if len(q.stages) == 0 {
		s.finish(q, StateDrained)
		return
	}

	s.active[q.owner] = q
	q.handle = s.sched.ScheduleRepeating(func() { s.step(q) }, q.interval)
	s.cfg.logger.Debug("queue scheduled", "queue", q.id, "owner", q.owner, "stages", len(q.stages), "interval", q.interval)
}

// step runs the next stage of q. Called once per scheduler invocation.
func (s *Sequencer[E]) step(q *Queue[E]) {
	if q.state.Terminal() {
		return
	}

	if !q.subject.Valid(s.env) {
		s.finish(q, StateAborted)
		return
	}

	idx := q.next
	stage := q.stages[idx]
	if stage.Check != nil && !stage.Check.Valid(s.env) {
		s.finish(q, StateAborted)
		return
	}

	q.state = StateRunning
	for _, action := range stage.Actions {
		action.Apply(s.env)
	}
	q.next++

	info := q.Info()
	for _, o := range s.cfg.observers {
		o.StageRan(info, idx, stage.Name)
	}

	if q.next == len(q.stages) {
		s.finish(q, StateDrained)
	}
}

// finish moves q to a terminal state, removes its registration, and starts
// the next waiting queue of the same owner.
func (s *Sequencer[E]) finish(q *Queue[E], final State) {
	q.state = final
	if q.handle != nil {
		q.handle.Cancel()
		q.handle = nil
	}
	if s.active[q.owner] == q {
		delete(s.active, q.owner)
	}

	s.cfg.logger.Debug("queue finished", "queue", q.id, "owner", q.owner, "state", final.String(), "stages_run", q.next)

	info := q.Info()
	for _, o := range s.cfg.observers {
		o.QueueFinished(info, final)
	}

	if _, busy := s.active[q.owner]; busy {
		return
	}
	pending := s.waiting[q.owner]
	if len(pending) == 0 {
		return
	}
	next := pending[0]
	pending[0] = nil
	if len(pending) == 1 {
		delete(s.waiting, q.owner)
	} else {
		s.waiting[q.owner] = pending[1:]
	}
	s.launch(next)
}
