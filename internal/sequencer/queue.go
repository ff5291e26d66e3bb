package sequencer

// State is the lifecycle state of a queue.
type State int

const (
	// StatePending means the queue has not run a stage yet.
	StatePending State = iota
	// StateRunning means at least one stage ran and more remain.
	StateRunning
	// StateDrained means every stage ran.
	StateDrained
	// StateAborted means the queue stopped early: its subject or a stage check
	// failed, or its owner was aborted.
	StateAborted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDrained:
		return "drained"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further stages can run.
func (s State) Terminal() bool {
	return s == StateDrained || s == StateAborted
}

// Action is one side effect of a stage. Its inputs are fields of the
// implementing type; env carries the host capabilities it acts through.
// Apply must not block.
type Action[E any] interface {
	Apply(env E)
}

// ActionFunc adapts a function to Action.
type ActionFunc[E any] func(env E)

// Apply calls f(env).
func (f ActionFunc[E]) Apply(env E) { f(env) }

// Stage is the unit of work executed on one scheduler invocation.
//
// Check, when set, is evaluated after the queue subject and before any
// action. A failed check aborts the queue without running the stage.
type Stage[E any] struct {
	Name    string
	Actions []Action[E]
	Check   Subject[E]
}

// Subject is what a queue is bound to. A queue whose subject is no longer
// valid is aborted before its next stage.
type Subject[E any] interface {
	Valid(env E) bool
}

// SubjectFunc adapts a function to Subject.
type SubjectFunc[E any] func(env E) bool

// Valid calls f(env).
func (f SubjectFunc[E]) Valid(env E) bool { return f(env) }

// Queue is an ordered list of stages for one owner.
//
// A queue is single use: once Drained or Aborted it is discarded.
type Queue[E any] struct {
	id       string
	owner    string
	label    string
	subject  Subject[E]
	stages   []Stage[E]
	interval int

	state  State
	next   int
	handle Handle
}

// NewQueue creates a pending queue for owner. interval is the number of
// ticks between stages; zero selects the sequencer default.
func NewQueue[E any](owner string, subject Subject[E], interval int, stages ...Stage[E]) *Queue[E] {
	return &Queue[E]{
		owner:    owner,
		subject:  subject,
		stages:   append([]Stage[E](nil), stages...),
		interval: interval,
		state:    StatePending,
	}
}

// WithLabel sets a free-form label reported to observers (e.g. the crate type).
func (q *Queue[E]) WithLabel(label string) *Queue[E] {
	q.label = label
	return q
}

// ID returns the queue id assigned on Start.
func (q *Queue[E]) ID() string { return q.id }

// Owner returns the owner key.
func (q *Queue[E]) Owner() string { return q.owner }

// State returns the current lifecycle state.
func (q *Queue[E]) State() State { return q.state }

// StageIndex returns the index of the next stage to run. It equals the
// number of stages already executed.
func (q *Queue[E]) StageIndex() int { return q.next }

// Len returns the number of stages.
func (q *Queue[E]) Len() int { return len(q.stages) }

// Interval returns the ticks between stages.
func (q *Queue[E]) Interval() int { return q.interval }

// Info returns the observer view of the queue.
func (q *Queue[E]) Info() Info {
	return Info{
		ID:       q.id,
		Owner:    q.owner,
		Label:    q.label,
		Stages:   len(q.stages),
		Executed: q.next,
	}
}

// Info identifies a queue to observers.
type Info struct {
	ID       string
	Owner    string
	Label    string
	Stages   int
	Executed int // stages run so far
}
