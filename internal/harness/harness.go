package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/engine"
	"github.com/roach88/crates/internal/ledger"
	"github.com/roach88/crates/internal/selector"
	"github.com/roach88/crates/internal/sequencer"
	"github.com/roach88/crates/internal/store"
	"github.com/roach88/crates/internal/testutil"
	"github.com/roach88/crates/internal/tick"
)

// Harness is the scenario execution engine.
// It wires the real engine to a simulated host with a manual tick clock.
type Harness struct {
	host       *testutil.Host
	sched      *tick.Scheduler
	engine     *engine.Engine
	dispatcher *engine.Dispatcher
	logger     *slog.Logger
}

// Option configures a run.
type Option func(*runSettings)

type runSettings struct {
	ctx      context.Context
	logger   *slog.Logger
	database string
	interval int
	policy   sequencer.Policy
	seed     uint64
	realTime time.Duration
}

// WithLogger routes engine logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(s *runSettings) {
		s.logger = l
	}
}

// WithContext bounds a real-time run.
func WithContext(ctx context.Context) Option {
	return func(s *runSettings) {
		s.ctx = ctx
	}
}

// WithDatabase journals into the SQLite file at path instead of a fresh
// in-memory database. History then includes earlier runs.
func WithDatabase(path string) Option {
	return func(s *runSettings) {
		s.database = path
	}
}

// WithStageInterval is used when the scenario sets no stage_interval.
func WithStageInterval(ticks int) Option {
	return func(s *runSettings) {
		s.interval = ticks
	}
}

// WithBusyPolicy is used when the scenario sets no busy_policy.
func WithBusyPolicy(p sequencer.Policy) Option {
	return func(s *runSettings) {
		s.policy = p
	}
}

// WithSeed seeds reward draws when the scenario scripts none. Zero keeps
// every draw at 0.
func WithSeed(seed uint64) Option {
	return func(s *runSettings) {
		s.seed = seed
	}
}

// WithRealTime drives the scenario on a wall-clock tick loop with tick
// length d instead of advancing the clock directly. The trace is the same.
func WithRealTime(d time.Duration) Option {
	return func(s *runSettings) {
		s.realTime = d
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database unless WithDatabase
// names a file. An error is returned only when the scenario cannot be set up; failed
// expectations and assertions are reported in the Result.
//
// Execution flow:
// 1. Build the catalog, host, journal and engine
// 2. Connect players, grant starting keys, place entities
// 3. Execute steps, checking expectations (on a tick loop with WithRealTime)
// 4. Drain the journal and read the merged history
// 5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	settings := runSettings{
		ctx:      context.Background(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		database: ":memory:",
		interval: sequencer.DefaultInterval,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	catalog, err := buildCatalog(scenario.Crates)
	if err != nil {
		return nil, err
	}
	policy := settings.policy
	if scenario.BusyPolicy != "" {
		if policy, err = sequencer.ParsePolicy(scenario.BusyPolicy); err != nil {
			return nil, err
		}
	}

	ctx := settings.ctx
	st, err := store.Open(settings.database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	journal, err := store.NewJournal(ctx, st, store.WithJournalLogger(settings.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to start journal: %w", err)
	}
	defer journal.Close()

	h := &Harness{
		host:       testutil.NewHost(testutil.ItemTable(scenario.Items)),
		sched:      tick.NewScheduler(nil),
		dispatcher: engine.NewDispatcher(),
		logger:     settings.logger,
	}
	h.host.Log.SetClock(h.sched.Now)

	interval := scenario.StageInterval
	if interval == 0 {
		interval = settings.interval
	}
	source := selector.WithSource(testutil.NewSequenceSource(scenario.Draws...))
	if len(scenario.Draws) == 0 && settings.seed != 0 {
		source = selector.WithSeed(settings.seed)
	}
	h.engine = engine.New(
		ledger.New(),
		selector.New(catalog, source),
		h.sched,
		h.host.Engine(),
		engine.WithStageInterval(interval),
		engine.WithBusyPolicy(policy),
		engine.WithIDGenerator(sequencer.NewSequentialGenerator("reveal")),
		engine.WithJournal(journal),
		engine.WithLogger(settings.logger),
		engine.WithObserver(h),
	)
	h.engine.Register(h.dispatcher)

	if err := h.setup(scenario); err != nil {
		return nil, fmt.Errorf("failed to set up scenario: %w", err)
	}

	result := NewResult()
	if settings.realTime > 0 {
		err = h.runRealTime(ctx, scenario.Steps, result, settings.realTime)
	} else {
		err = h.runSimulated(scenario.Steps, result)
	}
	if err != nil {
		return nil, err
	}

	journal.Close()
	if n := journal.Dropped(); n > 0 {
		result.AddError(fmt.Sprintf("journal dropped %d records", n))
	}
	history, err := st.ReadHistory(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	result.History = history
	result.Trace = h.trace()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}

	return result, nil
}

// runSimulated executes steps on the calling goroutine, advancing the
// clock directly.
func (h *Harness) runSimulated(steps []Step, result *Result) error {
	for i, step := range steps {
		if err := h.execute(i, step, result); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// runRealTime executes steps on a tick loop goroutine. An advance step
// parks the step chain on a one-shot task due after the requested ticks;
// the task posts the continuation, so the remaining steps run at the start
// of the following tick, as they would after AdvanceBy.
func (h *Harness) runRealTime(ctx context.Context, steps []Step, result *Result, d time.Duration) error {
	loop := tick.NewLoop(h.sched, tick.WithTickDuration(d), tick.WithLoopLogger(h.logger))
	done := make(chan error, 1)

	var resume func(from int)
	resume = func(from int) {
		for i := from; i < len(steps); i++ {
			if n := steps[i].Advance; n > 0 {
				next := i + 1
				var handle sequencer.Handle
				handle = h.sched.ScheduleRepeating(func() {
					handle.Cancel()
					loop.Post(func() { resume(next) })
				}, n)
				return
			}
			if err := h.execute(i, steps[i], result); err != nil {
				done <- fmt.Errorf("step %d: %w", i, err)
				return
			}
		}
		done <- nil
	}
	loop.Post(func() { resume(0) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- loop.Run(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	loop.Stop()
	<-stopped
	return err
}

func buildCatalog(specs []CrateSpec) (*crate.Catalog, error) {
	defs := make([]crate.Definition, 0, len(specs))
	for _, c := range specs {
		t, err := crate.ParseType(c.Type)
		if err != nil {
			return nil, err
		}
		defs = append(defs, crate.Definition{Type: t, Pool: c.Pool})
	}
	catalog, err := crate.NewCatalog(defs...)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

// setup connects players and places entities. Starting keys go straight
// into the ledger and are not traced or journaled.
func (h *Harness) setup(s *Scenario) error {
	for _, ps := range s.Players {
		name := ps.Name
		if name == "" {
			name = ps.ID
		}
		p := h.host.Join(crate.PlayerID(ps.ID), name)
		if ps.Slots > 0 {
			p.WithInventory(testutil.NewInventory(ps.Slots))
		}
		if ps.Admin {
			p.Grant(engine.PermissionAdmin)
		}
		for _, t := range crate.Types() {
			n := ps.Keys[string(t)]
			if n == 0 {
				continue
			}
			if _, err := h.engine.Ledger().AddKeys(p.ID(), t, n); err != nil {
				return fmt.Errorf("player %s: %w", ps.ID, err)
			}
		}
	}

	for _, es := range s.Entities {
		h.host.World.Add(testutil.NewEntity(crate.EntityID(es.ID), engine.Location{World: es.World, X: es.X, Y: es.Y, Z: es.Z}))
	}
	return nil
}

// execute runs one step. Requests are traced before dispatch and their
// outcome after, so host calls made by the handler fall in between.
func (h *Harness) execute(index int, step Step, result *Result) error {
	switch {
	case step.Open != nil:
		p, err := h.player(step.Open.Player)
		if err != nil {
			return err
		}
		ev := &engine.OpenCrateEvent{Player: p, Crate: crate.Type(step.Open.Crate)}
		if step.Open.Entity != "" {
			ent, ok := h.host.World.Entity(crate.EntityID(step.Open.Entity))
			if !ok {
				return fmt.Errorf("unknown entity %q", step.Open.Entity)
			}
			ev.Entity = ent
		}
		h.record("open", step.Open.Player, joinDetail(step.Open.Crate, step.Open.Entity))
		err = h.dispatcher.OpenCrate.Publish(ev)
		h.outcome(index, step, step.Open.Player, ev.Outcome(), err, result)

	case step.GiveKey != nil:
		p, err := h.player(step.GiveKey.Player)
		if err != nil {
			return err
		}
		ev := &engine.GiveKeyEvent{Receiver: p, KeyType: crate.Type(step.GiveKey.Crate), Amount: step.GiveKey.Amount}
		h.record("give_key", step.GiveKey.Player, step.GiveKey.Crate+" +"+strconv.Itoa(step.GiveKey.Amount))
		err = h.dispatcher.GiveKey.Publish(ev)
		h.outcome(index, step, step.GiveKey.Player, ev.Outcome(), err, result)

	case step.GiveAllKeys != nil:
		ev := &engine.GiveAllKeysEvent{KeyType: crate.Type(step.GiveAllKeys.Crate), Amount: step.GiveAllKeys.Amount}
		h.record("give_all_keys", "", step.GiveAllKeys.Crate+" +"+strconv.Itoa(step.GiveAllKeys.Amount))
		err := h.dispatcher.GiveAllKeys.Publish(ev)
		h.outcome(index, step, "", ev.Outcome(), err, result)

	case step.Spawn != nil:
		p, err := h.player(step.Spawn.Player)
		if err != nil {
			return err
		}
		ev := &engine.SpawnCrateEvent{Player: p, Crate: crate.Type(step.Spawn.Crate)}
		h.record("spawn", step.Spawn.Player, step.Spawn.Crate)
		err = h.dispatcher.SpawnCrate.Publish(ev)
		h.outcome(index, step, step.Spawn.Player, ev.Outcome(), err, result)

	case step.Quit != "":
		p := h.host.Registry.Get(crate.PlayerID(step.Quit))
		if p == nil {
			return fmt.Errorf("unknown player %q", step.Quit)
		}
		p.Disconnect()
		h.record("quit", step.Quit, "")
		if err := h.dispatcher.PlayerQuit.Publish(&engine.PlayerQuitEvent{Player: p.ID()}); err != nil {
			return err
		}

	case step.Rejoin != "":
		p, err := h.player(step.Rejoin)
		if err != nil {
			return err
		}
		p.Reconnect()
		h.record("rejoin", step.Rejoin, "")

	case step.Destroy != "":
		e := h.host.World.Get(crate.EntityID(step.Destroy))
		if e == nil {
			return fmt.Errorf("unknown entity %q", step.Destroy)
		}
		e.Destroy()
		h.record("destroy", step.Destroy, "")

	case step.Advance > 0:
		h.sched.AdvanceBy(step.Advance)
	}
	return nil
}

func (h *Harness) player(id string) (*testutil.Player, error) {
	p := h.host.Registry.Get(crate.PlayerID(id))
	if p == nil {
		return nil, fmt.Errorf("unknown player %q", id)
	}
	return p, nil
}

// outcome traces a request's outcome and checks the step expectation.
func (h *Harness) outcome(index int, step Step, target string, out engine.Outcome, err error, result *Result) {
	got := "proceed"
	if out.Cancelled {
		got = string(out.Reason)
	}
	detail := got
	if code := engine.CodeOf(err); code != "" {
		detail += " (" + string(code) + ")"
	}
	h.record("outcome", target, detail)

	if err != nil {
		h.logger.Debug("step failed", "step", index, "error", err)
	}
	if step.Expect != "" && step.Expect != got {
		result.AddError(fmt.Sprintf("steps[%d]: expected %s, got %s", index, step.Expect, got))
	}
}

func (h *Harness) record(kind, target, detail string) {
	h.host.Log.Record(kind, target, detail)
}

func (h *Harness) trace() []TraceEvent {
	calls := h.host.Log.Calls()
	out := make([]TraceEvent, len(calls))
	for i, c := range calls {
		out[i] = TraceEvent{Tick: c.Tick, Kind: c.Kind, Target: c.Target, Detail: c.Detail}
	}
	return out
}

// StageRan implements sequencer.Observer.
func (h *Harness) StageRan(q sequencer.Info, index int, stage string) {
	h.record("stage", q.Owner, fmt.Sprintf("%s %d %s", q.ID, index, stage))
}

// QueueFinished implements sequencer.Observer.
func (h *Harness) QueueFinished(q sequencer.Info, final sequencer.State) {
	h.record("finish", q.Owner, fmt.Sprintf("%s %s %d/%d", q.ID, final, q.Executed, q.Stages))
}

// keys reads a final balance. A player who quit has no session left, so
// there is no balance to read.
func (h *Harness) keys(player, crateType string) (int, error) {
	t := crate.Type(crateType)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", crate.ErrUnknownType, crateType)
	}
	s, ok := h.engine.Ledger().Lookup(crate.PlayerID(player))
	if !ok {
		return 0, fmt.Errorf("%s has no key session", player)
	}
	return s.Keys(t), nil
}

// inventory returns the item ids held by player.
func (h *Harness) inventory(player string) ([]string, error) {
	p, err := h.player(player)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, item := range p.Items().Items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func joinDetail(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
