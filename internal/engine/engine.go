package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/ledger"
	"github.com/roach88/crates/internal/selector"
	"github.com/roach88/crates/internal/sequencer"
	"github.com/roach88/crates/internal/store"
)

// RewardSelector draws a reward for a crate type.
// Implemented by *selector.Selector.
type RewardSelector interface {
	Select(t crate.Type) (crate.Reward, error)
}

// Scheduler is the host tick scheduler. Now is used to stamp journal rows.
// Implemented by *tick.Scheduler.
type Scheduler interface {
	sequencer.Scheduler
	Now() uint64
}

// Journal receives audit records. Implementations must not block the tick
// goroutine. Implemented by *store.Journal.
type Journal interface {
	RecordKeyGrant(g store.KeyGrant)
	RecordOpenAttempt(a store.OpenAttempt)
	RecordStageRun(r store.StageRun)
	RecordQueueResult(r store.QueueResult)
}

type nopJournal struct{}

func (nopJournal) RecordKeyGrant(store.KeyGrant)       {}
func (nopJournal) RecordOpenAttempt(store.OpenAttempt) {}
func (nopJournal) RecordStageRun(store.StageRun)       {}
func (nopJournal) RecordQueueResult(store.QueueResult) {}

// Stage names of the reveal queue.
const (
	StageReveal    = "reveal"
	StageCountdown = "countdown-"

	// CountdownStages is the number of cosmetic stages after the reveal.
	CountdownStages = 3
)

type options struct {
	interval  int
	policy    sequencer.Policy
	ids       sequencer.IDGenerator
	journal   Journal
	logger    *slog.Logger
	observers []sequencer.Observer
}

// Option configures an Engine.
type Option func(*options)

// WithStageInterval sets the ticks between reveal stages.
// Default: sequencer.DefaultInterval.
func WithStageInterval(ticks int) Option {
	return func(o *options) {
		if ticks > 0 {
			o.interval = ticks
		}
	}
}

// WithBusyPolicy decides what a second open does while a reveal plays.
func WithBusyPolicy(p sequencer.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithIDGenerator sets the reveal queue id generator (tests use fixed ids).
func WithIDGenerator(g sequencer.IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithJournal records grants, open attempts and stage runs.
func WithJournal(j Journal) Option {
	return func(o *options) {
		if j != nil {
			o.journal = j
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver adds a queue observer after the engine's own.
func WithObserver(obs sequencer.Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// Engine is the crate facade.
//
// All methods must be called from the tick goroutine.
type Engine struct {
	ledger   *ledger.Ledger
	selector RewardSelector
	sched    Scheduler
	host     Host
	env      *Env
	seq      *sequencer.Sequencer[*Env]
	interval int
	journal  Journal
	logger   *slog.Logger
}

// New wires an engine. host.Localizer, host.Players and host.Items are
// required; Entities, Effects and Spawner may be nil when the host has no
// world.
func New(l *ledger.Ledger, sel RewardSelector, sched Scheduler, host Host, opts ...Option) *Engine {
	o := options{
		interval: sequencer.DefaultInterval,
		policy:   sequencer.PolicyReject,
		ids:      sequencer.UUIDv7Generator{},
		journal:  nopJournal{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if host.Effects == nil {
		host.Effects = silentEffects{}
	}

	e := &Engine{
		ledger:   l,
		selector: sel,
		sched:    sched,
		host:     host,
		interval: o.interval,
		journal:  o.journal,
		logger:   o.logger,
	}
	e.env = newEnv(host, l, o.logger)

	seqOpts := []sequencer.Option{
		sequencer.WithInterval(o.interval),
		sequencer.WithPolicy(o.policy),
		sequencer.WithIDGenerator(o.ids),
		sequencer.WithLogger(o.logger),
		sequencer.WithObserver(e),
	}
	for _, obs := range o.observers {
		seqOpts = append(seqOpts, sequencer.WithObserver(obs))
	}
	e.seq = sequencer.New(sched, e.env, seqOpts...)
	return e
}

// Ledger returns the key ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Sequencer returns the reveal sequencer.
func (e *Engine) Sequencer() *sequencer.Sequencer[*Env] {
	return e.seq
}

// Reserved returns the keys of t promised to reveals of p that have not
// reached their first stage.
func (e *Engine) Reserved(p crate.PlayerID, t crate.Type) int {
	return e.env.Reserved(p, t)
}

// Register subscribes the engine handlers on d.
func (e *Engine) Register(d *Dispatcher) {
	d.OpenCrate.Subscribe(func(ev *OpenCrateEvent) error {
		_, err := e.OpenCrate(ev)
		return err
	})
	d.GiveKey.Subscribe(func(ev *GiveKeyEvent) error {
		_, err := e.GiveKey(ev)
		return err
	})
	d.GiveAllKeys.Subscribe(func(ev *GiveAllKeysEvent) error {
		_, err := e.GiveAllKeys(ev)
		return err
	})
	d.SpawnCrate.Subscribe(func(ev *SpawnCrateEvent) error {
		_, err := e.SpawnCrate(ev)
		return err
	})
	d.PlayerQuit.Subscribe(func(ev *PlayerQuitEvent) error {
		e.PlayerQuit(ev.Player)
		return nil
	})
}

// OpenCrate gates an open request and, when every check passes, starts the
// four-stage reveal. Nothing is mutated before stage 0 runs.
func (e *Engine) OpenCrate(ev *OpenCrateEvent) (Outcome, error) {
	p := ev.Player
	pid := p.ID()
	t := ev.Crate

	var entityID crate.EntityID
	if ev.Entity != nil {
		entityID = ev.Entity.ID()
	}
	attempt := store.OpenAttempt{
		Tick:   e.sched.Now(),
		Player: string(pid),
		Crate:  string(t),
		Entity: string(entityID),
	}

	if !t.Valid() {
		return e.rejectOpen(ev, attempt, &Error{Code: ErrCodeUnknownCrate, Op: "open-crate", Player: string(pid), Crate: string(t), Err: crate.ErrUnknownType})
	}

	if e.seq.Policy() == sequencer.PolicyReject && e.seq.Busy(string(pid)) {
		return e.denyOpen(ev, attempt, ReasonBusy)
	}

	balance, err := e.ledger.KeyCount(pid, t)
	if err != nil {
		return e.rejectOpen(ev, attempt, &Error{Code: ErrCodeUnknownCrate, Op: "open-crate", Player: string(pid), Crate: string(t), Err: err})
	}
	if balance-e.env.Reserved(pid, t) <= 0 {
		return e.denyOpen(ev, attempt, ReasonNoKeys)
	}

	reward, err := e.selector.Select(t)
	switch {
	case errors.Is(err, selector.ErrNoRewards):
		return e.denyOpen(ev, attempt, ReasonNoRewards)
	case errors.Is(err, crate.ErrUnknownType):
		return e.rejectOpen(ev, attempt, &Error{Code: ErrCodeUnknownCrate, Op: "open-crate", Player: string(pid), Crate: string(t), Err: err})
	case err != nil:
		return e.rejectOpen(ev, attempt, &Error{Code: ErrCodeSelection, Op: "open-crate", Player: string(pid), Crate: string(t), Err: err})
	}

	item, ok := e.host.Items.Resolve(reward.Entry)
	if !ok {
		return e.denyOpen(ev, attempt, ReasonNoItem)
	}
	attempt.Item = item.ID
	if !p.Inventory().CanAddItem(item) {
		return e.denyOpen(ev, attempt, ReasonInventoryFull)
	}

	q := sequencer.NewQueue(string(pid), sequencer.Subject[*Env](revealSubject{Player: pid, Entity: entityID}), e.interval,
		e.revealStages(p, t, entityID, item)...).WithLabel(string(t))

	e.env.reserve(pid, t)
	if err := e.seq.Start(q); err != nil {
		e.env.release(pid, t)
		if errors.Is(err, sequencer.ErrBusy) {
			return e.denyOpen(ev, attempt, ReasonBusy)
		}
		return e.rejectOpen(ev, attempt, &Error{Code: ErrCodeSchedule, Op: "open-crate", Player: string(pid), Crate: string(t), Err: err})
	}

	attempt.Outcome = "scheduled"
	attempt.QueueID = q.ID()
	e.journal.RecordOpenAttempt(attempt)
	e.logger.Debug("reveal scheduled", "player", pid, "crate", t, "item", item.ID, "queue", q.ID())
	return Proceed, nil
}

// revealStages builds stage 0 (grant, deduct, announce) and the countdown.
// Stage 0 re-checks inventory space before it grants.
func (e *Engine) revealStages(p Player, t crate.Type, entity crate.EntityID, item crate.Item) []sequencer.Stage[*Env] {
	pid := p.ID()
	name := t.DisplayName()

	stages := make([]sequencer.Stage[*Env], 0, 1+CountdownStages)
	stages = append(stages, sequencer.Stage[*Env]{
		Name:  StageReveal,
		Check: roomCheck{Player: pid, Crate: t, Item: item},
		Actions: []sequencer.Action[*Env]{
			SendMessage{Player: pid, Key: MsgWonItem, Args: []Placeholder{P(PhItemName, item.Name)}},
			GrantItem{Player: pid, Crate: t, Item: item},
			DeductKey{Player: pid, Crate: t},
			PlaySound{Player: pid, Sound: SoundReveal, Volume: SoundVolume, Pitch: SoundPitch},
			SpawnParticles{Entity: entity, Kind: ParticleLava},
			BroadcastTip{Key: MsgWonAlert, Args: []Placeholder{
				P(PhUserName, p.Name()),
				P(PhItemName, item.Name),
				P(PhCrateName, name),
			}},
		},
	})

	for n := 1; n <= CountdownStages; n++ {
		suffix := strconv.Itoa(n)
		stages = append(stages, sequencer.Stage[*Env]{
			Name: StageCountdown + suffix,
			Actions: []sequencer.Action[*Env]{
				SendTitle{Player: pid, Key: MsgCountdownBase + suffix, FadeIn: TitleFadeIn, Stay: TitleStay, FadeOut: TitleFadeOut},
				SendTip{Player: pid, Key: MsgOpenCrateTip, Args: []Placeholder{P(PhCrate, name)}},
				PlaySound{Player: pid, Sound: SoundCountdown, Volume: SoundVolume, Pitch: SoundPitch},
				SpawnParticles{Entity: entity, Kind: ParticleCountdown},
			},
		})
	}
	return stages
}

// denyOpen cancels with a user-facing reason and tells the player.
func (e *Engine) denyOpen(ev *OpenCrateEvent, attempt store.OpenAttempt, r Reason) (Outcome, error) {
	ev.Cancel(r)
	ev.Player.SendMessage(e.host.Localizer.Generate(string(r), P(PhCrate, ev.Crate.DisplayName())))

	attempt.Outcome = string(r)
	e.journal.RecordOpenAttempt(attempt)
	e.logger.Debug("open denied", "player", attempt.Player, "crate", attempt.Crate, "reason", r)
	return ev.Outcome(), nil
}

// rejectOpen cancels for a configuration fault. The player gets no message.
func (e *Engine) rejectOpen(ev *OpenCrateEvent, attempt store.OpenAttempt, err *Error) (Outcome, error) {
	ev.Cancel(ReasonInvalid)

	attempt.Outcome = string(ReasonInvalid)
	e.journal.RecordOpenAttempt(attempt)
	e.logger.Error("open failed", "player", attempt.Player, "crate", attempt.Crate, "code", err.Code, "error", err.Err)
	return ev.Outcome(), err
}

// GiveKey credits keys to one receiver and tells them.
func (e *Engine) GiveKey(ev *GiveKeyEvent) (Outcome, error) {
	if err := e.checkGrant("give-key", ev.KeyType, ev.Amount); err != nil {
		err.Player = string(ev.Receiver.ID())
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), err
	}
	if err := e.grant(ev.Receiver, ev.KeyType, ev.Amount, store.SourceGiveKey); err != nil {
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), err
	}
	return Proceed, nil
}

// GiveAllKeys credits keys to every connected player, in registry order.
// The request is validated once, before any player is credited.
func (e *Engine) GiveAllKeys(ev *GiveAllKeysEvent) (Outcome, error) {
	if err := e.checkGrant("give-all-keys", ev.KeyType, ev.Amount); err != nil {
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), err
	}
	for _, p := range e.host.Players.Online() {
		if err := e.grant(p, ev.KeyType, ev.Amount, store.SourceGiveAllKeys); err != nil {
			ev.Cancel(ReasonInvalid)
			return ev.Outcome(), err
		}
	}
	return Proceed, nil
}

func (e *Engine) checkGrant(op string, t crate.Type, amount int) *Error {
	if !t.Valid() {
		return &Error{Code: ErrCodeUnknownCrate, Op: op, Crate: string(t), Err: crate.ErrUnknownType}
	}
	if amount <= 0 {
		return &Error{Code: ErrCodeInvalidAmount, Op: op, Crate: string(t), Err: fmt.Errorf("amount %d: %w", amount, ledger.ErrInvalidAmount)}
	}
	return nil
}

func (e *Engine) grant(p Player, t crate.Type, amount int, source string) *Error {
	balance, err := e.ledger.AddKeys(p.ID(), t, amount)
	if err != nil {
		code := ErrCodeInvalidAmount
		if errors.Is(err, crate.ErrUnknownType) {
			code = ErrCodeUnknownCrate
		}
		return &Error{Code: code, Op: source, Player: string(p.ID()), Crate: string(t), Err: err}
	}

	p.SendMessage(e.host.Localizer.Generate(MsgReceivedKeys,
		P(PhAmount, strconv.Itoa(amount)),
		P(PhKeyType, string(t)),
	))

	e.journal.RecordKeyGrant(store.KeyGrant{
		Tick:    e.sched.Now(),
		Player:  string(p.ID()),
		Crate:   string(t),
		Amount:  amount,
		Balance: balance,
		Source:  source,
	})
	e.logger.Debug("keys granted", "player", p.ID(), "crate", t, "amount", amount, "balance", balance)
	return nil
}

// SpawnCrate places a crate entity at the admin's location.
func (e *Engine) SpawnCrate(ev *SpawnCrateEvent) (Outcome, error) {
	p := ev.Player
	if !p.HasPermission(PermissionAdmin) {
		ev.Cancel(ReasonNoPermission)
		p.SendMessage(e.host.Localizer.Generate(MsgNoPermission))
		return ev.Outcome(), nil
	}

	params, err := crate.SpawnParamsFor(ev.Crate)
	if err != nil {
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), &Error{Code: ErrCodeUnknownCrate, Op: "spawn-crate", Player: string(p.ID()), Crate: string(ev.Crate), Err: err}
	}
	if e.host.Spawner == nil {
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), &Error{Code: ErrCodeSpawn, Op: "spawn-crate", Player: string(p.ID()), Crate: string(ev.Crate), Err: errors.New("host has no spawner")}
	}

	ent, err := e.host.Spawner.Spawn(p.Location(), params)
	if err != nil {
		ev.Cancel(ReasonInvalid)
		return ev.Outcome(), &Error{Code: ErrCodeSpawn, Op: "spawn-crate", Player: string(p.ID()), Crate: string(ev.Crate), Err: err}
	}

	p.SendMessage(e.host.Localizer.Generate(MsgCrateSpawned, P(PhCrateType, string(ev.Crate))))
	e.logger.Info("crate spawned", "player", p.ID(), "crate", ev.Crate, "entity", ent.ID())
	return Proceed, nil
}

// PlayerQuit aborts the player's reveals, active and waiting, and drops
// their session. A reveal never resumes when the same id joins again.
func (e *Engine) PlayerQuit(p crate.PlayerID) {
	aborted := e.seq.Abort(string(p))
	e.ledger.Drop(p)
	e.logger.Debug("session dropped", "player", p, "reveals_aborted", aborted)
}

// StageRan implements sequencer.Observer.
func (e *Engine) StageRan(q sequencer.Info, index int, stage string) {
	e.journal.RecordStageRun(store.StageRun{
		Tick:       e.sched.Now(),
		QueueID:    q.ID,
		Player:     q.Owner,
		Crate:      q.Label,
		StageIndex: index,
		StageName:  stage,
	})
}

// QueueFinished implements sequencer.Observer. A reveal that ends before
// its first stage gives its key reservation back.
func (e *Engine) QueueFinished(q sequencer.Info, final sequencer.State) {
	if q.Executed == 0 {
		e.env.release(crate.PlayerID(q.Owner), crate.Type(q.Label))
	}
	e.journal.RecordQueueResult(store.QueueResult{
		QueueID:   q.ID,
		Tick:      e.sched.Now(),
		Player:    q.Owner,
		Crate:     q.Label,
		State:     final.String(),
		StagesRun: q.Executed,
	})
	e.logger.Debug("reveal finished", "queue", q.ID, "player", q.Owner, "state", final.String(), "stages_run", q.Executed)
}

type silentEffects struct{}

func (silentEffects) PlaySound(Player, string, float64, float64) {}
func (silentEffects) SpawnParticles(Location, ParticleKind)      {}
