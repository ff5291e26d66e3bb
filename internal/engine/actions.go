package engine

import (
	"log/slog"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/ledger"
)

// Env is what reveal actions act through. It is owned by the tick
// goroutine.
type Env struct {
	Host   Host
	Ledger *ledger.Ledger
	Logger *slog.Logger

	// reserved counts keys promised to reveals whose stage 0 has not run.
	reserved map[reservation]int
}

type reservation struct {
	player crate.PlayerID
	crate  crate.Type
}

func newEnv(host Host, l *ledger.Ledger, logger *slog.Logger) *Env {
	return &Env{
		Host:     host,
		Ledger:   l,
		Logger:   logger,
		reserved: make(map[reservation]int),
	}
}

// Reserved returns the keys of t held for unstarted reveals of p.
func (env *Env) Reserved(p crate.PlayerID, t crate.Type) int {
	return env.reserved[reservation{p, t}]
}

func (env *Env) reserve(p crate.PlayerID, t crate.Type) {
	env.reserved[reservation{p, t}]++
}

func (env *Env) release(p crate.PlayerID, t crate.Type) {
	key := reservation{p, t}
	if env.reserved[key] <= 1 {
		delete(env.reserved, key)
		return
	}
	env.reserved[key]--
}

// player resolves an online player. Actions addressed to an absent player
// are skipped.
func (env *Env) player(id crate.PlayerID) (Player, bool) {
	p, ok := env.Host.Players.Player(id)
	if !ok || !p.Online() {
		return nil, false
	}
	return p, true
}

func (env *Env) entity(id crate.EntityID) (Entity, bool) {
	if id == "" || env.Host.Entities == nil {
		return nil, false
	}
	e, ok := env.Host.Entities.Entity(id)
	if !ok || !e.Valid() {
		return nil, false
	}
	return e, true
}

func (env *Env) text(key string, args []Placeholder) string {
	return env.Host.Localizer.Generate(key, args...)
}

// SendMessage sends a localized chat message to one player.
type SendMessage struct {
	Player crate.PlayerID
	Key    string
	Args   []Placeholder
}

// Apply implements sequencer.Action.
func (a SendMessage) Apply(env *Env) {
	if p, ok := env.player(a.Player); ok {
		p.SendMessage(env.text(a.Key, a.Args))
	}
}

// SendTip shows a localized tip to one player.
type SendTip struct {
	Player crate.PlayerID
	Key    string
	Args   []Placeholder
}

// Apply implements sequencer.Action.
func (a SendTip) Apply(env *Env) {
	if p, ok := env.player(a.Player); ok {
		p.SendTip(env.text(a.Key, a.Args))
	}
}

// SendTitle shows a localized title to one player.
type SendTitle struct {
	Player  crate.PlayerID
	Key     string
	FadeIn  int
	Stay    int
	FadeOut int
}

// Apply implements sequencer.Action.
func (a SendTitle) Apply(env *Env) {
	if p, ok := env.player(a.Player); ok {
		p.SendTitle(env.text(a.Key, nil), "", a.FadeIn, a.Stay, a.FadeOut)
	}
}

// GrantItem tags the item with its crate lore and adds it to the player's
// inventory.
type GrantItem struct {
	Player crate.PlayerID
	Crate  crate.Type
	Item   crate.Item
}

// Apply implements sequencer.Action.
func (a GrantItem) Apply(env *Env) {
	p, ok := env.player(a.Player)
	if !ok {
		return
	}
	lore := env.text(MsgCrateLore, []Placeholder{P(PhCrate, a.Crate.DisplayName())})
	p.Inventory().AddItem(a.Item.WithLore(lore))
}

// DeductKey removes one key and releases the reservation taken when the
// reveal was scheduled.
type DeductKey struct {
	Player crate.PlayerID
	Crate  crate.Type
}

// Apply implements sequencer.Action.
func (a DeductKey) Apply(env *Env) {
	env.release(a.Player, a.Crate)

	ok, err := env.Ledger.ReduceKey(a.Player, a.Crate)
	if err != nil {
		env.Logger.Error("deduct key failed", "player", a.Player, "crate", a.Crate, "error", err)
		return
	}
	if !ok {
		env.Logger.Warn("deduct key on empty balance", "player", a.Player, "crate", a.Crate)
	}
}

// PlaySound plays a sound to one player.
type PlaySound struct {
	Player crate.PlayerID
	Sound  string
	Volume float64
	Pitch  float64
}

// Apply implements sequencer.Action.
func (a PlaySound) Apply(env *Env) {
	if p, ok := env.player(a.Player); ok {
		env.Host.Effects.PlaySound(p, a.Sound, a.Volume, a.Pitch)
	}
}

// SpawnParticles spawns particles at the crate entity.
type SpawnParticles struct {
	Entity crate.EntityID
	Kind   ParticleKind
}

// Apply implements sequencer.Action.
func (a SpawnParticles) Apply(env *Env) {
	if e, ok := env.entity(a.Entity); ok {
		env.Host.Effects.SpawnParticles(e.Location(), a.Kind)
	}
}

// BroadcastTip shows a localized tip to every connected player.
type BroadcastTip struct {
	Key  string
	Args []Placeholder
}

// Apply implements sequencer.Action.
func (a BroadcastTip) Apply(env *Env) {
	for _, p := range env.Host.Players.Online() {
		p.SendTip(env.text(a.Key, a.Args))
	}
}

// revealSubject keeps a reveal alive while the player is online and the
// crate entity (when there is one) still exists.
type revealSubject struct {
	Player crate.PlayerID
	Entity crate.EntityID
}

// Valid implements sequencer.Subject.
func (s revealSubject) Valid(env *Env) bool {
	if _, ok := env.player(s.Player); !ok {
		return false
	}
	if s.Entity == "" {
		return true
	}
	_, ok := env.entity(s.Entity)
	return ok
}

// roomCheck gates stage 0 on inventory space at grant time. A queued reveal
// may find the inventory filled after it was scheduled; the player is told
// and the reveal aborts with its key untouched.
type roomCheck struct {
	Player crate.PlayerID
	Crate  crate.Type
	Item   crate.Item
}

// Valid implements sequencer.Subject.
func (c roomCheck) Valid(env *Env) bool {
	p, ok := env.player(c.Player)
	if !ok {
		return false
	}
	if p.Inventory().CanAddItem(c.Item) {
		return true
	}
	p.SendMessage(env.text(string(ReasonInventoryFull), []Placeholder{P(PhCrate, c.Crate.DisplayName())}))
	env.Logger.Debug("reveal stopped on full inventory", "player", c.Player, "crate", c.Crate, "item", c.Item.ID)
	return false
}
