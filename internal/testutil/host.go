package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/engine"
)

// Title is one SendTitle call.
type Title struct {
	Title    string
	Subtitle string
	FadeIn   int
	Stay     int
	FadeOut  int
}

// Player is a recording engine.Player.
type Player struct {
	id          crate.PlayerID
	name        string
	online      bool
	permissions map[string]bool
	location    engine.Location
	inventory   *Inventory
	log         *CallLog

	Messages []string
	Tips     []string
	Titles   []Title
}

// NewPlayer creates an online player with an unlimited inventory.
func NewPlayer(id crate.PlayerID, name string) *Player {
	p := &Player{
		id:          id,
		name:        name,
		online:      true,
		permissions: make(map[string]bool),
		location:    engine.Location{World: "world"},
	}
	p.WithInventory(NewInventory(0))
	return p
}

func (p *Player) ID() crate.PlayerID          { return p.id }
func (p *Player) Name() string                { return p.name }
func (p *Player) Online() bool                { return p.online }
func (p *Player) Location() engine.Location   { return p.location }
func (p *Player) Inventory() engine.Inventory { return p.inventory }

func (p *Player) SendMessage(text string) {
	p.Messages = append(p.Messages, text)
	p.log.Record("message", string(p.id), text)
}

func (p *Player) SendTip(text string) {
	p.Tips = append(p.Tips, text)
	p.log.Record("tip", string(p.id), text)
}

func (p *Player) SendTitle(title, subtitle string, fadeIn, stay, fadeOut int) {
	p.Titles = append(p.Titles, Title{Title: title, Subtitle: subtitle, FadeIn: fadeIn, Stay: stay, FadeOut: fadeOut})
	p.log.Record("title", string(p.id), fmt.Sprintf("%s %d/%d/%d", title, fadeIn, stay, fadeOut))
}

func (p *Player) HasPermission(permission string) bool {
	return p.permissions[permission]
}

// Grant gives the player a permission.
func (p *Player) Grant(permission string) *Player {
	p.permissions[permission] = true
	return p
}

// MoveTo sets the player's location.
func (p *Player) MoveTo(loc engine.Location) *Player {
	p.location = loc
	return p
}

// Disconnect marks the player offline.
func (p *Player) Disconnect() {
	p.online = false
}

// Reconnect marks the player online again under the same id.
func (p *Player) Reconnect() {
	p.online = true
}

// Items returns the recording inventory.
func (p *Player) Items() *Inventory {
	return p.inventory
}

// WithInventory replaces the player's inventory.
func (p *Player) WithInventory(inv *Inventory) *Player {
	inv.owner = p.id
	inv.log = p.log
	p.inventory = inv
	return p
}

// WithLog records the player's calls, and their inventory's, in log.
func (p *Player) WithLog(log *CallLog) *Player {
	p.log = log
	p.inventory.log = log
	return p
}

// Inventory is a slot-limited engine.Inventory.
type Inventory struct {
	slots int
	owner crate.PlayerID
	log   *CallLog
	Items []crate.Item
}

// NewInventory creates an inventory with the given number of slots.
// Zero or fewer slots means unlimited.
func NewInventory(slots int) *Inventory {
	return &Inventory{slots: slots}
}

// CanAddItem reports whether a free slot is left.
func (inv *Inventory) CanAddItem(crate.Item) bool {
	return inv.slots <= 0 || len(inv.Items) < inv.slots
}

// AddItem stores the item. It does not recheck capacity.
func (inv *Inventory) AddItem(item crate.Item) {
	inv.Items = append(inv.Items, item)
	inv.log.Record("item", string(inv.owner), fmt.Sprintf("%s x%d %s", item.ID, item.Count, strings.Join(item.Lore, "|")))
}

// Registry keeps players in join order.
type Registry struct {
	order   []crate.PlayerID
	players map[crate.PlayerID]*Player
}

// NewRegistry creates a registry holding players.
func NewRegistry(players ...*Player) *Registry {
	r := &Registry{players: make(map[crate.PlayerID]*Player)}
	for _, p := range players {
		r.Add(p)
	}
	return r
}

// Add registers p. Re-adding an id replaces the player in place.
func (r *Registry) Add(p *Player) {
	if _, ok := r.players[p.id]; !ok {
		r.order = append(r.order, p.id)
	}
	r.players[p.id] = p
}

// Online returns connected players in join order.
func (r *Registry) Online() []engine.Player {
	out := make([]engine.Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.online {
			out = append(out, p)
		}
	}
	return out
}

// Player looks up a player, online or not.
func (r *Registry) Player(id crate.PlayerID) (engine.Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// Get returns the concrete player.
func (r *Registry) Get(id crate.PlayerID) *Player {
	return r.players[id]
}

// Entity is a destroyable engine.Entity.
type Entity struct {
	id       crate.EntityID
	valid    bool
	location engine.Location
	Params   crate.SpawnParams
}

// NewEntity creates a live entity.
func NewEntity(id crate.EntityID, loc engine.Location) *Entity {
	return &Entity{id: id, valid: true, location: loc}
}

func (e *Entity) ID() crate.EntityID        { return e.id }
func (e *Entity) Valid() bool               { return e.valid }
func (e *Entity) Location() engine.Location { return e.location }

// Destroy invalidates the entity.
func (e *Entity) Destroy() {
	e.valid = false
}

// World holds crate entities and implements engine.Entities and
// engine.Spawner.
type World struct {
	entities map[crate.EntityID]*Entity
	spawned  int
	log      *CallLog

	// Err, when set, is returned by Spawn.
	Err error
}

// NewWorld creates a world holding entities.
func NewWorld(entities ...*Entity) *World {
	w := &World{entities: make(map[crate.EntityID]*Entity)}
	for _, e := range entities {
		w.Add(e)
	}
	return w
}

// Add places e in the world.
func (w *World) Add(e *Entity) {
	w.entities[e.id] = e
}

// Entity looks up an entity.
func (w *World) Entity(id crate.EntityID) (engine.Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	return e, true
}

// Get returns the concrete entity.
func (w *World) Get(id crate.EntityID) *Entity {
	return w.entities[id]
}

// Spawn creates an entity named "<kind>-<n>".
func (w *World) Spawn(at engine.Location, params crate.SpawnParams) (engine.Entity, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	w.spawned++
	e := NewEntity(crate.EntityID(fmt.Sprintf("%s-%d", params.EntityKind, w.spawned)), at)
	e.Params = params
	w.entities[e.id] = e
	w.log.Record("spawned", string(e.id), fmt.Sprintf("%s %q @%s", params.EntityKind, params.NameTag, FormatLocation(at)))
	return e, nil
}

// Sound is one PlaySound call.
type Sound struct {
	Player crate.PlayerID
	Sound  string
	Volume float64
	Pitch  float64
}

// Particles is one SpawnParticles call.
type Particles struct {
	At   engine.Location
	Kind engine.ParticleKind
}

// Effects records sounds and particles.
type Effects struct {
	Sounds    []Sound
	Particles []Particles
	log       *CallLog
}

func (fx *Effects) PlaySound(p engine.Player, sound string, volume, pitch float64) {
	fx.Sounds = append(fx.Sounds, Sound{Player: p.ID(), Sound: sound, Volume: volume, Pitch: pitch})
	fx.log.Record("sound", string(p.ID()), fmt.Sprintf("%s %g/%g", sound, volume, pitch))
}

func (fx *Effects) SpawnParticles(at engine.Location, kind engine.ParticleKind) {
	fx.Particles = append(fx.Particles, Particles{At: at, Kind: kind})
	fx.log.Record("particles", "", fmt.Sprintf("%s @%s", kind, FormatLocation(at)))
}

// FormatLocation renders a location as "world(x,y,z)".
func FormatLocation(l engine.Location) string {
	return fmt.Sprintf("%s(%g,%g,%g)", l.World, l.X, l.Y, l.Z)
}

// EchoLocalizer renders a key followed by its placeholders, e.g.
// "won-item {itemName}=Diamond".
type EchoLocalizer struct{}

// Generate implements engine.Localizer.
func (EchoLocalizer) Generate(key string, args ...engine.Placeholder) string {
	if len(args) == 0 {
		return key
	}
	var b strings.Builder
	b.WriteString(key)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	return b.String()
}

// ItemTable resolves pool entries by item id to display names.
type ItemTable map[string]string

// Resolve implements engine.ItemResolver.
func (t ItemTable) Resolve(entry crate.PoolEntry) (crate.Item, bool) {
	name, ok := t[entry.ItemID]
	if !ok {
		return crate.Item{}, false
	}
	return crate.Item{ID: entry.ItemID, Name: name, Count: entry.Count}, true
}

// Host bundles a registry, world and effects recorder behind an
// engine.Host. Every host call is appended to Log.
type Host struct {
	Registry *Registry
	World    *World
	Effects  *Effects
	Items    ItemTable
	Log      *CallLog
}

// NewHost creates an empty simulated host.
func NewHost(items ItemTable) *Host {
	log := NewCallLog()
	world := NewWorld()
	world.log = log
	return &Host{
		Registry: NewRegistry(),
		World:    world,
		Effects:  &Effects{log: log},
		Items:    items,
		Log:      log,
	}
}

// Join creates an online player that records into the host log and adds
// them to the registry.
func (h *Host) Join(id crate.PlayerID, name string) *Player {
	p := NewPlayer(id, name).WithLog(h.Log)
	h.Registry.Add(p)
	return p
}

// Engine returns the collaborator bundle for engine.New.
func (h *Host) Engine() engine.Host {
	return engine.Host{
		Localizer: EchoLocalizer{},
		Players:   h.Registry,
		Entities:  h.World,
		Effects:   h.Effects,
		Items:     h.Items,
		Spawner:   h.World,
	}
}

// Call is one recorded host call.
type Call struct {
	Tick   uint64
	Kind   string
	Target string
	Detail string
}

// CallLog is an ordered record of host calls. A nil *CallLog records
// nothing.
type CallLog struct {
	mu    sync.Mutex
	now   func() uint64
	calls []Call
}

// NewCallLog creates an empty log stamped with tick 0.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// SetClock sets the tick source used to stamp calls.
func (l *CallLog) SetClock(now func() uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Record appends a call.
func (l *CallLog) Record(kind, target, detail string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var tick uint64
	if l.now != nil {
		tick = l.now()
	}
	l.calls = append(l.calls, Call{Tick: tick, Kind: kind, Target: target, Detail: detail})
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}
