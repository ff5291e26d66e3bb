package engine

import "github.com/roach88/crates/internal/crate"

// PermissionAdmin gates the spawn-crate command.
const PermissionAdmin = "crates.admin"

// Location is a position in a named world.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
}

// Inventory is the destination of granted items.
type Inventory interface {
	CanAddItem(item crate.Item) bool
	AddItem(item crate.Item)
}

// Player is a connected player as seen by the engine.
type Player interface {
	ID() crate.PlayerID
	Name() string
	Online() bool
	SendMessage(text string)
	SendTip(text string)
	SendTitle(title, subtitle string, fadeIn, stay, fadeOut int)
	Inventory() Inventory
	HasPermission(permission string) bool
	Location() Location
}

// Entity is an in-world crate entity.
type Entity interface {
	ID() crate.EntityID
	Valid() bool
	Location() Location
}

// ParticleKind selects a particle effect.
type ParticleKind string

const (
	ParticleLava      ParticleKind = "lava"
	ParticleCountdown ParticleKind = "countdown"
)

// Effects plays sounds and particles.
type Effects interface {
	PlaySound(p Player, sound string, volume, pitch float64)
	SpawnParticles(at Location, kind ParticleKind)
}

// Placeholder is one named substitution in a localized message.
type Placeholder struct {
	Name  string
	Value string
}

// P builds a Placeholder.
func P(name, value string) Placeholder {
	return Placeholder{Name: name, Value: value}
}

// Localizer renders message templates by key.
type Localizer interface {
	Generate(key string, args ...Placeholder) string
}

// Registry enumerates and looks up connected players.
type Registry interface {
	Online() []Player
	Player(id crate.PlayerID) (Player, bool)
}

// Entities looks up crate entities.
type Entities interface {
	Entity(id crate.EntityID) (Entity, bool)
}

// ItemResolver turns a pool entry into a grantable item.
type ItemResolver interface {
	Resolve(entry crate.PoolEntry) (crate.Item, bool)
}

// Spawner creates crate entities in the world.
type Spawner interface {
	Spawn(at Location, params crate.SpawnParams) (Entity, error)
}

// Host bundles the collaborators the engine acts through.
type Host struct {
	Localizer Localizer
	Players   Registry
	Entities  Entities
	Effects   Effects
	Items     ItemResolver
	Spawner   Spawner
}
