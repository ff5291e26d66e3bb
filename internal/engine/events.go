package engine

import "github.com/roach88/crates/internal/crate"

// Reason explains why an event was cancelled. User-facing reasons double as
// message keys.
type Reason string

const (
	ReasonNoKeys        Reason = MsgNoKeys
	ReasonNoRewards     Reason = MsgNoRewards
	ReasonNoItem        Reason = MsgNoItem
	ReasonInventoryFull Reason = MsgInventoryFull
	ReasonBusy          Reason = MsgBusy
	ReasonNoPermission  Reason = MsgNoPermission

	// ReasonInvalid marks events rejected for a configuration fault. No
	// message is sent to the player.
	ReasonInvalid Reason = "invalid-request"
)

// Outcome is the result of dispatching an event: Proceed, or Cancelled with
// a reason.
type Outcome struct {
	Cancelled bool
	Reason    Reason
}

// Proceed is the outcome of an event nobody cancelled.
var Proceed = Outcome{}

// Cancelled builds a cancelled outcome.
func Cancelled(r Reason) Outcome {
	return Outcome{Cancelled: true, Reason: r}
}

// String returns "proceed" or the cancellation reason.
func (o Outcome) String() string {
	if !o.Cancelled {
		return "proceed"
	}
	return "cancelled: " + string(o.Reason)
}

// Cancellable is embedded by every inbound event. Cancelling vetoes the
// host's default behaviour and stops later listeners.
type Cancellable struct {
	outcome Outcome
}

// Cancel marks the event cancelled. The first reason wins.
func (c *Cancellable) Cancel(r Reason) {
	if c.outcome.Cancelled {
		return
	}
	c.outcome = Cancelled(r)
}

// IsCancelled reports whether any listener cancelled the event.
func (c *Cancellable) IsCancelled() bool {
	return c.outcome.Cancelled
}

// Outcome returns the current outcome.
func (c *Cancellable) Outcome() Outcome {
	return c.outcome
}

// OpenCrateEvent is a player interacting with a crate entity.
type OpenCrateEvent struct {
	Cancellable
	Player Player
	Crate  crate.Type
	Entity Entity
}

// GiveKeyEvent grants keys to one receiver.
type GiveKeyEvent struct {
	Cancellable
	Receiver Player
	KeyType  crate.Type
	Amount   int
}

// GiveAllKeysEvent grants keys to every connected player.
type GiveAllKeysEvent struct {
	Cancellable
	KeyType crate.Type
	Amount  int
}

// SpawnCrateEvent is an admin placing a crate at their location.
type SpawnCrateEvent struct {
	Cancellable
	Player Player
	Crate  crate.Type
}

// PlayerQuitEvent is a player disconnecting. It cannot be meaningfully
// cancelled; the embedded Cancellable keeps dispatch uniform.
type PlayerQuitEvent struct {
	Cancellable
	Player crate.PlayerID
}
