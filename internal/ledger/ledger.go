// Package ledger tracks per-player key balances for every crate type.
//
// Sessions are created lazily on first lookup and dropped when the player
// disconnects. Balances are never negative: reducing an empty balance is a
// no-op. The ledger is accessed only from the tick goroutine, so it carries
// no locks.
package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/crates/internal/crate"
)

// ErrInvalidAmount is returned when a key grant amount is not positive.
var ErrInvalidAmount = errors.New("key amount must be positive")

// Session holds the key balances of one connected player.
type Session struct {
	player crate.PlayerID
	keys   map[crate.Type]int
}

func newSession(p crate.PlayerID) *Session {
	return &Session{
		player: p,
		keys:   make(map[crate.Type]int),
	}
}

// Player returns the owning player.
func (s *Session) Player() crate.PlayerID {
	return s.player
}

// Keys returns the balance for t. Unknown types have no balance.
func (s *Session) Keys(t crate.Type) int {
	return s.keys[t]
}

// Add increments the balance for t by n and returns the new balance.
func (s *Session) Add(t crate.Type, n int) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("add keys: %w: %q", crate.ErrUnknownType, t)
	}
	if n <= 0 {
		return s.keys[t], fmt.Errorf("add keys: %w (got %d)", ErrInvalidAmount, n)
	}
	s.keys[t] += n
	return s.keys[t], nil
}

// Reduce decrements the balance for t by exactly one. It reports false and
// leaves the balance untouched when the balance is already zero.
func (s *Session) Reduce(t crate.Type) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("reduce key: %w: %q", crate.ErrUnknownType, t)
	}
	if s.keys[t] <= 0 {
		return false, nil
	}
	s.keys[t]--
	return true, nil
}

// Balances returns a copy of all non-zero balances.
func (s *Session) Balances() map[crate.Type]int {
	out := make(map[crate.Type]int, len(s.keys))
	for t, n := range s.keys {
		if n > 0 {
			out[t] = n
		}
	}
	return out
}

// Ledger maps connected players to their sessions.
type Ledger struct {
	sessions map[crate.PlayerID]*Session
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{sessions: make(map[crate.PlayerID]*Session)}
}

// Session returns the session for p, creating it on first lookup.
func (l *Ledger) Session(p crate.PlayerID) *Session {
	s, ok := l.sessions[p]
	if !ok {
		s = newSession(p)
		l.sessions[p] = s
	}
	return s
}

// Lookup returns the live session of p without creating one.
func (l *Ledger) Lookup(p crate.PlayerID) (*Session, bool) {
	s, ok := l.sessions[p]
	return s, ok
}

// KeyCount returns the key balance of p for t.
func (l *Ledger) KeyCount(p crate.PlayerID, t crate.Type) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("key count: %w: %q", crate.ErrUnknownType, t)
	}
	return l.Session(p).Keys(t), nil
}

// AddKeys grants amount keys of type t to p and returns the new balance.
func (l *Ledger) AddKeys(p crate.PlayerID, t crate.Type, amount int) (int, error) {
	return l.Session(p).Add(t, amount)
}

// ReduceKey removes one key of type t from p. Callers check KeyCount first;
// a zero balance is left at zero and reported as false.
func (l *Ledger) ReduceKey(p crate.PlayerID, t crate.Type) (bool, error) {
	return l.Session(p).Reduce(t)
}

// Balances returns a copy of the non-zero balances of p.
func (l *Ledger) Balances(p crate.PlayerID) map[crate.Type]int {
	s, ok := l.sessions[p]
	if !ok {
		return map[crate.Type]int{}
	}
	return s.Balances()
}

// Drop discards the session of p. Balances are not retained.
func (l *Ledger) Drop(p crate.PlayerID) {
	delete(l.sessions, p)
}

// Len returns the number of live sessions.
func (l *Ledger) Len() int {
	return len(l.sessions)
}
