package crate

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownType is returned when a crate type identifier is not one of the
// known crate types. Callers treat it as a configuration bug.
var ErrUnknownType = errors.New("unknown crate type")

// Type identifies a crate kind. It selects both the reward pool and the key
// balance bucket a request targets.
type Type string

const (
	Mage    Type = "mage"
	Ice     Type = "ice"
	Ender   Type = "ender"
	Magma   Type = "magma"
	Pegasus Type = "pegasus"
)

// Types returns every known crate type in declaration order.
func Types() []Type {
	return []Type{Mage, Ice, Ender, Magma, Pegasus}
}

// Valid reports whether t is one of the known crate types.
func (t Type) Valid() bool {
	switch t {
	case Mage, Ice, Ender, Magma, Pegasus:
		return true
	}
	return false
}

// DisplayName returns the title-cased name used in player-facing messages
// ("mage" -> "Mage").
func (t Type) DisplayName() string {
	return cases.Title(language.Und).String(string(t))
}

// ParseType converts a raw identifier to a Type. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// PlayerID is the stable identifier of a connected player.
type PlayerID string

// EntityID identifies an in-world crate entity.
type EntityID string

// Item is a concrete grantable item.
type Item struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Count int      `json:"count" yaml:"count"`
	Lore  []string `json:"lore,omitempty" yaml:"lore,omitempty"`
}

// WithLore returns a copy of the item whose lore is replaced by lines.
// The receiver is left untouched.
func (i Item) WithLore(lines ...string) Item {
	out := i
	out.Lore = append([]string(nil), lines...)
	return out
}

// PoolEntry is one weighted outcome of a reward pool. ItemID references an
// item that must still be resolved before it can be granted.
type PoolEntry struct {
	ItemID string  `json:"item_id" yaml:"item"`
	Count  int     `json:"count,omitempty" yaml:"count,omitempty"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Reward is the result of a successful selection.
type Reward struct {
	Crate Type
	Entry PoolEntry
}

// Definition is the static configuration of one crate type.
type Definition struct {
	Type Type
	Pool []PoolEntry
}
