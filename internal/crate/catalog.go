package crate

import (
	"errors"
	"fmt"
	"math"
)

// Catalog validation errors.
var (
	ErrDuplicateDefinition = errors.New("duplicate crate definition")
	ErrInvalidWeight       = errors.New("pool weight must be a positive finite number")
	ErrMissingItem         = errors.New("pool entry has no item id")
)

// Catalog holds the validated crate definitions keyed by type.
//
// A catalog is immutable after construction. Types without a definition
// behave as crates with an empty pool.
type Catalog struct {
	defs map[Type]Definition
}

// NewCatalog validates defs and builds a catalog.
//
// Every definition must name a known type at most once, and every pool entry
// must carry an item id and a positive finite weight. A malformed catalog is
// a setup fault; the returned error names the offending crate and entry.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[Type]Definition, len(defs))}

	for _, def := range defs {
		if !def.Type.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, def.Type)
		}
		if _, dup := c.defs[def.Type]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDefinition, def.Type)
		}

		pool := make([]PoolEntry, len(def.Pool))
		for i, entry := range def.Pool {
			if entry.ItemID == "" {
				return nil, fmt.Errorf("crate %s entry %d: %w", def.Type, i, ErrMissingItem)
			}
			if entry.Weight <= 0 || math.IsNaN(entry.Weight) || math.IsInf(entry.Weight, 0) {
				return nil, fmt.Errorf("crate %s entry %d (%s): %w", def.Type, i, entry.ItemID, ErrInvalidWeight)
			}
			if entry.Count <= 0 {
				entry.Count = 1
			}
			pool[i] = entry
		}

		c.defs[def.Type] = Definition{Type: def.Type, Pool: pool}
	}

	return c, nil
}

// Pool returns the reward pool for t. The returned slice must not be
// modified. Unknown types return ErrUnknownType; known types without a
// definition return an empty pool.
func (c *Catalog) Pool(t Type) ([]PoolEntry, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return c.defs[t].Pool, nil
}

// Definitions returns the configured definitions in crate type order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, t := range Types() {
		if def, ok := c.defs[t]; ok {
			out = append(out, def)
		}
	}
	return out
}
