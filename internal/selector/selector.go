// Package selector draws rewards from a crate's weighted pool.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/crates/internal/crate"
)

// ErrNoRewards signals that the crate's pool is empty. It is an expected
// outcome that callers surface to the player, not a fault.
var ErrNoRewards = errors.New("no rewards available")

// Source supplies uniform random numbers in [0, 1).
type Source interface {
	Float64() float64
}

// Selector picks rewards from a catalog.
type Selector struct {
	catalog *crate.Catalog
	rng     Source
}

// Option configures a Selector.
type Option func(*Selector)

// WithSource replaces the random source. Tests use it for repeatable draws.
func WithSource(src Source) Option {
	return func(s *Selector) {
		s.rng = src
	}
}

// WithSeed uses a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New creates a selector over catalog. Without options it draws from the
// process-wide random generator.
func New(catalog *crate.Catalog, opts ...Option) *Selector {
	s := &Selector{
		catalog: catalog,
		rng:     globalSource{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select draws one entry from the pool of t with probability proportional
// to its weight.
//
// Returns ErrNoRewards for an empty pool and crate.ErrUnknownType for an
// unknown crate type.
func (s *Selector) Select(t crate.Type) (crate.Reward, error) {
	pool, err := s.catalog.Pool(t)
	if err != nil {
		return crate.Reward{}, fmt.Errorf("select reward: %w", err)
	}
	if len(pool) == 0 {
		return crate.Reward{}, ErrNoRewards
	}

	var total float64
	for _, entry := range pool {
		total += entry.Weight
	}

	roll := s.rng.Float64() * total
	var cumulative float64
	for _, entry := range pool {
		cumulative += entry.Weight
		if roll < cumulative {
			return crate.Reward{Crate: t, Entry: entry}, nil
		}
	}

	// Float rounding can leave roll == total; the last entry owns that edge.
	return crate.Reward{Crate: t, Entry: pool[len(pool)-1]}, nil
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
