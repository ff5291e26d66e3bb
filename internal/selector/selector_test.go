package selector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/crate"
)

type fixedSource struct {
	values []float64
	idx    int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.idx%len(f.values)]
	f.idx++
	return v
}

func newCatalog(t *testing.T, defs ...crate.Definition) *crate.Catalog {
	t.Helper()
	c, err := crate.NewCatalog(defs...)
	require.NoError(t, err)
	return c
}

func TestSelect_EmptyPool(t *testing.T) {
	s := New(newCatalog(t, crate.Definition{Type: crate.Ice}))

	for i := 0; i < 10; i++ {
		reward, err := s.Select(crate.Ice)
		require.ErrorIs(t, err, ErrNoRewards)
		assert.Equal(t, crate.Reward{}, reward)
	}

	_, err := s.Select(crate.Ender)
	assert.ErrorIs(t, err, ErrNoRewards, "undefined crate has an empty pool")
}

func TestSelect_UnknownType(t *testing.T) {
	s := New(newCatalog(t))

	_, err := s.Select("dragon")
	require.Error(t, err)
	assert.ErrorIs(t, err, crate.ErrUnknownType)
	assert.NotErrorIs(t, err, ErrNoRewards)
}

func TestSelect_SingleEntry(t *testing.T) {
	s := New(newCatalog(t, crate.Definition{
		Type: crate.Mage,
		Pool: []crate.PoolEntry{{ItemID: "diamond", Weight: 1}},
	}))

	reward, err := s.Select(crate.Mage)
	require.NoError(t, err)
	assert.Equal(t, crate.Mage, reward.Crate)
	assert.Equal(t, "diamond", reward.Entry.ItemID)
}

func TestSelect_CumulativeBoundaries(t *testing.T) {
	cat := newCatalog(t, crate.Definition{
		Type: crate.Magma,
		Pool: []crate.PoolEntry{
			{ItemID: "a", Weight: 1},
			{ItemID: "b", Weight: 3},
		},
	})

	tests := []struct {
		roll float64
		want string
	}{
		{0.0, "a"},
		{0.2499, "a"},
		{0.25, "b"},
		{0.9999, "b"},
	}

	for _, tt := range tests {
		s := New(cat, WithSource(&fixedSource{values: []float64{tt.roll}}))
		reward, err := s.Select(crate.Magma)
		require.NoError(t, err)
		assert.Equal(t, tt.want, reward.Entry.ItemID, "roll %v", tt.roll)
	}
}

func TestSelect_AlwaysMemberOfPool(t *testing.T) {
	pool := []crate.PoolEntry{
		{ItemID: "sword", Weight: 0.5},
		{ItemID: "apple", Weight: 10},
		{ItemID: "totem", Weight: 2},
	}
	s := New(newCatalog(t, crate.Definition{Type: crate.Pegasus, Pool: pool}), WithSeed(7))

	members := map[string]bool{"sword": true, "apple": true, "totem": true}
	for i := 0; i < 1000; i++ {
		reward, err := s.Select(crate.Pegasus)
		require.NoError(t, err)
		assert.True(t, members[reward.Entry.ItemID], "unexpected item %q", reward.Entry.ItemID)
	}
}

func TestSelect_WeightedDistribution(t *testing.T) {
	s := New(newCatalog(t, crate.Definition{
		Type: crate.Mage,
		Pool: []crate.PoolEntry{
			{ItemID: "A", Weight: 1},
			{ItemID: "B", Weight: 3},
		},
	}), WithSeed(42))

	const trials = 20000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		reward, err := s.Select(crate.Mage)
		require.NoError(t, err)
		counts[reward.Entry.ItemID]++
	}

	ratio := float64(counts["B"]) / float64(counts["A"])
	assert.InDelta(t, 3.0, ratio, 0.3, "B should be drawn ~3x as often as A (A=%d B=%d)", counts["A"], counts["B"])
}

func TestSelect_UniformWhenWeightsEqual(t *testing.T) {
	s := New(newCatalog(t, crate.Definition{
		Type: crate.Ender,
		Pool: []crate.PoolEntry{
			{ItemID: "x", Weight: 2},
			{ItemID: "y", Weight: 2},
			{ItemID: "z", Weight: 2},
			{ItemID: "w", Weight: 2},
		},
	}), WithSeed(1))

	const trials = 20000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		reward, err := s.Select(crate.Ender)
		require.NoError(t, err)
		counts[reward.Entry.ItemID]++
	}

	expected := float64(trials) / 4
	for id, n := range counts {
		assert.Less(t, math.Abs(float64(n)-expected)/expected, 0.05, "item %s drawn %d times", id, n)
	}
}
