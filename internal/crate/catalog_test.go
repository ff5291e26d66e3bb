package crate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_Valid(t *testing.T) {
	c, err := NewCatalog(
		Definition{Type: Mage, Pool: []PoolEntry{{ItemID: "diamond", Weight: 1}}},
		Definition{Type: Ice, Pool: nil},
	)
	require.NoError(t, err)

	pool, err := c.Pool(Mage)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "diamond", pool[0].ItemID)
	assert.Equal(t, 1, pool[0].Count, "count defaults to 1")

	empty, err := c.Pool(Ice)
	require.NoError(t, err)
	assert.Empty(t, empty)

	undefined, err := c.Pool(Ender)
	require.NoError(t, err)
	assert.Empty(t, undefined, "known type without definition has an empty pool")
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
		want error
	}{
		{
			name: "unknown type",
			defs: []Definition{{Type: "dragon"}},
			want: ErrUnknownType,
		},
		{
			name: "duplicate",
			defs: []Definition{{Type: Mage}, {Type: Mage}},
			want: ErrDuplicateDefinition,
		},
		{
			name: "zero weight",
			defs: []Definition{{Type: Mage, Pool: []PoolEntry{{ItemID: "a", Weight: 0}}}},
			want: ErrInvalidWeight,
		},
		{
			name: "negative weight",
			defs: []Definition{{Type: Mage, Pool: []PoolEntry{{ItemID: "a", Weight: -2}}}},
			want: ErrInvalidWeight,
		},
		{
			name: "NaN weight",
			defs: []Definition{{Type: Mage, Pool: []PoolEntry{{ItemID: "a", Weight: math.NaN()}}}},
			want: ErrInvalidWeight,
		},
		{
			name: "missing item",
			defs: []Definition{{Type: Mage, Pool: []PoolEntry{{Weight: 1}}}},
			want: ErrMissingItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCatalog_PoolUnknownType(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	_, err = c.Pool("dragon")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestCatalog_DefinitionsOrdered(t *testing.T) {
	c, err := NewCatalog(
		Definition{Type: Pegasus},
		Definition{Type: Mage},
		Definition{Type: Ice},
	)
	require.NoError(t, err)

	defs := c.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, Mage, defs[0].Type)
	assert.Equal(t, Ice, defs[1].Type)
	assert.Equal(t, Pegasus, defs[2].Type)
}
