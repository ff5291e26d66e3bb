package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/crate"
)

func TestLedger_LazySession(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Len())

	n, err := l.KeyCount("steve", crate.Mage)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, l.Len(), "lookup creates the session")

	assert.Same(t, l.Session("steve"), l.Session("steve"))
}

func TestLedger_AddKeys(t *testing.T) {
	l := New()

	for _, amount := range []int{1, 5, 64} {
		before, err := l.KeyCount("alex", crate.Ice)
		require.NoError(t, err)

		got, err := l.AddKeys("alex", crate.Ice, amount)
		require.NoError(t, err)

		after, err := l.KeyCount("alex", crate.Ice)
		require.NoError(t, err)
		assert.Equal(t, before+amount, after)
		assert.Equal(t, after, got)
	}
}

func TestLedger_AddKeysRejectsNonPositive(t *testing.T) {
	l := New()

	for _, amount := range []int{0, -1} {
		_, err := l.AddKeys("alex", crate.Ice, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	n, err := l.KeyCount("alex", crate.Ice)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLedger_ReduceKey(t *testing.T) {
	l := New()
	_, err := l.AddKeys("alex", crate.Magma, 2)
	require.NoError(t, err)

	ok, err := l.ReduceKey("alex", crate.Magma)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.ReduceKey("alex", crate.Magma)
	require.NoError(t, err)
	assert.True(t, ok)

	n, _ := l.KeyCount("alex", crate.Magma)
	assert.Equal(t, 0, n)
}

func TestLedger_ReduceKeyAtZeroIsNoop(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		ok, err := l.ReduceKey("alex", crate.Ender)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	n, err := l.KeyCount("alex", crate.Ender)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "balance never goes negative")
}

func TestLedger_UnknownCrateType(t *testing.T) {
	l := New()

	_, err := l.KeyCount("alex", "dragon")
	assert.ErrorIs(t, err, crate.ErrUnknownType)

	_, err = l.AddKeys("alex", "dragon", 1)
	assert.ErrorIs(t, err, crate.ErrUnknownType)

	_, err = l.ReduceKey("alex", "dragon")
	assert.ErrorIs(t, err, crate.ErrUnknownType)
}

func TestLedger_BalancesAreIndependent(t *testing.T) {
	l := New()
	_, _ = l.AddKeys("alex", crate.Mage, 3)
	_, _ = l.AddKeys("alex", crate.Ice, 1)
	_, _ = l.AddKeys("steve", crate.Mage, 7)

	assert.Equal(t, map[crate.Type]int{crate.Mage: 3, crate.Ice: 1}, l.Balances("alex"))
	assert.Equal(t, map[crate.Type]int{crate.Mage: 7}, l.Balances("steve"))

	got := l.Balances("alex")
	got[crate.Mage] = 100
	n, _ := l.KeyCount("alex", crate.Mage)
	assert.Equal(t, 3, n, "Balances returns a copy")
}

func TestLedger_Drop(t *testing.T) {
	l := New()
	_, _ = l.AddKeys("alex", crate.Pegasus, 4)

	l.Drop("alex")
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Balances("alex"))

	_, ok := l.Lookup("alex")
	assert.False(t, ok, "lookup does not recreate the session")
	assert.Equal(t, 0, l.Len())

	n, _ := l.KeyCount("alex", crate.Pegasus)
	assert.Equal(t, 0, n, "a new session starts empty")
	s, ok := l.Lookup("alex")
	require.True(t, ok)
	assert.Equal(t, crate.PlayerID("alex"), s.Player())
}
