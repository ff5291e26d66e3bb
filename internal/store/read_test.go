package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.WriteKeyGrant(ctx, KeyGrant{ID: "g1", Seq: 1, Tick: 1, Player: "alex", Crate: "mage", Amount: 1, Balance: 1, Source: SourceGiveKey}))
	require.NoError(t, s.WriteOpenAttempt(ctx, OpenAttempt{ID: "o1", Seq: 2, Tick: 2, Player: "alex", Crate: "mage", Outcome: "scheduled", Item: "diamond", QueueID: "q1"}))
	require.NoError(t, s.WriteOpenAttempt(ctx, OpenAttempt{ID: "o2", Seq: 3, Tick: 2, Player: "steve", Crate: "ice", Outcome: "no-keys"}))
	require.NoError(t, s.WriteQueueResult(ctx, QueueResult{QueueID: "q1", Seq: 4, Tick: 82, Player: "alex", Crate: "mage", State: "drained", StagesRun: 4}))
}

func TestReadHistory_Player(t *testing.T) {
	s := createTestStore(t)
	seedHistory(t, s)

	entries, err := s.ReadHistory(context.Background(), "alex", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "key_grant", entries[0].Kind)
	assert.Equal(t, "+1 (give-key) -> 1", entries[0].Detail)
	assert.Equal(t, "open_attempt", entries[1].Kind)
	assert.Equal(t, "scheduled diamond", entries[1].Detail)
	assert.Equal(t, "queue_result", entries[2].Kind)
	assert.Equal(t, "drained after 4 stages", entries[2].Detail)
	assert.Equal(t, uint64(82), entries[2].Tick)
}

func TestReadHistory_AllPlayersWithLimit(t *testing.T) {
	s := createTestStore(t)
	seedHistory(t, s)

	entries, err := s.ReadHistory(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].Seq, "most recent entries, ascending")
	assert.Equal(t, "no-keys", entries[0].Detail)
	assert.Equal(t, int64(4), entries[1].Seq)
}

func TestReadOpenAttempts_Empty(t *testing.T) {
	s := createTestStore(t)

	attempts, err := s.ReadOpenAttempts(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, attempts)
	assert.Empty(t, attempts)
}
