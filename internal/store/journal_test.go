package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_WritesInSeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	j, err := NewJournal(ctx, s)
	require.NoError(t, err)

	j.RecordKeyGrant(KeyGrant{Player: "alex", Crate: "mage", Amount: 1, Balance: 1, Source: SourceGiveKey})
	j.RecordOpenAttempt(OpenAttempt{Player: "alex", Crate: "mage", Outcome: "scheduled", Item: "diamond", QueueID: "q1"})
	j.RecordStageRun(StageRun{QueueID: "q1", Player: "alex", Crate: "mage", StageIndex: 0, StageName: "reveal"})
	j.RecordQueueResult(QueueResult{QueueID: "q1", Player: "alex", Crate: "mage", State: "drained", StagesRun: 4})
	j.Close()

	entries, err := s.ReadHistory(ctx, "alex", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, int64(4), entries[2].Seq)

	runs, err := s.ReadStageRuns(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].Seq)
	assert.Len(t, runs[0].ID, 36, "ids default to UUIDv7")
	assert.Equal(t, int64(0), j.Dropped())
}

func TestJournal_ResumesSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	j1, err := NewJournal(ctx, s)
	require.NoError(t, err)
	j1.RecordKeyGrant(KeyGrant{Player: "alex", Crate: "ice", Amount: 2, Balance: 2, Source: SourceGiveKey})
	j1.Close()

	j2, err := NewJournal(ctx, s)
	require.NoError(t, err)
	j2.RecordKeyGrant(KeyGrant{Player: "alex", Crate: "ice", Amount: 1, Balance: 3, Source: SourceGiveKey})
	j2.Close()

	grants, err := s.ReadKeyGrants(ctx, "alex")
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, int64(1), grants[0].Seq)
	assert.Equal(t, int64(2), grants[1].Seq)
}

func TestJournal_DropsAfterClose(t *testing.T) {
	s := createTestStore(t)

	j, err := NewJournal(context.Background(), s)
	require.NoError(t, err)
	j.Close()
	j.Close()

	j.RecordOpenAttempt(OpenAttempt{Player: "alex", Crate: "mage", Outcome: "no-keys"})
	assert.Equal(t, int64(1), j.Dropped())
}
