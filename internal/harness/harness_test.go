package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/sequencer"
)

func TestRun_ReportsFailedExpectation(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expect
description: expects a reveal that cannot happen
crates: [{type: ice, pool: [{item: snowball, weight: 1}]}]
items: {snowball: Snowball}
players: [{id: p1, name: Alice}]
steps:
  - open: {player: p1, crate: ice}
    expect: proceed
assertions:
  - {type: keys, player: p1, crate: ice, count: 1}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected proceed, got no-keys")
	assert.Contains(t, result.Errors[1], "assertions[0]")
}

func TestRun_UnknownPlayerIsSetupError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ghost
description: step names a player that never joined
steps:
  - quit: ghost
assertions:
  - {type: trace_count, kind: quit, count: 0}
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown player "ghost"`)
}

func TestRun_KeysOfQuitPlayerAreUnreadable(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: gone
description: a quit player's balance is discarded, not zero
players: [{id: p1, name: Alice, keys: {mage: 2}}, {id: p2, name: Bob, keys: {mage: 1}}]
steps:
  - quit: p1
  - rejoin: p1
assertions:
  - {type: keys, player: p1, crate: mage, count: 0}
  - {type: keys, player: p2, crate: mage, count: 1}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "p1 has no key session")
}

func TestRun_RejoinDoesNotResumeReveal(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: rejoin_early
description: leaving before the reveal forfeits it, even after rejoining
items: {diamond: Diamond}
crates: [{type: mage, pool: [{item: diamond, weight: 1}]}]
players: [{id: p1, name: Alice, keys: {mage: 1}}]
stage_interval: 10
steps:
  - open: {player: p1, crate: mage}
    expect: proceed
  - advance: 5
  - quit: p1
  - rejoin: p1
  - advance: 50
assertions:
  - {type: inventory, player: p1, items: []}
  - {type: trace_count, kind: stage, count: 0}
  - {type: trace_contains, kind: finish, target: p1, detail: aborted 0/4}
  - {type: history_count, kind: queue_result, player: p1, count: 1}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestRun_InvalidCatalog(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_weight
description: zero weights are rejected before anything runs
crates: [{type: mage, pool: [{item: diamond, weight: 0}]}]
steps:
  - advance: 1
assertions:
  - {type: trace_count, kind: stage, count: 0}
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
}

func TestRun_SlotsLimitInventory(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: full_bag
description: a one-slot inventory takes one reward, then refuses
items: {diamond: Diamond}
crates: [{type: mage, pool: [{item: diamond, weight: 1}]}]
players: [{id: p1, name: Alice, slots: 1, keys: {mage: 2}}]
stage_interval: 1
steps:
  - open: {player: p1, crate: mage}
    expect: proceed
  - advance: 4
  - open: {player: p1, crate: mage}
    expect: inventory-full
assertions:
  - {type: keys, player: p1, crate: mage, count: 1}
  - {type: inventory, player: p1, items: [diamond]}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RealTimeMatchesSimulated(t *testing.T) {
	for _, name := range []string{"busy_enqueue", "quit_mid_reveal"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			simulated, err := Run(s)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			live, err := Run(s, WithRealTime(time.Millisecond), WithContext(ctx))
			require.NoError(t, err)

			assert.True(t, live.Pass, "errors: %v", live.Errors)
			assert.Equal(t, simulated.Trace, live.Trace)
			assert.Equal(t, FormatTrace(s.Name, simulated), FormatTrace(s.Name, live))
		})
	}
}

func TestRun_RealTimeHonoursContext(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: long_wait
description: waits far longer than the context allows
steps:
  - advance: 100000
assertions:
  - {type: trace_count, kind: stage, count: 0}
`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Run(s, WithRealTime(time.Millisecond), WithContext(ctx))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_DefaultStageInterval(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: default_interval
description: scenario leaves the interval to the caller
crates: [{type: mage, pool: [{item: diamond, weight: 1}]}]
items: {diamond: Diamond}
players: [{id: p1, name: Alice, keys: {mage: 1}}]
steps:
  - open: {player: p1, crate: mage}
    expect: proceed
  - advance: 8
assertions:
  - {type: trace_count, kind: stage, count: 4}
  - {type: keys, player: p1, crate: mage, count: 0}
`))
	require.NoError(t, err)

	result, err := Run(s, WithStageInterval(2))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SeededDrawsStayInPool(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: seeded
description: unscripted draws come from the seeded source
crates: [{type: mage, pool: [{item: diamond, weight: 1}, {item: emerald, weight: 1}]}]
items: {diamond: Diamond, emerald: Emerald}
stage_interval: 1
players: [{id: p1, name: Alice, keys: {mage: 1}}]
steps:
  - open: {player: p1, crate: mage}
    expect: proceed
  - advance: 4
assertions:
  - {type: keys, player: p1, crate: mage, count: 0}
  - {type: trace_count, kind: item, target: p1, count: 1}
`))
	require.NoError(t, err)

	first, err := Run(s, WithSeed(42))
	require.NoError(t, err)
	second, err := Run(s, WithSeed(42))
	require.NoError(t, err)

	assert.True(t, first.Pass, "errors: %v", first.Errors)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_DatabaseKeepsHistoryAcrossRuns(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "mage_reveal.yaml"))
	require.NoError(t, err)
	db := filepath.Join(t.TempDir(), "crates.db")

	first, err := Run(s, WithDatabase(db))
	require.NoError(t, err)
	second, err := Run(s, WithDatabase(db))
	require.NoError(t, err)

	require.NotEmpty(t, first.History)
	assert.Greater(t, len(second.History), len(first.History))

	attempts := 0
	for _, e := range second.History {
		if e.Kind == "open_attempt" {
			attempts++
		}
	}
	assert.Equal(t, 2, attempts)
	assert.Equal(t, first.History, second.History[:len(first.History)])
}

func TestRun_DefaultBusyPolicy(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: default_policy
description: scenario leaves the busy policy to the caller
crates: [{type: ice, pool: [{item: snowball, weight: 1}]}]
items: {snowball: Snowball}
stage_interval: 1
players: [{id: p1, name: Alice, keys: {ice: 2}}]
steps:
  - open: {player: p1, crate: ice}
    expect: proceed
  - open: {player: p1, crate: ice}
    expect: proceed
  - advance: 8
assertions:
  - {type: keys, player: p1, crate: ice, count: 0}
  - {type: trace_count, kind: finish, target: p1, count: 2}
`))
	require.NoError(t, err)

	rejected, err := Run(s)
	require.NoError(t, err)
	assert.False(t, rejected.Pass)

	queued, err := Run(s, WithBusyPolicy(sequencer.PolicyEnqueue))
	require.NoError(t, err)
	assert.True(t, queued.Pass, "errors: %v", queued.Errors)
}
