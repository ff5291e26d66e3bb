package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/crate"
)

const minimalScenario = `
name: minimal
description: smallest valid scenario
items: {diamond: Diamond}
crates:
  - type: mage
    pool:
      - {item: diamond, weight: 2, count: 3}
players:
  - {id: p1, name: Alice, slots: 4, admin: true, keys: {mage: 1}}
entities:
  - {id: box-1, world: hub, x: 1.5, y: 70, z: -2}
steps:
  - open: {player: p1, crate: mage, entity: box-1}
    expect: proceed
  - advance: 20
assertions:
  - {type: keys, player: p1, crate: mage, count: 0}
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Crates, 1)
	assert.Equal(t, []crate.PoolEntry{{ItemID: "diamond", Count: 3, Weight: 2}}, s.Crates[0].Pool)
	assert.Equal(t, PlayerSpec{ID: "p1", Name: "Alice", Slots: 4, Admin: true, Keys: map[string]int{"mage": 1}}, s.Players[0])
	assert.Equal(t, EntitySpec{ID: "box-1", World: "hub", X: 1.5, Y: 70, Z: -2}, s.Entities[0])
	require.Len(t, s.Steps, 2)
	assert.Equal(t, &OpenStep{Player: "p1", Crate: "mage", Entity: "box-1"}, s.Steps[0].Open)
	assert.Equal(t, 20, s.Steps[1].Advance)
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nstepz: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nsteps: [{advance: 1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "name is required",
		},
		{
			name:    "two actions in one step",
			yaml:    "name: x\ndescription: y\nsteps: [{advance: 1, quit: p1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "exactly one action",
		},
		{
			name:    "quit and rejoin in one step",
			yaml:    "name: x\ndescription: y\nsteps: [{quit: p1, rejoin: p1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "exactly one action",
		},
		{
			name:    "expect on advance",
			yaml:    "name: x\ndescription: y\nsteps: [{advance: 1, expect: proceed}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "expect only applies",
		},
		{
			name:    "unknown crate type",
			yaml:    "name: x\ndescription: y\ncrates: [{type: gold}]\nsteps: [{advance: 1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "crates[0]",
		},
		{
			name:    "draw out of range",
			yaml:    "name: x\ndescription: y\ndraws: [1.0]\nsteps: [{advance: 1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "outside [0,1)",
		},
		{
			name:    "bad busy policy",
			yaml:    "name: x\ndescription: y\nbusy_policy: drop\nsteps: [{advance: 1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "invalid busy policy",
		},
		{
			name:    "duplicate player",
			yaml:    "name: x\ndescription: y\nplayers: [{id: a}, {id: a}]\nsteps: [{advance: 1}]\nassertions: [{type: trace_count, kind: stage}]\n",
			wantErr: "duplicate id",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nsteps: [{advance: 1}]\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "keys assertion without crate",
			yaml:    "name: x\ndescription: y\nsteps: [{advance: 1}]\nassertions: [{type: keys, player: p1}]\n",
			wantErr: "player and crate are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
