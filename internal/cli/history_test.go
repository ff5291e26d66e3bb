package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/store"
)

// journalOf simulates a shipped scenario into a fresh database file.
func journalOf(t *testing.T, scenario string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "crates.db")
	out, err := runSimulateCommand(t, "text", filepath.Join(shippedScenarios, scenario+".yaml"), "--db", db)
	require.NoError(t, err, out)
	return db
}

func runHistoryCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryCommandText(t *testing.T) {
	db := journalOf(t, "mage_reveal")

	out, err := runHistoryCommand(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "1 0 open_attempt p1 mage scheduled diamond\n6 80 queue_result p1 mage drained after 4 stages\n", out)
}

func TestHistoryCommandFilters(t *testing.T) {
	db := journalOf(t, "magma_give_all")

	all, err := runHistoryCommand(t, "json", "--db", db)
	require.NoError(t, err)
	var everything struct {
		Data []store.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(all), &everything))
	require.NotEmpty(t, everything.Data)

	out, err := runHistoryCommand(t, "json", "--db", db, "--limit", "1")
	require.NoError(t, err)
	var last struct {
		Data []store.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &last))
	require.Len(t, last.Data, 1)
	assert.Equal(t, everything.Data[len(everything.Data)-1], last.Data[0])

	out, err = runHistoryCommand(t, "text", "--db", db, "--player", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "No history.\n", out)
}

func TestHistoryCommandErrors(t *testing.T) {
	t.Setenv("CRATES_DB", "")

	_, err := runHistoryCommand(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no database")

	_, err = runHistoryCommand(t, "text", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")

	_, err = runHistoryCommand(t, "text", "--db", "x.db", "--limit=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid limit")
}

func TestHistoryCommandReadsConfiguredDatabase(t *testing.T) {
	db := journalOf(t, "mage_reveal")
	t.Setenv("CRATES_DB", db)

	out, err := runHistoryCommand(t, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "open_attempt p1 mage scheduled diamond")
}
