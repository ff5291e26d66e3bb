package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crates/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Player   string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the journal of key grants and crate opens",
		Long: `Print key grants, open attempts and reveal results from a journal
database in the order they happened.

Examples:
  crates history --db ./crates.db
  crates history --db ./crates.db --player p1 --limit 20
  crates history --db ./crates.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (default $CRATES_DB)")
	cmd.Flags().StringVar(&opts.Player, "player", "", "only entries of this player")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N entries (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must not be negative", opts.Limit))
	}

	db := opts.Database
	if db == "" {
		cfg, err := opts.settings()
		if err != nil {
			return err
		}
		db = cfg.DB
	}
	if db == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set CRATES_DB")
	}
	// Opening a missing path would create an empty journal.
	if _, err := os.Stat(db); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadHistory(commandContext(cmd), opts.Player, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: entries})
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No history.")
		return nil
	}
	writeHistory(w, entries)
	return nil
}

// writeHistory prints one line per entry: seq, tick, kind, player, crate
// and detail.
func writeHistory(w io.Writer, entries []store.Entry) {
	for _, e := range entries {
		kind := e.Kind
		switch e.Kind {
		case "key_grant":
			kind = passColor.Sprint(e.Kind)
		case "open_attempt":
			kind = noteColor.Sprint(e.Kind)
		}
		fmt.Fprintf(w, "%d %d %s %s %s %s\n", e.Seq, e.Tick, kind, e.Player, e.Crate, e.Detail)
	}
}
