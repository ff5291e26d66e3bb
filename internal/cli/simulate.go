package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/crates/internal/harness"
	"github.com/roach88/crates/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string // journal file; empty uses CRATES_DB, then memory
	RealTime bool   // drive the run on the wall-clock tick loop
}

// SimulateResult is the JSON payload of the simulate command.
type SimulateResult struct {
	Name    string               `json:"name"`
	Pass    bool                 `json:"pass"`
	Trace   []harness.TraceEvent `json:"trace"`
	History []store.Entry        `json:"history"`
	Errors  []string             `json:"errors,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario against a simulated host and print every host call,
request outcome and reveal stage, followed by the journal history.

Scenario fields left empty take CRATES_STAGE_INTERVAL_TICKS,
CRATES_BUSY_POLICY and CRATES_SEED. With --realtime the reveal runs on a
wall-clock tick loop of CRATES_TICK_DURATION per tick.

Exit codes:
  0 - Scenario passed
  1 - An expectation or assertion failed
  2 - Command error (unreadable scenario, bad config, etc.)

Examples:
  crates simulate ./scenarios/mage_reveal.yaml
  crates simulate ./scenarios/busy_enqueue.yaml --realtime
  crates simulate ./scenarios/mage_reveal.yaml --db ./crates.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (default $CRATES_DB, else in-memory)")
	cmd.Flags().BoolVar(&opts.RealTime, "realtime", false, "advance ticks on the wall clock")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.settings()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid busy policy", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	runOpts := []harness.Option{
		harness.WithContext(ctx),
		harness.WithLogger(opts.logger(cmd.ErrOrStderr(), cfg)),
		harness.WithStageInterval(cfg.StageInterval),
		harness.WithBusyPolicy(policy),
		harness.WithSeed(cfg.Seed),
	}
	db := opts.Database
	if db == "" {
		db = cfg.DB
	}
	if db != "" {
		runOpts = append(runOpts, harness.WithDatabase(db))
	}
	if opts.RealTime {
		runOpts = append(runOpts, harness.WithRealTime(cfg.TickDuration))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario did not run", err)
	}

	out := SimulateResult{
		Name:    scenario.Name,
		Pass:    result.Pass,
		Trace:   result.Trace,
		History: result.History,
		Errors:  result.Errors,
	}
	if opts.Format == "json" {
		if err := outputSimulateJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		outputSimulateText(cmd.OutOrStdout(), out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command was run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
}

func outputSimulateJSON(w io.Writer, out SimulateResult) error {
	response := CLIResponse{Status: "ok", Data: out}
	if !out.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIO_FAILED",
			Message: fmt.Sprintf("%d check(s) failed", len(out.Errors)),
			Details: out.Errors,
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func outputSimulateText(w io.Writer, out SimulateResult) {
	fmt.Fprintf(w, "# scenario: %s\n", out.Name)
	for _, e := range out.Trace {
		line := e.String()
		switch {
		case e.Kind == "outcome" && e.Detail == "proceed":
			passColor.Fprintln(w, line)
		case e.Kind == "outcome":
			noteColor.Fprintln(w, line)
		case e.Kind == "stage" || e.Kind == "finish":
			dimColor.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}

	if len(out.History) > 0 {
		fmt.Fprintln(w, "# history")
		writeHistory(w, out.History)
	}

	fmt.Fprintln(w)
	if out.Pass {
		fmt.Fprintf(w, "%s %s\n", passMark(true), out.Name)
		return
	}
	fmt.Fprintf(w, "%s %s\n", passMark(false), out.Name)
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
