package harness

import (
	"fmt"

	"github.com/roach88/crates/internal/store"
)

// TraceEvent is one line of the scenario trace: a host call, a request,
// its outcome, or a stage transition.
type TraceEvent struct {
	Tick   uint64 `json:"tick"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// String renders the event as one trace line, "-" standing in for an
// empty target.
func (e TraceEvent) String() string {
	target := e.Target
	if target == "" {
		target = "-"
	}
	line := fmt.Sprintf("%d %s %s", e.Tick, e.Kind, target)
	if e.Detail != "" {
		line += " " + e.Detail
	}
	return line
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace is every recorded event in order.
	Trace []TraceEvent `json:"trace"`

	// History is the journal's merged history after the run.
	History []store.Entry `json:"history"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		History: []store.Entry{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
