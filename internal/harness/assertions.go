package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event.String())
		}
	}

	return buf.String()
}

// stateReader exposes final state to assertions.
type stateReader interface {
	keys(player, crateType string) (int, error)
	inventory(player string) ([]string, error)
}

// EvaluateAssertions runs all assertions and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, state stateReader) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, state); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, state stateReader) error {
	switch a.Type {
	case AssertKeys:
		return assertKeys(a, state)
	case AssertInventory:
		return assertInventory(a, state)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertHistoryCount:
		return assertHistoryCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertKeys(a Assertion, state stateReader) error {
	got, err := state.keys(a.Player, a.Crate)
	if err != nil {
		return fmt.Errorf("read keys: %w", err)
	}
	if got != a.Count {
		return &AssertionError{
			Type:     AssertKeys,
			Expected: fmt.Sprintf("%s holds %d %s keys", a.Player, a.Count, a.Crate),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertInventory(a Assertion, state stateReader) error {
	got, err := state.inventory(a.Player)
	if err != nil {
		return err
	}
	want := a.Items
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertInventory,
			Expected: fmt.Sprintf("%s holds %v", a.Player, want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// matches reports whether event has the assertion's kind, target (when
// set) and a detail containing the assertion's detail (when set).
func matches(event TraceEvent, a Assertion) bool {
	if event.Kind != a.Kind {
		return false
	}
	if a.Target != "" && event.Target != a.Target {
		return false
	}
	return a.Detail == "" || strings.Contains(event.Detail, a.Detail)
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if matches(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s event for %q containing %q", a.Kind, a.Target, a.Detail),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events for %q", a.Count, a.Kind, a.Target),
			Actual:   fmt.Sprintf("%d", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that kinds appear in order. Kinds need not be
// adjacent; each one is searched after the previous match.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for _, kind := range a.Kinds {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Kind == kind {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order %v", a.Kinds),
				Actual:   fmt.Sprintf("%s missing after earlier kinds", kind),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertHistoryCount(result *Result, a Assertion) error {
	count := 0
	for _, e := range result.History {
		if e.Kind != a.Kind {
			continue
		}
		if a.Player != "" && e.Player != a.Player {
			continue
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d %s entries for %q", a.Count, a.Kind, a.Player),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}
