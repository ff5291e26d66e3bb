package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a result as the plain-text golden snapshot: one line
// per trace event ("<tick> <kind> <target> <detail>", "-" for no target),
// then the journal history ("<seq> <tick> <kind> <player> <crate> <detail>").
func FormatTrace(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", name)
	fmt.Fprintf(&b, "# trace\n")
	for _, e := range result.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "# history\n")
	for _, h := range result.History {
		fmt.Fprintf(&b, "%d %d %s %s %s %s\n", h.Seq, h.Tick, h.Kind, h.Player, h.Crate, h.Detail)
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario, fails the test on any expectation or
// assertion failure, and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, FormatTrace(scenarioName, result))
}
