// Command crates simulates keyed reward crates and queries their journal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/crates/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
