// Package cli implements the eosim command-line launcher using Cobra. Each
// subcommand starts exactly one network element for one process, per
// spec.md §6: manager, agent, environment, monitor.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eosim/eosim/internal/errs"
)

var rootCmd = &cobra.Command{
	Use:   "eosim",
	Short: "eosim — distributed multi-agent Earth-observation simulation runtime",
	Long: `eosim runs one network element (manager, agent, environment, or monitor)
per process, coordinating a consensus-based multi-agent task-allocation
simulation over a shared NATS server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an element's terminal error to the exit code taxonomy of
// SPEC_FULL.md §6: 0 on clean SimEnd (the caller never reaches here in that
// case), 1 on configuration error, 2 on timeout, 3 on any other
// unrecoverable error.
func exitCodeFor(err error) int {
	var e *errs.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case errs.KindConfiguration:
			return 1
		case errs.KindTimeout:
			return 2
		default:
			return 3
		}
	}
	return 3
}
