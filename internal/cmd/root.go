// Package cmd provides CLI commands for the cv tool.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/version"
)

// Command group ids.
const (
	GroupSession = "session"
	GroupInfo    = "info"
)

var rootCmd = &cobra.Command{
	Use:     "cv",
	Short:   "Conclave - deliberation chain orchestrator",
	Version: version.Version,
	Long: `Conclave (cv) coordinates multi-role deliberation chains performed
by an external agent.

It persists one session record per run, decides which role runs next,
synchronizes parallel role groups, evaluates conditional branches, and
force-terminates runaway sessions via a circuit breaker, loop budget, and
wall-clock timeout. All output is machine-parseable, one instruction per
invocation.`,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupSession, Title: "Session Commands:"},
		&cobra.Group{ID: GroupInfo, Title: "Info Commands:"},
	)
	rootCmd.AddCommand(
		startCmd,
		completeCmd,
		statusCmd,
		resetCmd,
		tickCmd,
		chainsCmd,
		versionCmd,
	)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
