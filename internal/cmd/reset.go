package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/events"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: GroupSession,
	Short:   "Destroy session state",
	Long: `Destroy the session's persisted record and loop-guard counters.

Idempotent: resetting a session that does not exist succeeds, and a
subsequent start with the same id succeeds.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var resetSession string

func init() {
	resetCmd.Flags().StringVarP(&resetSession, "session", "s", "", "Session id (default: current)")
}

func runReset(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	id := resetSession
	if id == "" {
		// Nothing current means nothing to destroy; reset stays
		// idempotent.
		if id, _ = e.store.Current(); id == "" {
			fmt.Println("RESET: OK")
			return nil
		}
	}

	if err := e.store.Destroy(id); err != nil {
		return err
	}
	_ = e.audit.Emit(events.TypeSessionDestroy, id, nil)

	fmt.Println("RESET: OK")
	return nil
}
