package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/session"
	"github.com/deeklead/conclave/internal/watchdog"
)

var tickCmd = &cobra.Command{
	Use:     "tick",
	GroupID: GroupSession,
	Short:   "Watchdog turn-boundary check",
	Long: `Run one watchdog pass for the session.

Wire this into the host's turn-boundary hook so it fires after every agent
turn. The watchdog re-reads the persisted record, applies the circuit
breaker and completion detector, auto-completes stalled roles with a
sentinel payload (unless strict_roles is configured), and either re-issues
the next instruction or allows the process to stop.

Output is either:
  CONTINUE: <instruction tokens>
  REASON: <why>
or:
  EXIT: <reason>`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

var tickSession string

func init() {
	tickCmd.Flags().StringVarP(&tickSession, "session", "s", "", "Session id (default: current)")
}

func runTick(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	id, err := e.resolveSession(tickSession)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			fmt.Println("EXIT: no session")
			return nil
		}
		return err
	}

	driver := watchdog.New(e.store, e.cfg, e.audit)

	verdict, err := driver.Tick(id, time.Now())
	if err != nil {
		if errors.Is(err, session.ErrLockTimeout) {
			e.recordError(id)
		}
		return err
	}

	if verdict.Exit {
		fmt.Printf("EXIT: %s\n", verdict.Reason)
		return nil
	}

	fmt.Println("CONTINUE:")
	printOutcome(verdict.Outcome)
	fmt.Printf("REASON: %s\n", verdict.Reason)
	return nil
}
