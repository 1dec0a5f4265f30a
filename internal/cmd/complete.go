package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/engine"
	"github.com/deeklead/conclave/internal/events"
	"github.com/deeklead/conclave/internal/session"
)

var completeCmd = &cobra.Command{
	Use:     "complete <role>",
	GroupID: GroupSession,
	Short:   "Report a role's result and get the next instruction",
	Long: `Report that a role finished and get the next instruction.

The result text may embed structured signals, one marker per line:

  VERDICT: approve|reject
  EXIT: <reason>
  CONDITION: <finding>     (repeatable; feeds later branch phases)
  REWORK: <phase or role>  (rewind and re-run from an earlier phase)

Output is one of:
  NEXT: <role>             single phase instruction
  PARALLEL: <a>,<b>        parallel group instruction
  BRANCH: <role>           conditional branch instruction
  PENDING: <a>,<b>         parallel group with outstanding members
  TERMINAL: <verdict>      chain finished; session destroyed

Examples:
  cv complete critic -r "two risks found
CONDITION: cache key collision under rename"
  cv complete arbiter -r "VERDICT: approve"`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var (
	completeResult  string
	completeSession string
)

func init() {
	completeCmd.Flags().StringVarP(&completeResult, "result", "r", "", "Role result text")
	completeCmd.Flags().StringVarP(&completeSession, "session", "s", "", "Session id (default: current)")
}

func runComplete(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	id, err := e.resolveSession(completeSession)
	if err != nil {
		return err
	}

	role := args[0]
	now := time.Now()
	res := session.ParseResult(completeResult, now)

	var outcome engine.Outcome
	_, err = e.mutateRetry(id, func(rec *session.Record) error {
		var err error
		outcome, err = engine.Advance(rec, role, res, e.cfg, now)
		return err
	})
	if err != nil {
		// A failed bookkeeping operation leaves the record untouched
		// but counts toward the consecutive-error threshold.
		if errors.Is(err, engine.ErrUnknownRole) || errors.Is(err, session.ErrLockTimeout) {
			e.recordError(id)
		}
		return err
	}

	e.emitNotes(id, outcome.Notes)

	if outcome.Kind == engine.KindTerminal {
		if err := e.store.Destroy(id); err != nil {
			return err
		}
		_ = e.audit.Emit(events.TypeSessionDestroy, id, nil)
	}

	printOutcome(outcome)
	return nil
}
