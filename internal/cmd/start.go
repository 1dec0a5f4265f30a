package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/chain"
	"github.com/deeklead/conclave/internal/engine"
	"github.com/deeklead/conclave/internal/events"
)

var startCmd = &cobra.Command{
	Use:     "start <task...>",
	GroupID: GroupSession,
	Short:   "Start a deliberation chain for a task",
	Long: `Start a deliberation chain for a task.

The chain is picked by --chain, by keyword trigger against the task text,
or falls back to the default chain. A fresh session record is persisted
and the first instruction printed.

Output tokens:
  SESSION: <id>
  CHAIN: <chain id>
  TOTAL_PHASES: <n>
  NEXT: <role>            (or PARALLEL: <a>,<b>)
  ACK: <role,...>         roles the agent must acknowledge as its plan

Examples:
  cv start "fix the flaky cache test"
  cv start --chain review "check the lock ordering in store.go"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

var (
	startChain   string
	startSession string
)

func init() {
	startCmd.Flags().StringVarP(&startChain, "chain", "c", "", "Chain id (default: keyword selection)")
	startCmd.Flags().StringVarP(&startSession, "session", "s", "", "Explicit session id")
}

func runStart(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	task := strings.Join(args, " ")

	var def *chain.Definition
	if startChain != "" {
		def, err = e.catalog.Resolve(startChain)
		if err != nil {
			return err
		}
	} else {
		def = e.catalog.Select(task)
	}

	id := startSession
	if id == "" {
		id = "run-" + uuid.NewString()[:8]
	}

	now := time.Now()
	rec := engine.NewRecord(id, task, def, now)
	outcome := engine.Start(rec, now)

	if err := e.store.Create(rec); err != nil {
		return err
	}
	if err := e.store.SetCurrent(id); err != nil {
		return err
	}

	_ = e.audit.Emit(events.TypeSessionStart, id, events.StartPayload(def.ID, task, len(def.Phases)))
	e.emitNotes(id, outcome.Notes)

	fmt.Printf("SESSION: %s\n", id)
	fmt.Printf("CHAIN: %s\n", def.ID)
	fmt.Printf("TOTAL_PHASES: %d\n", len(rec.Session.Phases))
	printOutcome(outcome)
	fmt.Printf("ACK: %s\n", strings.Join(def.Roles(), ","))

	return nil
}
