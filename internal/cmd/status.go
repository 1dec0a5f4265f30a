package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deeklead/conclave/internal/session"
	"github.com/deeklead/conclave/internal/style"
	"github.com/deeklead/conclave/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: GroupInfo,
	Short:   "Show session progress",
	Long: `Show the current session's chain, phase, completed roles, and
progress fraction. Read-only: calling status never mutates the session.

With --watch, opens a live view that refreshes until the session ends.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	statusSession string
	statusWatch   bool
	statusAll     bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusSession, "session", "s", "", "Session id (default: current)")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Live view, refreshed until the session ends")
	statusCmd.Flags().BoolVarP(&statusAll, "all", "a", false, "One-line summary of every stored session")
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	if statusAll {
		return printAll(e)
	}

	id, err := e.resolveSession(statusSession)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			fmt.Println("STATUS: idle")
			return nil
		}
		return err
	}

	if statusWatch {
		return tui.Watch(e.store, id)
	}

	rec, err := e.store.Load(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			fmt.Println("STATUS: idle")
			return nil
		}
		return err
	}

	printStatus(rec)
	return nil
}

func printAll(e *env) error {
	records, err := e.store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("STATUS: idle")
		return nil
	}
	for _, rec := range records {
		s := &rec.Session
		fmt.Printf("%s %s %d/%d active=%t %s\n",
			s.ID, s.Chain, s.PhaseIndex, len(s.Phases), s.Active, s.Task)
	}
	return nil
}

func printStatus(rec *session.Record) {
	s := &rec.Session

	if style.IsTTY() {
		title := cases.Title(language.English)
		fmt.Printf("%s %s\n", style.Render(style.Bold, title.String(s.Chain)+" chain:"), s.Task)
		fmt.Printf("%s\n\n", style.Render(style.Dim, s.ID))
	}

	completed := make([]string, 0, len(s.Completed))
	for role := range s.Completed {
		completed = append(completed, role)
	}
	sort.Strings(completed)

	fmt.Printf("CHAIN: %s\n", s.Chain)
	fmt.Printf("PHASE: %d/%d\n", s.PhaseIndex, len(s.Phases))
	fmt.Printf("PROGRESS: %.2f\n", s.Progress())
	fmt.Printf("ACTIVE: %t\n", s.Active)
	if len(completed) > 0 {
		fmt.Printf("COMPLETED: %s\n", strings.Join(completed, ","))
	}
	if outstanding := s.Outstanding(); len(outstanding) > 0 {
		fmt.Printf("OUTSTANDING: %s\n", strings.Join(outstanding, ","))
	}
	fmt.Printf("LOOPS: %d\n", rec.Guard.Loops)
}
