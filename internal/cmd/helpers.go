package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deeklead/conclave/internal/chain"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/engine"
	"github.com/deeklead/conclave/internal/events"
	"github.com/deeklead/conclave/internal/session"
)

// ErrNoSession indicates no session id was given and none is current.
var ErrNoSession = errors.New("no session: pass --session or start a chain first")

// env bundles the runtime pieces every command needs.
type env struct {
	cfg     *config.Config
	store   *session.Store
	catalog *chain.Catalog
	audit   *events.Log
}

// newEnv loads config, opens the store, and builds the chain catalog.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(cfg.StateDir, cfg.LockWait())
	if err != nil {
		return nil, err
	}

	catalog := chain.NewCatalog()
	if err := catalog.LoadDir(config.ChainsDir()); err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		audit:   events.NewLog(cfg.StateDir, cfg.Verbose),
	}, nil
}

// resolveSession returns the session id to operate on: an explicit flag
// always wins over the current-session pointer.
func (e *env) resolveSession(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cur, err := e.store.Current()
	if err != nil {
		return "", err
	}
	if cur == "" {
		return "", ErrNoSession
	}
	return cur, nil
}

// mutateRetry wraps Store.Mutate with a small bounded retry on lock
// timeouts, which are transient when the agent and watchdog race.
func (e *env) mutateRetry(id string, fn func(*session.Record) error) (*session.Record, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		rec, err := e.store.Mutate(id, fn)
		if err == nil || !errors.Is(err, session.ErrLockTimeout) {
			return rec, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	return nil, lastErr
}

// recordError bumps the session's consecutive-error counter after a failed
// bookkeeping operation. Best-effort: the original failure is what the
// caller surfaces.
func (e *env) recordError(id string) {
	_, _ = e.store.Mutate(id, func(rec *session.Record) error {
		rec.Guard.RecordError(time.Now())
		return nil
	})
}

// emitNotes forwards engine audit notes to the audit log.
func (e *env) emitNotes(id string, notes []engine.Note) {
	for _, n := range notes {
		_ = e.audit.Emit(n.Type, id, n.Payload)
	}
}

// printOutcome renders an engine outcome as machine tokens, one
// instruction per invocation.
func printOutcome(out engine.Outcome) {
	if out.Duplicate {
		fmt.Println("DUPLICATE: role already completed for this phase; result not applied")
	}
	switch out.Kind {
	case engine.KindRunSingle:
		fmt.Printf("NEXT: %s\n", out.Roles[0])
	case engine.KindRunParallel:
		fmt.Printf("PARALLEL: %s\n", strings.Join(out.Roles, ","))
	case engine.KindRunBranch:
		fmt.Printf("BRANCH: %s\n", out.Roles[0])
	case engine.KindPending:
		fmt.Printf("PENDING: %s\n", strings.Join(out.Roles, ","))
	case engine.KindTerminal:
		fmt.Printf("TERMINAL: %s\n", out.Verdict)
		if out.Reason != "" {
			fmt.Printf("REASON: %s\n", out.Reason)
		}
	}
}
