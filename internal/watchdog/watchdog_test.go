package watchdog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/deeklead/conclave/internal/chain"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/engine"
	"github.com/deeklead/conclave/internal/events"
	"github.com/deeklead/conclave/internal/session"
)

func testDriver(t *testing.T, cfg *config.Config) (*Driver, *session.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := session.NewStore(dir, session.DefaultLockTimeout)
	if err != nil {
		t.Fatal(err)
	}
	return New(store, cfg, events.NewLog(dir, false)), store
}

func startSession(t *testing.T, store *session.Store, def *chain.Definition, now time.Time) *session.Record {
	t.Helper()
	rec := engine.NewRecord("run-1", "test task", def, now)
	engine.Start(rec, now)
	if err := store.Create(rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func linearDef() *chain.Definition {
	return &chain.Definition{
		ID: "linear",
		Phases: []chain.Phase{
			chain.Single("a"),
			chain.Single("b"),
		},
	}
}

func TestTickNoSession(t *testing.T) {
	d, _ := testDriver(t, config.Default())

	v, err := d.Tick("ghost", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !v.Exit || v.Reason != "no session" {
		t.Errorf("Tick() = %+v, want exit with no session", v)
	}
}

func TestTickInactiveSessionDestroyed(t *testing.T) {
	now := time.Now()
	d, store := testDriver(t, config.Default())
	rec := startSession(t, store, linearDef(), now)

	if _, err := store.Mutate(rec.Session.ID, func(r *session.Record) error {
		r.Session.Active = false
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	v, err := d.Tick(rec.Session.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Exit {
		t.Fatalf("Tick() = %+v, want exit", v)
	}
	if _, err := store.Load(rec.Session.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("inactive record not destroyed: %v", err)
	}
}

func TestTickAutoCompletesStalledRole(t *testing.T) {
	now := time.Now()
	d, store := testDriver(t, config.Default())
	rec := startSession(t, store, linearDef(), now)

	v, err := d.Tick(rec.Session.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if v.Exit {
		t.Fatalf("Tick() = %+v, want continue", v)
	}
	if !strings.Contains(v.Reason, "auto-completed") || !strings.Contains(v.Reason, "a") {
		t.Errorf("Reason = %q, want mention of auto-completed role a", v.Reason)
	}
	if v.Outcome.Kind != engine.KindRunSingle || v.Outcome.Roles[0] != "b" {
		t.Errorf("Outcome = %+v, want instruction for b", v.Outcome)
	}

	got, err := store.Load(rec.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	res, ok := got.Session.Completed["a"]
	if !ok {
		t.Fatal("role a not completed")
	}
	if !res.Sentinel || res.Raw != session.SentinelNote {
		t.Errorf("result = %+v, want sentinel payload", res)
	}
}

func TestTickStrictRolesReissuesInstruction(t *testing.T) {
	now := time.Now()
	cfg := config.Default()
	cfg.StrictRoles = true
	d, store := testDriver(t, cfg)
	rec := startSession(t, store, linearDef(), now)

	v, err := d.Tick(rec.Session.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if v.Exit {
		t.Fatalf("Tick() = %+v, want continue", v)
	}
	if v.Outcome.Kind != engine.KindRunSingle || v.Outcome.Roles[0] != "a" {
		t.Errorf("Outcome = %+v, want re-issued instruction for a", v.Outcome)
	}

	got, err := store.Load(rec.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Session.Completed) != 0 {
		t.Errorf("Completed = %v, strict mode must not auto-complete", got.Session.Completed)
	}
}

func TestTickRunsChainToTerminal(t *testing.T) {
	now := time.Now()
	d, store := testDriver(t, config.Default())
	rec := startSession(t, store, linearDef(), now)
	id := rec.Session.ID

	// First tick auto-completes a; second auto-completes b, which ends the
	// chain, destroys the record, and allows exit.
	if v, err := d.Tick(id, now); err != nil || v.Exit {
		t.Fatalf("first Tick() = %+v %v", v, err)
	}
	v, err := d.Tick(id, now)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Exit {
		t.Fatalf("second Tick() = %+v, want exit", v)
	}
	if _, err := store.Load(id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("terminal record not destroyed: %v", err)
	}
}

func TestTickBreakerStopsSession(t *testing.T) {
	now := time.Now()
	cfg := config.Default()
	d, store := testDriver(t, cfg)
	rec := startSession(t, store, linearDef(), now)
	id := rec.Session.ID

	if _, err := store.Mutate(id, func(r *session.Record) error {
		r.Guard.ConsecutiveErrors = cfg.MaxConsecutiveErrors
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	v, err := d.Tick(id, now)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Exit || v.Reason != "circuit-breaker" {
		t.Errorf("Tick() = %+v, want exit via circuit-breaker", v)
	}
	if _, err := store.Load(id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("tripped record not destroyed: %v", err)
	}
}

func TestTickCountsAgainstLoopBudget(t *testing.T) {
	now := time.Now()
	cfg := config.Default()
	cfg.MaxLoops = 3
	cfg.StrictRoles = true // isolate tick counting from auto-completion
	d, store := testDriver(t, cfg)
	rec := startSession(t, store, linearDef(), now)
	id := rec.Session.ID

	var v Verdict
	var err error
	for i := 0; i < cfg.MaxLoops+1; i++ {
		v, err = d.Tick(id, now)
		if err != nil {
			t.Fatal(err)
		}
		if v.Exit {
			break
		}
	}
	if !v.Exit || v.Reason != "max-loops" {
		t.Errorf("Tick() = %+v, want exit via max-loops", v)
	}
}
