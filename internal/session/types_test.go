package session

import (
	"testing"
	"time"

	"github.com/deeklead/conclave/internal/chain"
)

func testSession() *Session {
	return &Session{
		ID:    "run-test",
		Chain: "t",
		Phases: []chain.Phase{
			chain.Single("a"),
			chain.Parallel("b", "c"),
			chain.Single("d"),
		},
		Completed: make(map[string]Result),
		Active:    true,
	}
}

func TestOutstanding(t *testing.T) {
	s := testSession()
	s.PhaseIndex = 1

	got := s.Outstanding()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("Outstanding() = %v, want [b c]", got)
	}

	s.Completed["b"] = Result{}
	got = s.Outstanding()
	if len(got) != 1 || got[0] != "c" {
		t.Fatalf("Outstanding() after b = %v, want [c]", got)
	}

	s.PhaseIndex = len(s.Phases)
	if got := s.Outstanding(); got != nil {
		t.Errorf("Outstanding() past end = %v, want nil", got)
	}
}

func TestPhaseSatisfied(t *testing.T) {
	s := testSession()
	s.Completed["b"] = Result{}

	if s.PhaseSatisfied(1) {
		t.Error("phase 1 satisfied with c outstanding")
	}
	s.Completed["c"] = Result{}
	if !s.PhaseSatisfied(1) {
		t.Error("phase 1 not satisfied with both roles completed")
	}
	if s.PhaseSatisfied(5) {
		t.Error("out-of-range phase reported satisfied")
	}
}

func TestProgress(t *testing.T) {
	s := testSession()
	if got := s.Progress(); got != 0 {
		t.Errorf("Progress() = %v, want 0", got)
	}
	s.Completed["a"] = Result{}
	s.Completed["b"] = Result{}
	if got := s.Progress(); got != 0.5 {
		t.Errorf("Progress() = %v, want 0.5", got)
	}
}

func TestRewindTo(t *testing.T) {
	s := testSession()
	s.Completed["a"] = Result{}
	s.Completed["b"] = Result{}
	s.Completed["c"] = Result{}
	s.PhaseIndex = 2

	s.RewindTo(1)

	if s.PhaseIndex != 1 {
		t.Errorf("PhaseIndex = %d, want 1", s.PhaseIndex)
	}
	if _, ok := s.Completed["a"]; !ok {
		t.Error("completion before rewind point was cleared")
	}
	for _, role := range []string{"b", "c"} {
		if _, ok := s.Completed[role]; ok {
			t.Errorf("completion for %q survived rewind", role)
		}
	}
}

func TestLoopGuardCounters(t *testing.T) {
	now := time.Now()
	var g LoopGuard

	g.RecordRun("a", now)
	g.RecordRun("a", now)
	g.RecordRun("b", now)
	g.RecordTick(now)

	if g.Loops != 4 {
		t.Errorf("Loops = %d, want 4", g.Loops)
	}
	if g.RoleRuns["a"] != 2 || g.RoleRuns["b"] != 1 {
		t.Errorf("RoleRuns = %v", g.RoleRuns)
	}

	role, n := g.MaxRoleRuns()
	if role != "a" || n != 2 {
		t.Errorf("MaxRoleRuns() = %q %d, want a 2", role, n)
	}

	g.RecordError(now)
	g.RecordError(now)
	if g.ConsecutiveErrors != 2 {
		t.Errorf("ConsecutiveErrors = %d, want 2", g.ConsecutiveErrors)
	}
	g.RecordSuccess(now)
	if g.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors after success = %d, want 0", g.ConsecutiveErrors)
	}
}

func TestLoopGuardTripFirstReasonWins(t *testing.T) {
	now := time.Now()
	var g LoopGuard

	g.Trip("too many errors", now)
	g.Trip("role loop", now.Add(time.Minute))

	if !g.Tripped {
		t.Fatal("Tripped = false")
	}
	if g.TripReason != "too many errors" {
		t.Errorf("TripReason = %q, want the first reason", g.TripReason)
	}
	if !g.TrippedAt.Equal(now) {
		t.Errorf("TrippedAt = %v, want the first trip time", g.TrippedAt)
	}
}
