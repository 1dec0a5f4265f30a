package breaker

import (
	"strings"
	"testing"
	"time"

	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/session"
)

func TestCheckClosed(t *testing.T) {
	cfg := config.Default()
	now := time.Now()

	g := &session.LoopGuard{
		ConsecutiveErrors: cfg.MaxConsecutiveErrors - 1,
		RoleRuns:          map[string]int{"a": cfg.MaxRoleRepeats - 1},
	}

	if status, reason := Check(g, cfg, now); status != Closed {
		t.Fatalf("Check() = %v %q, want closed", status, reason)
	}
}

func TestCheckConsecutiveErrors(t *testing.T) {
	cfg := config.Default()
	now := time.Now()

	g := &session.LoopGuard{ConsecutiveErrors: cfg.MaxConsecutiveErrors}
	status, reason := Check(g, cfg, now)
	if status != Open {
		t.Fatalf("Check() = %v, want open", status)
	}
	if !strings.Contains(reason, "consecutive errors") {
		t.Errorf("reason = %q", reason)
	}
}

func TestCheckRoleRepeats(t *testing.T) {
	cfg := config.Default()
	now := time.Now()

	g := &session.LoopGuard{RoleRuns: map[string]int{"executor": cfg.MaxRoleRepeats}}
	status, reason := Check(g, cfg, now)
	if status != Open {
		t.Fatalf("Check() = %v, want open", status)
	}
	if !strings.Contains(reason, "executor") {
		t.Errorf("reason = %q", reason)
	}
}

func TestCheckCooldown(t *testing.T) {
	cfg := config.Default() // one-minute cooldown
	now := time.Now()

	g := &session.LoopGuard{
		Tripped:    true,
		TripReason: "role \"executor\" repeated 5 times",
		TrippedAt:  now.Add(-30 * time.Second),
	}

	// Counters alone would pass, but the recorded trip holds the breaker
	// open until the cooldown expires.
	status, reason := Check(g, cfg, now)
	if status != Open {
		t.Fatalf("Check() within cooldown = %v, want open", status)
	}
	if reason != g.TripReason {
		t.Errorf("reason = %q, want the recorded trip reason", reason)
	}

	if status, _ := Check(g, cfg, now.Add(2*time.Minute)); status != Closed {
		t.Fatalf("Check() after cooldown = %v, want closed", status)
	}
}

func TestEnforceRecordsTrip(t *testing.T) {
	cfg := config.Default()
	now := time.Now()

	g := &session.LoopGuard{ConsecutiveErrors: cfg.MaxConsecutiveErrors}

	status, _ := Enforce(g, cfg, now)
	if status != Open {
		t.Fatalf("Enforce() = %v, want open", status)
	}
	if !g.Tripped || !g.TrippedAt.Equal(now) {
		t.Errorf("trip not recorded: %+v", g)
	}

	// A later enforcement with the counters cleared still reports the
	// original trip during the cooldown, with the original reason.
	g.ConsecutiveErrors = 0
	status, reason := Enforce(g, cfg, now.Add(10*time.Second))
	if status != Open {
		t.Fatalf("Enforce() after reset = %v, want open during cooldown", status)
	}
	if !strings.Contains(reason, "consecutive errors") {
		t.Errorf("reason = %q, want the original trip reason", reason)
	}
}
