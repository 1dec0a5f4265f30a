// Package breaker guards deliberation sessions against runaway loops.
//
// The circuit breaker is consulted before every advancement decision, on
// both the explicit-completion path and the watchdog path. A trip is a
// durable fact recorded in the session's LoopGuard, so independent process
// invocations observe the same verdict.
package breaker

import (
	"fmt"
	"time"

	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/session"
)

// Status is the breaker state for one session.
type Status string

const (
	// Closed means advancement may proceed.
	Closed Status = "closed"
	// Open means advancement must stop and the session be terminated.
	Open Status = "open"
)

// Check evaluates the guard against the configured thresholds. When the
// breaker is open the returned reason names the tripping condition.
func Check(g *session.LoopGuard, cfg *config.Config, now time.Time) (Status, string) {
	if g.ConsecutiveErrors >= cfg.MaxConsecutiveErrors {
		return Open, fmt.Sprintf("%d consecutive errors", g.ConsecutiveErrors)
	}

	if role, runs := g.MaxRoleRuns(); runs >= cfg.MaxRoleRepeats {
		return Open, fmt.Sprintf("role %q repeated %d times", role, runs)
	}

	// A recorded trip holds the breaker open for the cooldown window even
	// if the counters alone would no longer trip it.
	if g.Tripped && now.Sub(g.TrippedAt) < cfg.CooldownWindow() {
		return Open, g.TripReason
	}

	return Closed, ""
}

// Enforce runs Check and records a first trip durably in the guard.
func Enforce(g *session.LoopGuard, cfg *config.Config, now time.Time) (Status, string) {
	status, reason := Check(g, cfg, now)
	if status == Open {
		g.Trip(reason, now)
		return Open, g.TripReason
	}
	return Closed, ""
}
