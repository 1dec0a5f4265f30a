// Package session holds the persisted state of one deliberation run and the
// file-backed store that owns it.
//
// Each session is a single JSON record on disk containing the Session and
// its LoopGuard. The record is the unit of atomicity: all multi-field
// updates go through Store.Mutate, which holds an advisory file lock across
// the full read-modify-write cycle so the agent and the watchdog can never
// interleave writes on the same session.
package session

import (
	"time"

	"github.com/deeklead/conclave/internal/chain"
)

// Session is the mutable unit of truth for one run of a chain.
type Session struct {
	ID    string `json:"id"`
	Task  string `json:"task"`
	Chain string `json:"chain"`

	// Phases is a resolved snapshot of the chain's phase list taken at
	// start. Catalog edits never affect in-flight sessions.
	Phases []chain.Phase `json:"phases"`

	// PhaseIndex is the index of the phase currently in progress.
	PhaseIndex int `json:"phase_index"`

	// Completed maps role name to its reported result. Role names are
	// unique across a chain, so one map covers all phases; a phase is
	// satisfied when every one of its roles appears here.
	Completed map[string]Result `json:"completed,omitempty"`

	// Conditions accumulates open findings surfaced by review roles.
	// Branch phases only run when this list is non-empty.
	Conditions []string `json:"conditions,omitempty"`

	Active bool `json:"active"`

	// Exit records an explicit termination request from a role result.
	ExitRequested bool   `json:"exit_requested,omitempty"`
	ExitApproved  bool   `json:"exit_approved,omitempty"`
	ExitReason    string `json:"exit_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentPhase returns the phase in progress, or ok=false when the index is
// past the end of the chain.
func (s *Session) CurrentPhase() (chain.Phase, bool) {
	if s.PhaseIndex < 0 || s.PhaseIndex >= len(s.Phases) {
		return chain.Phase{}, false
	}
	return s.Phases[s.PhaseIndex], true
}

// Outstanding returns the roles of the current phase not yet completed, in
// phase order.
func (s *Session) Outstanding() []string {
	phase, ok := s.CurrentPhase()
	if !ok {
		return nil
	}
	var out []string
	for _, role := range phase.Roles {
		if _, done := s.Completed[role]; !done {
			out = append(out, role)
		}
	}
	return out
}

// PhaseSatisfied reports whether every role of phase i has completed.
func (s *Session) PhaseSatisfied(i int) bool {
	if i < 0 || i >= len(s.Phases) {
		return false
	}
	for _, role := range s.Phases[i].Roles {
		if _, done := s.Completed[role]; !done {
			return false
		}
	}
	return true
}

// HasRole reports whether role belongs to the current phase.
func (s *Session) HasRole(role string) bool {
	phase, ok := s.CurrentPhase()
	if !ok {
		return false
	}
	for _, r := range phase.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Progress returns the fraction of chain roles completed, in [0, 1].
func (s *Session) Progress() float64 {
	total := 0
	for _, p := range s.Phases {
		total += len(p.Roles)
	}
	if total == 0 {
		return 0
	}
	return float64(len(s.Completed)) / float64(total)
}

// RewindTo resets the session to re-run phase k: completions for phase k
// and everything after it are cleared and the phase index rewound.
func (s *Session) RewindTo(k int) {
	for i := k; i < len(s.Phases); i++ {
		for _, role := range s.Phases[i].Roles {
			delete(s.Completed, role)
		}
	}
	s.PhaseIndex = k
}

// PhaseOfRole returns the index of the phase containing role, or -1.
func (s *Session) PhaseOfRole(role string) int {
	for i, p := range s.Phases {
		for _, r := range p.Roles {
			if r == role {
				return i
			}
		}
	}
	return -1
}

// LoopGuard carries per-session counters consulted by the circuit breaker
// and completion detector. Counters only grow for the lifetime of the
// session; they reset only when the session record is destroyed.
type LoopGuard struct {
	// Loops counts advancement attempts, including watchdog ticks that
	// did not advance the underlying session.
	Loops int `json:"loops"`

	// RoleRuns counts how many times each role has been dispatched.
	RoleRuns map[string]int `json:"role_runs,omitempty"`

	// ConsecutiveErrors counts back-to-back bookkeeping failures.
	ConsecutiveErrors int `json:"consecutive_errors,omitempty"`

	// FeedbackLoops counts rework rewinds requested by downstream roles.
	FeedbackLoops int `json:"feedback_loops,omitempty"`

	// A trip is a durable fact: once recorded, every later process
	// invocation observes the same verdict.
	Tripped    bool      `json:"tripped,omitempty"`
	TripReason string    `json:"trip_reason,omitempty"`
	TrippedAt  time.Time `json:"tripped_at,omitempty"`

	LastActivity time.Time `json:"last_activity"`
	StartedAt    time.Time `json:"started_at"`
}

// RecordRun notes a dispatch of role and bumps the loop counter.
func (g *LoopGuard) RecordRun(role string, now time.Time) {
	if g.RoleRuns == nil {
		g.RoleRuns = make(map[string]int)
	}
	g.RoleRuns[role]++
	g.Loops++
	g.LastActivity = now
}

// RecordTick notes a watchdog pass that may not have advanced anything.
func (g *LoopGuard) RecordTick(now time.Time) {
	g.Loops++
	g.LastActivity = now
}

// RecordError bumps the consecutive error counter.
func (g *LoopGuard) RecordError(now time.Time) {
	g.ConsecutiveErrors++
	g.LastActivity = now
}

// RecordSuccess resets the consecutive error counter.
func (g *LoopGuard) RecordSuccess(now time.Time) {
	g.ConsecutiveErrors = 0
	g.LastActivity = now
}

// Trip records a durable circuit breaker trip. The first reason wins.
func (g *LoopGuard) Trip(reason string, now time.Time) {
	if g.Tripped {
		return
	}
	g.Tripped = true
	g.TripReason = reason
	g.TrippedAt = now
}

// MaxRoleRuns returns the highest per-role dispatch count and its role.
func (g *LoopGuard) MaxRoleRuns() (string, int) {
	var role string
	max := 0
	for r, n := range g.RoleRuns {
		if n > max {
			role, max = r, n
		}
	}
	return role, max
}

// Record is the full persisted document for one session id.
type Record struct {
	Session Session   `json:"session"`
	Guard   LoopGuard `json:"guard"`
}
