// Package engine implements the deliberation state machine.
//
// The engine is pure decision logic over a session record: given the
// current record and an event (start, or a role completion), it computes
// the mutated record and the instruction to hand back to the external
// agent. Persistence and locking belong to the session store; the engine
// never touches disk.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/deeklead/conclave/internal/breaker"
	"github.com/deeklead/conclave/internal/chain"
	"github.com/deeklead/conclave/internal/completion"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/events"
	"github.com/deeklead/conclave/internal/session"
)

var (
	// ErrUnknownRole indicates the completed role is not part of the
	// session's current phase.
	ErrUnknownRole = errors.New("unknown role")

	// ErrInactive indicates the session has already terminated.
	ErrInactive = errors.New("session not active")
)

// NewRecord builds a fresh session record from a chain definition. The
// phase list is copied: catalog edits never reach an in-flight session.
func NewRecord(id, task string, def *chain.Definition, now time.Time) *session.Record {
	phases := make([]chain.Phase, len(def.Phases))
	copy(phases, def.Phases)

	return &session.Record{
		Session: session.Session{
			ID:        id,
			Task:      task,
			Chain:     def.ID,
			Phases:    phases,
			Completed: make(map[string]session.Result),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Guard: session.LoopGuard{
			StartedAt:    now,
			LastActivity: now,
		},
	}
}

// Start issues the instruction for phase zero of a freshly created record.
func Start(rec *session.Record, now time.Time) Outcome {
	return issue(rec, now, nil)
}

// Complete applies a role completion to the record and returns the next
// instruction. Completing a role already recorded for the current phase is
// an idempotent no-op: the result is not applied a second time, and the
// returned outcome re-states the current instruction with Duplicate set.
// The repeat attempt still counts against the role's loop budget.
func Complete(rec *session.Record, role string, res session.Result, now time.Time) (Outcome, error) {
	s := &rec.Session

	if !s.Active {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInactive, s.ID)
	}
	if !s.HasRole(role) {
		return Outcome{}, fmt.Errorf("%w: %q is not part of the current phase", ErrUnknownRole, role)
	}
	if _, done := s.Completed[role]; done {
		rec.Guard.RecordRun(role, now)
		out := InstructionFor(s)
		out.Duplicate = true
		return out, nil
	}

	phase, _ := s.CurrentPhase()
	// An empty Completed map is omitted on marshal, so a persisted record
	// round-trips back with it nil.
	if s.Completed == nil {
		s.Completed = make(map[string]session.Result)
	}
	s.Completed[role] = res
	rec.Guard.RecordSuccess(now)

	notes := []Note{{
		Type:    events.TypeRoleComplete,
		Payload: events.RolePayload(role, res.Sentinel, res.Verdict),
	}}

	// Collected conditions feed later branch phases. A branch role
	// consumes them: after it completes, only its own new findings remain.
	if phase.Kind == chain.KindBranch {
		s.Conditions = append([]string(nil), res.Conditions...)
	} else if len(res.Conditions) > 0 {
		s.Conditions = append(s.Conditions, res.Conditions...)
	}

	if res.Exit {
		return exitOutcome(rec, role, res, notes), nil
	}

	if res.Rework != "" {
		if k := res.ReworkPhase(s); k >= 0 && k <= s.PhaseIndex {
			s.RewindTo(k)
			rec.Guard.FeedbackLoops++
			notes = append(notes, Note{
				Type:    events.TypeRework,
				Payload: events.ReworkPayload(role, k),
			})
			return issue(rec, now, notes), nil
		}
		// An unresolvable rework target is ignored, not fatal: result
		// payloads are parsed defensively.
	}

	if !s.PhaseSatisfied(s.PhaseIndex) {
		return Outcome{Kind: KindPending, Roles: s.Outstanding(), Notes: notes}, nil
	}

	return advance(rec, res, now, notes), nil
}

// Advance wraps Complete with the safety nets: the circuit breaker is
// consulted before the state machine runs, and the completion detector
// afterwards, so loop and time budgets terminate the session on the spot.
func Advance(rec *session.Record, role string, res session.Result, cfg *config.Config, now time.Time) (Outcome, error) {
	if status, reason := breaker.Enforce(&rec.Guard, cfg, now); status == breaker.Open {
		rec.Session.Active = false
		return Outcome{
			Kind:    KindTerminal,
			Verdict: VerdictForced,
			Reason:  completion.ReasonBreaker,
			Notes:   []Note{{Type: events.TypeBreakerTrip, Payload: events.TripPayload(reason)}},
		}, nil
	}

	out, err := Complete(rec, role, res, now)
	if err != nil || out.Kind == KindTerminal {
		return out, err
	}

	if v := completion.Detect(rec, cfg, now); v.Done() {
		rec.Session.Active = false
		return Outcome{
			Kind:    KindTerminal,
			Verdict: verdictFor(v),
			Reason:  v.Reason,
			Notes: append(out.Notes, Note{
				Type:    events.TypeTerminal,
				Payload: events.TerminalPayload(string(verdictFor(v)), v.Reason),
			}),
		}, nil
	}

	return out, nil
}

// exitOutcome terminates the session on an explicit exit signal.
func exitOutcome(rec *session.Record, role string, res session.Result, notes []Note) Outcome {
	s := &rec.Session

	reason := res.ExitReason
	if reason == "" {
		reason = fmt.Sprintf("exit requested by %s", role)
	}

	verdict := VerdictApproved
	if res.Verdict == session.VerdictReject {
		verdict = VerdictRejected
	}

	s.ExitRequested = true
	s.ExitApproved = verdict == VerdictApproved
	s.ExitReason = reason
	s.Active = false

	return Outcome{
		Kind:    KindTerminal,
		Verdict: verdict,
		Reason:  reason,
		Notes: append(notes, Note{
			Type:    events.TypeTerminal,
			Payload: events.TerminalPayload(string(verdict), reason),
		}),
	}
}

// advance moves past a satisfied phase. Branch phases with no collected
// conditions are skipped synchronously, at the moment the triggering phase
// completes.
func advance(rec *session.Record, last session.Result, now time.Time, notes []Note) Outcome {
	s := &rec.Session
	from := s.PhaseIndex

	s.PhaseIndex++
	for s.PhaseIndex < len(s.Phases) {
		phase := s.Phases[s.PhaseIndex]
		if phase.Kind == chain.KindBranch && len(s.Conditions) == 0 {
			notes = append(notes, Note{
				Type:    events.TypeBranchSkipped,
				Payload: events.PhasePayload(from, s.PhaseIndex, phase.Roles),
			})
			s.PhaseIndex++
			continue
		}
		break
	}

	if s.PhaseIndex >= len(s.Phases) {
		// Terminal verdict comes from the final role's structured
		// signal; a missing signal means approval.
		verdict := VerdictApproved
		if last.Verdict == session.VerdictReject {
			verdict = VerdictRejected
		}
		s.ExitRequested = true
		s.ExitApproved = verdict == VerdictApproved
		s.ExitReason = "all roles complete"
		s.Active = false

		return Outcome{
			Kind:    KindTerminal,
			Verdict: verdict,
			Reason:  s.ExitReason,
			Notes: append(notes, Note{
				Type:    events.TypeTerminal,
				Payload: events.TerminalPayload(string(verdict), s.ExitReason),
			}),
		}
	}

	phase := s.Phases[s.PhaseIndex]
	noteType := events.TypePhaseAdvance
	if phase.Kind == chain.KindBranch {
		noteType = events.TypeBranchTaken
	}
	notes = append(notes, Note{
		Type:    noteType,
		Payload: events.PhasePayload(from, s.PhaseIndex, phase.Roles),
	})

	return issue(rec, now, notes)
}

// issue builds the instruction for the current phase and counts the
// dispatch of each of its outstanding roles.
func issue(rec *session.Record, now time.Time, notes []Note) Outcome {
	s := &rec.Session
	if _, ok := s.CurrentPhase(); !ok {
		return Outcome{Kind: KindTerminal, Verdict: VerdictApproved, Reason: "all roles complete", Notes: notes}
	}

	for _, role := range s.Outstanding() {
		rec.Guard.RecordRun(role, now)
	}

	out := InstructionFor(s)
	out.Notes = notes
	return out
}

// InstructionFor derives the instruction matching the session's current
// state without mutating anything.
func InstructionFor(s *session.Session) Outcome {
	phase, ok := s.CurrentPhase()
	if !ok {
		return Outcome{Kind: KindTerminal, Verdict: VerdictApproved, Reason: "all roles complete"}
	}

	switch phase.Kind {
	case chain.KindBranch:
		return Outcome{Kind: KindRunBranch, Roles: phase.Roles}
	case chain.KindParallel:
		outstanding := s.Outstanding()
		if len(outstanding) < len(phase.Roles) {
			return Outcome{Kind: KindPending, Roles: outstanding}
		}
		return Outcome{Kind: KindRunParallel, Roles: phase.Roles}
	default:
		return Outcome{Kind: KindRunSingle, Roles: phase.Roles}
	}
}

func verdictFor(v completion.Verdict) Verdict {
	switch v.State {
	case completion.DoneApproved:
		return VerdictApproved
	case completion.DoneRejected:
		return VerdictRejected
	default:
		return VerdictForced
	}
}
