// Package completion derives terminal status for a session.
package completion

import (
	"time"

	"github.com/deeklead/conclave/internal/breaker"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/session"
)

// State classifies a session as running or done.
type State string

const (
	Running      State = "running"
	DoneApproved State = "approved"
	DoneRejected State = "rejected"
	DoneForced   State = "forced"
)

// Forced-termination reasons.
const (
	ReasonBreaker  = "circuit-breaker"
	ReasonMaxLoops = "max-loops"
	ReasonTimeout  = "timeout"
)

// Verdict is the detector's result.
type Verdict struct {
	State  State
	Reason string
}

// Done reports whether the verdict is terminal.
func (v Verdict) Done() bool {
	return v.State != Running
}

// Detect derives the terminal status of a record. Pure over its inputs;
// timeouts are wall-clock from the session's recorded start, evaluated
// lazily at each call. Rules apply in precedence order: explicit exit flag,
// all phases satisfied, breaker open, loop budget, time budget.
func Detect(rec *session.Record, cfg *config.Config, now time.Time) Verdict {
	s := &rec.Session

	if s.ExitRequested {
		state := DoneApproved
		if !s.ExitApproved {
			state = DoneRejected
		}
		return Verdict{State: state, Reason: s.ExitReason}
	}

	if s.PhaseIndex >= len(s.Phases) {
		return Verdict{State: DoneApproved, Reason: "all phases satisfied"}
	}

	if status, _ := breaker.Check(&rec.Guard, cfg, now); status == breaker.Open {
		return Verdict{State: DoneForced, Reason: ReasonBreaker}
	}

	if rec.Guard.Loops >= cfg.MaxLoops {
		return Verdict{State: DoneForced, Reason: ReasonMaxLoops}
	}

	if now.Sub(s.CreatedAt) >= cfg.Timeout() {
		return Verdict{State: DoneForced, Reason: ReasonTimeout}
	}

	return Verdict{State: Running}
}
