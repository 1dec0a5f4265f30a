// Package watchdog drives the turn-boundary safety check.
//
// The host invokes Tick once after every agent turn, whether or not the
// agent explicitly reported a completion. The tick re-reads the persisted
// record, applies the circuit breaker and completion detector, and either
// allows the process to stop or re-issues the next instruction — so the
// orchestration survives an actor that forgets to continue.
package watchdog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deeklead/conclave/internal/breaker"
	"github.com/deeklead/conclave/internal/completion"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/engine"
	"github.com/deeklead/conclave/internal/events"
	"github.com/deeklead/conclave/internal/session"
)

// Verdict is the watchdog's decision for one tick.
type Verdict struct {
	// Exit allows the process to stop.
	Exit bool

	// Reason is a human-readable explanation of the decision.
	Reason string

	// Outcome carries the re-computed instruction when Exit is false.
	Outcome engine.Outcome
}

// Driver binds the watchdog to a store, config, and audit log.
type Driver struct {
	store *session.Store
	cfg   *config.Config
	audit *events.Log
}

// New returns a watchdog driver.
func New(store *session.Store, cfg *config.Config, audit *events.Log) *Driver {
	return &Driver{store: store, cfg: cfg, audit: audit}
}

// Tick runs one watchdog pass for the session. Absent or inactive sessions
// allow exit. Terminal sessions are destroyed. Running sessions get their
// stalled roles auto-completed with a sentinel payload (unless strict_roles
// is set) and the next instruction re-issued.
func (d *Driver) Tick(id string, now time.Time) (Verdict, error) {
	rec, err := d.store.Load(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Verdict{Exit: true, Reason: "no session"}, nil
		}
		return Verdict{}, err
	}
	if !rec.Session.Active {
		_ = d.store.Destroy(id)
		return Verdict{Exit: true, Reason: "session inactive"}, nil
	}

	var (
		verdict   completion.Verdict
		outcome   engine.Outcome
		notes     []engine.Note
		sentinels []string
	)

	_, err = d.store.Mutate(id, func(rec *session.Record) error {
		// Every tick counts against the loop budget, whether or not
		// the session advances: a runaway actor that only ever
		// triggers the watchdog is still caught.
		rec.Guard.RecordTick(now)

		if status, reason := breaker.Enforce(&rec.Guard, d.cfg, now); status == breaker.Open {
			notes = append(notes, engine.Note{
				Type:    events.TypeBreakerTrip,
				Payload: events.TripPayload(reason),
			})
		}

		verdict = completion.Detect(rec, d.cfg, now)
		if verdict.Done() {
			rec.Session.Active = false
			return nil
		}

		outstanding := rec.Session.Outstanding()
		if len(outstanding) > 0 && !d.cfg.StrictRoles {
			// Liveness over strictness: a role the actor silently
			// dropped is completed with a sentinel payload, clearly
			// distinguishable from genuine results in the audit
			// trail.
			for _, role := range outstanding {
				out, err := engine.Complete(rec, role, session.SentinelResult(now), now)
				if err != nil {
					return fmt.Errorf("auto-completing %s: %w", role, err)
				}
				sentinels = append(sentinels, role)
				notes = append(notes, out.Notes...)
				outcome = out
			}
			if outcome.Kind == engine.KindTerminal {
				rec.Session.Active = false
				verdict = completion.Detect(rec, d.cfg, now)
				return nil
			}
		} else {
			outcome = engine.InstructionFor(&rec.Session)
		}

		if verdict = completion.Detect(rec, d.cfg, now); verdict.Done() {
			rec.Session.Active = false
		}
		return nil
	})
	if err != nil {
		return Verdict{}, err
	}

	d.emit(id, notes, sentinels)

	if verdict.Done() {
		reason := verdict.Reason
		if reason == "" {
			reason = string(verdict.State)
		}
		_ = d.audit.Emit(events.TypeTerminal, id, events.TerminalPayload(string(verdict.State), reason))
		if err := d.store.Destroy(id); err != nil {
			return Verdict{}, err
		}
		_ = d.audit.Emit(events.TypeSessionDestroy, id, nil)
		return Verdict{Exit: true, Reason: reason}, nil
	}

	reason := fmt.Sprintf("session %s running", id)
	if len(sentinels) > 0 {
		reason = fmt.Sprintf("auto-completed stalled role(s) %s", strings.Join(sentinels, ", "))
	}
	return Verdict{Exit: false, Reason: reason, Outcome: outcome}, nil
}

func (d *Driver) emit(id string, notes []engine.Note, sentinels []string) {
	_ = d.audit.Emit(events.TypeWatchdogTick, id, nil)
	for _, role := range sentinels {
		_ = d.audit.Emit(events.TypeAutoComplete, id, events.RolePayload(role, true, ""))
	}
	for _, n := range notes {
		_ = d.audit.Emit(n.Type, id, n.Payload)
	}
}
