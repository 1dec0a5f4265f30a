// Package events provides the conclave audit trail.
//
// Events are appended to <state dir>/audit.jsonl. Logging is best-effort:
// an unwritable audit log never fails the operation that produced the
// event. Watchdog auto-completions carry a sentinel flag in their payload
// so they are distinguishable from agent-reported results.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event represents one audit record.
type Event struct {
	Timestamp string                 `json:"ts"`
	Source    string                 `json:"source"`
	Type      string                 `json:"type"`
	Session   string                 `json:"session"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Event types emitted by the orchestration core.
const (
	TypeSessionStart   = "session_start"
	TypeRoleComplete   = "role_complete"
	TypePhaseAdvance   = "phase_advance"
	TypeBranchTaken    = "branch_taken"
	TypeBranchSkipped  = "branch_skipped"
	TypeRework         = "rework"
	TypeAutoComplete   = "auto_complete"
	TypeBreakerTrip    = "breaker_trip"
	TypeTerminal       = "terminal"
	TypeSessionDestroy = "session_destroy"
	TypeWatchdogTick   = "watchdog_tick"
)

// AuditFile is the name of the audit log within the state dir.
const AuditFile = "audit.jsonl"

// Log appends events for one state directory.
type Log struct {
	path    string
	verbose bool

	mu sync.Mutex
}

// NewLog returns an audit log rooted at stateDir. With verbose set, events
// are mirrored to stderr.
func NewLog(stateDir string, verbose bool) *Log {
	return &Log{path: filepath.Join(stateDir, AuditFile), verbose: verbose}
}

// Emit writes an event. Returns nil on logging failure (best-effort).
func (l *Log) Emit(eventType, sessionID string, payload map[string]interface{}) error {
	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "cv",
		Type:      eventType,
		Session:   sessionID,
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if l.verbose {
		fmt.Fprintf(os.Stderr, "[audit] %s\n", data)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G302: audit log is non-sensitive operational data
	if err != nil {
		return nil // best-effort: state dir may not exist yet
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	return nil
}

// Payload helpers for common event structures.

// RolePayload describes a role completion.
func RolePayload(role string, sentinel bool, verdict string) map[string]interface{} {
	p := map[string]interface{}{
		"role": role,
	}
	if sentinel {
		p["sentinel"] = true
	}
	if verdict != "" {
		p["verdict"] = verdict
	}
	return p
}

// PhasePayload describes a phase transition.
func PhasePayload(from, to int, roles []string) map[string]interface{} {
	return map[string]interface{}{
		"from":  from,
		"to":    to,
		"roles": roles,
	}
}

// TerminalPayload describes a terminal verdict.
func TerminalPayload(verdict, reason string) map[string]interface{} {
	p := map[string]interface{}{
		"verdict": verdict,
	}
	if reason != "" {
		p["reason"] = reason
	}
	return p
}

// TripPayload describes a circuit breaker trip.
func TripPayload(reason string) map[string]interface{} {
	return map[string]interface{}{
		"reason": reason,
	}
}

// StartPayload describes a session start.
func StartPayload(chain, task string, phases int) map[string]interface{} {
	return map[string]interface{}{
		"chain":  chain,
		"task":   task,
		"phases": phases,
	}
}

// ReworkPayload describes a feedback rewind.
func ReworkPayload(requestedBy string, phase int) map[string]interface{} {
	return map[string]interface{}{
		"requested_by": requestedBy,
		"phase":        phase,
	}
}
