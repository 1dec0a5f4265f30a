package session

import (
	"strconv"
	"strings"
	"time"
)

// Result is a role's reported outcome: free text that may carry embedded
// structured signals. Signals are parsed defensively from marker lines and
// are never assumed present.
//
// Recognized markers, one per line, case-insensitive prefix:
//
//	VERDICT: approve|reject
//	EXIT: <reason>
//	CONDITION: <finding>       (repeatable)
//	REWORK: <phase index or role name>
type Result struct {
	Raw string `json:"raw"`

	Verdict    string   `json:"verdict,omitempty"` // "approve" or "reject"
	Exit       bool     `json:"exit,omitempty"`
	ExitReason string   `json:"exit_reason,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Rework     string   `json:"rework,omitempty"`

	// Sentinel marks a result synthesized by the watchdog for a role
	// that never reported. Sentinel results are distinguishable from
	// genuine ones in the audit trail.
	Sentinel bool `json:"sentinel,omitempty"`

	ReportedAt time.Time `json:"reported_at"`
}

// Verdict values.
const (
	VerdictApprove = "approve"
	VerdictReject  = "reject"
)

// SentinelNote is the payload text of a watchdog-synthesized result.
const SentinelNote = "no explicit result reported"

// ParseResult scans raw text for structured marker lines.
func ParseResult(raw string, now time.Time) Result {
	res := Result{Raw: raw, ReportedAt: now}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasMarker(line, "VERDICT:"):
			v := strings.ToLower(markerValue(line))
			if v == VerdictApprove || v == VerdictReject {
				res.Verdict = v
			}
		case hasMarker(line, "EXIT:"):
			res.Exit = true
			res.ExitReason = markerValue(line)
		case hasMarker(line, "CONDITION:"):
			if v := markerValue(line); v != "" {
				res.Conditions = append(res.Conditions, v)
			}
		case hasMarker(line, "REWORK:"):
			res.Rework = markerValue(line)
		}
	}

	return res
}

// SentinelResult returns the auto-completion payload the watchdog records
// for a role that silently dropped its work.
func SentinelResult(now time.Time) Result {
	return Result{Raw: SentinelNote, Sentinel: true, ReportedAt: now}
}

// ReworkPhase resolves the rework target against a session: an integer is a
// phase index, anything else a role name. Returns -1 when the target names
// nothing in the chain.
func (r Result) ReworkPhase(s *Session) int {
	if r.Rework == "" {
		return -1
	}
	if k, err := strconv.Atoi(r.Rework); err == nil {
		if k >= 0 && k < len(s.Phases) {
			return k
		}
		return -1
	}
	return s.PhaseOfRole(r.Rework)
}

func hasMarker(line, marker string) bool {
	return len(line) >= len(marker) && strings.EqualFold(line[:len(marker)], marker)
}

func markerValue(line string) string {
	i := strings.Index(line, ":")
	return strings.TrimSpace(line[i+1:])
}
