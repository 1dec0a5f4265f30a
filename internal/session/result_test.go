package session

import (
	"testing"
	"time"

	"github.com/deeklead/conclave/internal/chain"
)

func TestParseResult(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		raw  string
		want Result
	}{
		{
			name: "plain text carries no signals",
			raw:  "looked at the cache layer, found nothing",
			want: Result{},
		},
		{
			name: "verdict approve",
			raw:  "VERDICT: approve",
			want: Result{Verdict: VerdictApprove},
		},
		{
			name: "verdict is case-insensitive",
			raw:  "verdict: REJECT",
			want: Result{Verdict: VerdictReject},
		},
		{
			name: "unknown verdict ignored",
			raw:  "VERDICT: maybe",
			want: Result{},
		},
		{
			name: "exit with reason",
			raw:  "all done\nEXIT: nothing left to deliberate",
			want: Result{Exit: true, ExitReason: "nothing left to deliberate"},
		},
		{
			name: "conditions accumulate",
			raw:  "CONDITION: cache key collision\nsome prose\nCONDITION: missing null check",
			want: Result{Conditions: []string{"cache key collision", "missing null check"}},
		},
		{
			name: "empty condition dropped",
			raw:  "CONDITION:",
			want: Result{},
		},
		{
			name: "rework target",
			raw:  "REWORK: architect",
			want: Result{Rework: "architect"},
		},
		{
			name: "marker must start the line",
			raw:  "we should EXIT: eventually",
			want: Result{},
		},
		{
			name: "leading whitespace tolerated",
			raw:  "   VERDICT: approve",
			want: Result{Verdict: VerdictApprove},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResult(tt.raw, now)

			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want original text", got.Raw)
			}
			if got.Verdict != tt.want.Verdict {
				t.Errorf("Verdict = %q, want %q", got.Verdict, tt.want.Verdict)
			}
			if got.Exit != tt.want.Exit || got.ExitReason != tt.want.ExitReason {
				t.Errorf("Exit = %v %q, want %v %q", got.Exit, got.ExitReason, tt.want.Exit, tt.want.ExitReason)
			}
			if len(got.Conditions) != len(tt.want.Conditions) {
				t.Fatalf("Conditions = %v, want %v", got.Conditions, tt.want.Conditions)
			}
			for i := range got.Conditions {
				if got.Conditions[i] != tt.want.Conditions[i] {
					t.Errorf("Conditions[%d] = %q, want %q", i, got.Conditions[i], tt.want.Conditions[i])
				}
			}
			if got.Rework != tt.want.Rework {
				t.Errorf("Rework = %q, want %q", got.Rework, tt.want.Rework)
			}
		})
	}
}

func TestSentinelResult(t *testing.T) {
	now := time.Now()
	res := SentinelResult(now)
	if !res.Sentinel {
		t.Error("Sentinel = false")
	}
	if res.Raw != SentinelNote {
		t.Errorf("Raw = %q", res.Raw)
	}
	if !res.ReportedAt.Equal(now) {
		t.Errorf("ReportedAt = %v", res.ReportedAt)
	}
}

func TestReworkPhase(t *testing.T) {
	s := &Session{
		Phases: []chain.Phase{
			chain.Single("a"),
			chain.Parallel("b", "c"),
			chain.Single("d"),
		},
	}

	tests := []struct {
		rework string
		want   int
	}{
		{"", -1},
		{"0", 0},
		{"2", 2},
		{"3", -1},  // past the end
		{"-1", -1}, // negative index
		{"c", 1},   // role name resolves to its phase
		{"d", 2},
		{"ghost", -1}, // unknown role
	}

	for _, tt := range tests {
		t.Run(tt.rework, func(t *testing.T) {
			res := Result{Rework: tt.rework}
			if got := res.ReworkPhase(s); got != tt.want {
				t.Errorf("ReworkPhase(%q) = %d, want %d", tt.rework, got, tt.want)
			}
		})
	}
}
