package engine

// Kind classifies the engine's answer to an event.
type Kind string

const (
	// KindRunSingle instructs the agent to run one role.
	KindRunSingle Kind = "run_single"
	// KindRunParallel instructs the agent to run a group of roles that
	// must all complete before the chain advances.
	KindRunParallel Kind = "run_parallel"
	// KindRunBranch instructs the agent to run a conditional branch role.
	KindRunBranch Kind = "run_branch"
	// KindPending reports a parallel phase with outstanding members.
	KindPending Kind = "pending"
	// KindTerminal reports the end of the session.
	KindTerminal Kind = "terminal"
)

// Verdict is the terminal disposition of a session.
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
	VerdictForced   Verdict = "forced"
)

// Note is an audit annotation produced while applying an event. The
// command layer forwards notes to the audit log; the engine itself never
// performs IO.
type Note struct {
	Type    string
	Payload map[string]interface{}
}

// Outcome is the engine's typed answer: an instruction, a pending notice,
// or a terminal verdict. Control flow is carried here explicitly, never in
// output-stream conventions.
type Outcome struct {
	Kind Kind

	// Roles carries the instruction targets: the role(s) to run, or the
	// outstanding members of a pending parallel phase.
	Roles []string

	// Verdict and Reason are set for terminal outcomes.
	Verdict Verdict
	Reason  string

	// Duplicate marks an idempotent repeat of an already-recorded
	// completion.
	Duplicate bool

	Notes []Note
}
