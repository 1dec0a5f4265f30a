package chain

// Built-in chains. These ship with the binary; additional chains can be
// dropped into the chains directory as TOML files (see LoadDir).
//
// The full chain is the default: intake through historian, with a parallel
// review pair and a conditional remediation branch that only runs when the
// reviewers leave open conditions.

// DefaultChainID is used when a start request names no chain and no keyword
// trigger matches.
const DefaultChainID = "full"

func builtinChains() []*Definition {
	return []*Definition{
		{
			ID:          "full",
			Description: "Full deliberation: intake through post-run records",
			Keywords:    []string{"implement", "feature", "build", "develop", "add"},
			Phases: []Phase{
				Single("intake"),
				Single("ideator"),
				Single("analyst"),
				Single("critic"),
				Single("architect"),
				Parallel("policy-reviewer", "practice-reviewer"),
				Branch("remediator"),
				Single("executor"),
				Single("inspector"),
				Single("validator"),
				Single("arbiter"),
				Single("historian"),
			},
		},
		{
			ID:          "quick",
			Description: "Short loop for small fixes",
			Keywords:    []string{"bug", "fix", "patch", "error", "hotfix"},
			Phases: []Phase{
				Single("critic"),
				Single("architect"),
				Single("executor"),
				Single("validator"),
				Single("arbiter"),
			},
		},
		{
			ID:          "review",
			Description: "Review-only pass, no execution",
			Keywords:    []string{"review", "check", "verify", "inspect"},
			Phases: []Phase{
				Single("critic"),
				Single("validator"),
			},
		},
		{
			ID:          "design",
			Description: "Design without execution",
			Keywords:    []string{"design", "architecture", "plan", "structure"},
			Phases: []Phase{
				Single("intake"),
				Single("ideator"),
				Single("analyst"),
				Single("critic"),
				Single("architect"),
			},
		},
	}
}
