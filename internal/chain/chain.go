// Package chain defines deliberation chains: ordered sequences of phases
// that an external agent works through one role at a time.
//
// A phase is one of three kinds:
//   - single: one role runs alone
//   - parallel: a group of roles that must all complete before advancing
//   - branch: a conditional role that only runs when earlier phases
//     collected open conditions for it to resolve
package chain

import (
	"fmt"
)

// Kind represents the kind of a phase.
type Kind string

const (
	// KindSingle is a phase with exactly one role.
	KindSingle Kind = "single"
	// KindParallel is a phase whose roles all run before the chain advances.
	KindParallel Kind = "parallel"
	// KindBranch is a conditional phase, skipped when no conditions are open.
	KindBranch Kind = "branch"
)

// Phase is one step of a chain.
type Phase struct {
	Kind  Kind     `json:"kind"`
	Roles []string `json:"roles"`
}

// Single returns a phase with one role.
func Single(role string) Phase {
	return Phase{Kind: KindSingle, Roles: []string{role}}
}

// Parallel returns a phase whose roles must all complete before advancing.
func Parallel(roles ...string) Phase {
	return Phase{Kind: KindParallel, Roles: roles}
}

// Branch returns a conditional phase handled by a single role.
func Branch(role string) Phase {
	return Phase{Kind: KindBranch, Roles: []string{role}}
}

// Definition is an immutable chain description. Definitions are loaded once
// at process start; in-flight sessions hold their own resolved snapshot and
// never observe catalog edits.
type Definition struct {
	ID          string
	Description string
	Phases      []Phase

	// Keywords trigger automatic selection of this chain when a start
	// request omits an explicit chain id.
	Keywords []string
}

// Validate checks structural invariants: at least one phase, role names
// unique across the chain, parallel groups with at least two members.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("chain id is required")
	}
	if len(d.Phases) == 0 {
		return fmt.Errorf("chain %q has no phases", d.ID)
	}

	seen := make(map[string]bool)
	for i, p := range d.Phases {
		switch p.Kind {
		case KindSingle, KindBranch:
			if len(p.Roles) != 1 {
				return fmt.Errorf("chain %q phase %d: %s phase needs exactly one role", d.ID, i, p.Kind)
			}
		case KindParallel:
			if len(p.Roles) < 2 {
				return fmt.Errorf("chain %q phase %d: parallel group needs at least two roles", d.ID, i)
			}
		default:
			return fmt.Errorf("chain %q phase %d: unknown phase kind %q", d.ID, i, p.Kind)
		}

		for _, role := range p.Roles {
			if role == "" {
				return fmt.Errorf("chain %q phase %d: empty role name", d.ID, i)
			}
			if seen[role] {
				return fmt.Errorf("chain %q: duplicate role %q", d.ID, role)
			}
			seen[role] = true
		}
	}

	return nil
}

// Roles returns all role names in phase order.
func (d *Definition) Roles() []string {
	var roles []string
	for _, p := range d.Phases {
		roles = append(roles, p.Roles...)
	}
	return roles
}
