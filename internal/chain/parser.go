package chain

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// chainFile mirrors the on-disk TOML layout of a chain definition:
//
//	chain = "security-review"
//	description = "Focused security pass"
//	keywords = ["audit", "security"]
//
//	[[phase]]
//	role = "scout"
//
//	[[phase]]
//	parallel = ["auditor", "fuzzer"]
//
//	[[phase]]
//	branch = "remediator"
type chainFile struct {
	Chain       string      `toml:"chain"`
	Description string      `toml:"description"`
	Keywords    []string    `toml:"keywords"`
	Phases      []phaseSpec `toml:"phase"`
}

type phaseSpec struct {
	Role     string   `toml:"role"`
	Parallel []string `toml:"parallel"`
	Branch   string   `toml:"branch"`
}

// ParseFile reads and parses a chain TOML file.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted chains directory
	if err != nil {
		return nil, fmt.Errorf("reading chain file: %w", err)
	}
	return Parse(data)
}

// Parse parses chain TOML content from bytes.
func Parse(data []byte) (*Definition, error) {
	var f chainFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	def := &Definition{
		ID:          f.Chain,
		Description: f.Description,
		Keywords:    f.Keywords,
	}

	for i, spec := range f.Phases {
		phase, err := spec.phase()
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		def.Phases = append(def.Phases, phase)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}

// phase converts a spec to a Phase. Exactly one of role, parallel, or
// branch must be set.
func (s phaseSpec) phase() (Phase, error) {
	set := 0
	if s.Role != "" {
		set++
	}
	if len(s.Parallel) > 0 {
		set++
	}
	if s.Branch != "" {
		set++
	}
	if set != 1 {
		return Phase{}, fmt.Errorf("exactly one of role, parallel, or branch must be set")
	}

	switch {
	case s.Role != "":
		return Single(s.Role), nil
	case s.Branch != "":
		return Branch(s.Branch), nil
	default:
		return Parallel(s.Parallel...), nil
	}
}
