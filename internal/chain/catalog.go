package chain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownChain indicates the catalog has no chain with the given id.
var ErrUnknownChain = errors.New("unknown chain")

// Catalog is a read-only registry of chain definitions. It is built once at
// process start; adding a chain type is a deployment-time change.
type Catalog struct {
	chains map[string]*Definition
}

// NewCatalog returns a catalog holding the built-in chains.
func NewCatalog() *Catalog {
	c := &Catalog{chains: make(map[string]*Definition)}
	for _, def := range builtinChains() {
		c.chains[def.ID] = def
	}
	return c
}

// LoadDir merges chain definitions from *.toml files in dir into the
// catalog. User definitions override built-ins with the same id. A missing
// directory is not an error.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading chains directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		def, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("chain file %s: %w", entry.Name(), err)
		}
		c.chains[def.ID] = def
	}

	return nil
}

// Resolve returns the definition for a chain id.
func (c *Catalog) Resolve(id string) (*Definition, error) {
	def, ok := c.chains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChain, id)
	}
	return def, nil
}

// Default returns the chain used when a start request names none.
func (c *Catalog) Default() *Definition {
	return c.chains[DefaultChainID]
}

// Select picks a chain for a task by keyword trigger, falling back to the
// default chain when nothing matches. Chains are checked in id order so
// selection is deterministic.
func (c *Catalog) Select(task string) *Definition {
	text := strings.ToLower(task)
	for _, id := range c.IDs() {
		for _, kw := range c.chains[id].Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return c.chains[id]
			}
		}
	}
	return c.Default()
}

// IDs returns all chain ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.chains))
	for id := range c.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
