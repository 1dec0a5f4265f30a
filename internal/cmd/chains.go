package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/chain"
	"github.com/deeklead/conclave/internal/config"
	"github.com/deeklead/conclave/internal/style"
)

var chainsCmd = &cobra.Command{
	Use:     "chains",
	GroupID: GroupInfo,
	Short:   "List available chains",
	Long: `List the chains in the catalog: built-ins plus any TOML definitions
found in the chains directory.`,
	Args: cobra.NoArgs,
	RunE: runChains,
}

func runChains(cmd *cobra.Command, args []string) error {
	catalog := chain.NewCatalog()
	if err := catalog.LoadDir(config.ChainsDir()); err != nil {
		return err
	}

	for _, id := range catalog.IDs() {
		def, err := catalog.Resolve(id)
		if err != nil {
			return err
		}

		name := id
		if id == chain.DefaultChainID {
			name += " (default)"
		}
		fmt.Printf("%s  %s\n", style.Render(style.Bold, name), style.Render(style.Dim, def.Description))
		for i, p := range def.Phases {
			fmt.Printf("  %2d. %s %s\n", i, p.Kind, strings.Join(p.Roles, ", "))
		}
		fmt.Println()
	}

	return nil
}
