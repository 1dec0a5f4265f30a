package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deeklead/conclave/internal/version"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	GroupID: GroupInfo,
	Short:   "Print the cv version",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cv %s (%s)\n", version.Version, version.Commit)
	},
}
