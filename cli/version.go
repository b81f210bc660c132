package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskmanager/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "taskmanager "+version.String())
	},
}
