package cli

import (
	"github.com/spf13/cobra"

	"taskmanager/version"
)

var rootCmd = &cobra.Command{
	Use:   "taskmanager",
	Short: "Task management HTTP backend",
	Long: `taskmanager serves a JSON task API under /api and static files from a public directory.
Running it without a subcommand is the same as "taskmanager serve".`,
	Version:      version.Version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runServe,
}

func init() {
	bindServeFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, genSecretCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
