package cli

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskmanager/app"
	"taskmanager/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the database and start the HTTP server",
	Long: `Connect to the database named by DATABASE_URL or MONGODB_URI and serve the task API.
The server does not listen if the database is unreachable.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	bindServeFlags(serveCmd)
}

// bindServeFlags is shared by serve and the root command, which runs serve
// by default.
func bindServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("port", "", "port to listen on (overrides PORT)")
	cmd.Flags().String("host", "", "interface to bind (overrides HOST)")
	cmd.Flags().String("db-uri", "", "database URI (overrides DATABASE_URL and MONGODB_URI)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.StandardLogger()
	if err := cfg.ConfigureLogger(logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New(cfg, logger).Run(ctx)
}

// applyServeFlags copies only the flags set on this invocation onto cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("db-uri") {
		cfg.DatabaseURL, _ = flags.GetString("db-uri")
	}
}
