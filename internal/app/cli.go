package app

import (
	"github.com/spf13/cobra"
)

// NewRootCommand wires the serve, migrate and seed commands.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "go-scrum",
		Short:         "Scrum events and tasks with real-time updates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			MustReadConfig(configPath)
			MustInitApplicationLogger()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (environment variables are used when empty)")

	var migrate bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			MustConnectPostgres()
			defer DisconnectPostgres()

			if migrate {
				MustMigrate("up")
			}

			MustLoadLocation()
			MustInitIdentity()
			MustSeedAdmin()
			MustInitScrum()

			MustStartJanitor()
			defer StopJanitor()

			MustListenAndServeHTTP()
		},
	}
	serve.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")

	migrateCmd := &cobra.Command{
		Use:   "migrate [command] [args...]",
		Short: "Run a goose migration command (up, down, status, version, ...)",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			command := "up"
			if len(args) > 0 {
				command, args = args[0], args[1:]
			}

			MustConnectPostgres()
			defer DisconnectPostgres()

			MustMigrate(command, args...)
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create the configured admin account",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			MustConnectPostgres()
			defer DisconnectPostgres()

			MustInitIdentity()
			MustSeedAdmin()
		},
	}

	root.AddCommand(serve, migrateCmd, seed)
	return root
}
