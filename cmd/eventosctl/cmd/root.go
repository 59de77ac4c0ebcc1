package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/eventos-api/internal/config"
	"github.com/iliyamo/eventos-api/internal/database"
)

// openDB connects using the same environment variables as the server.
// Tests replace it.
var openDB = func() (*sql.DB, error) {
	cfg := config.Load()
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "eventosctl",
		Short: "eventosctl - operator tooling for the eventos API",
		Long: `eventosctl manages the eventos database outside the HTTP API.

It applies or rolls back schema migrations and changes account roles and
activation, which the API itself never exposes.`,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newUserCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
