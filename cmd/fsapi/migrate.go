package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/config"
	"github.com/sagarc03/fsapi/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the audit table",
	Long: `Create the audit table and its indexes in the configured database.
Running it again is harmless.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("database migration complete", "type", cfg.Database.Type, "table", cfg.Database.Tables.Audit)
	return nil
}
