package main

import (
	"fmt"

	"github.com/DanielPopoola/sisi-payments/internal/config"
	"github.com/DanielPopoola/sisi-payments/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations to the configured database",
		Long: `Apply every pending *.up.sql migration in the migrations directory.

Applied versions are recorded in schema_migrations, so the command can be
rerun safely. Only the PAYMENTS_DATABASE__* and PAYMENTS_LOGGER__* settings
are read; gateway credentials are not needed.

Examples:
  paymentsctl migrate
  paymentsctl migrate --dir ./db/migrations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMigrationConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := cfg.Logger.NewLogger()

			db, err := postgres.Connect(cmd.Context(), &cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := postgres.ApplyMigrations(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "db/migrations", "directory holding the migration files")
	return cmd
}
