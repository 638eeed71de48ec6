package main

// Run database migrations:
//   go run ./cmd/migrate            (same as "up")
//   go run ./cmd/migrate status
//   go run ./cmd/migrate down

import (
	"context"
	"database/sql"
	"os"

	"github.com/spf13/cobra"

	"hiremate-backend/internal/shared/config"
	"hiremate-backend/internal/shared/storage/db"
	"hiremate-backend/internal/shared/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or inspect the embedded database migrations",
		SilenceUsage: true,
		RunE:         withDB(db.RunMigrations),
	}
	root.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: withDB(db.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back the latest migration", RunE: withDB(db.RollbackMigration)},
		&cobra.Command{Use: "status", Short: "Print applied and pending migrations", RunE: withDB(db.MigrationStatus)},
		&cobra.Command{Use: "version", Short: "Print the current schema version", RunE: withDB(printVersion)},
	)

	if err := root.Execute(); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}

func withDB(fn func(ctx context.Context, database *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		telemetry.Init(cfg.LogLevel, cfg.LogFormat)
		ctx := cmd.Context()

		opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := fn(ctx, sqlDB); err != nil {
			return err
		}
		telemetry.Info("migrate.done", map[string]any{"command": cmd.Name()})
		return nil
	}
}

func printVersion(ctx context.Context, database *sql.DB) error {
	v, err := db.MigrationVersion(ctx, database)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.version", map[string]any{"version": v})
	return nil
}
