package main

// Run database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"techstep-backend/internal/shared/config"
	"techstep-backend/internal/shared/storage/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the techstep database schema",
		SilenceUsage: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				return printVersion(ctx, sqlDB)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				if err := db.RollbackMigration(ctx, sqlDB); err != nil {
					return fmt.Errorf("rollback migration: %w", err)
				}
				return printVersion(ctx, sqlDB)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied and pending migrations",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return db.MigrationStatus(ctx, sqlDB)
			}),
		},
	)
	return root
}

func withDB(fn func(ctx context.Context, sqlDB *sql.DB) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer sqlDB.Close()
		return fn(ctx, sqlDB)
	}
}

func printVersion(ctx context.Context, sqlDB *sql.DB) error {
	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	log.Printf("database at migration version %d", version)
	return nil
}
