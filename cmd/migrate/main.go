package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the book exchange Postgres schema",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadEnvFiles()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *sql.DB) error {
				if err := goose.UpContext(cmd.Context(), db, migrationsDir()); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				cmd.Println("Migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *sql.DB) error {
				if err := goose.DownContext(cmd.Context(), db, migrationsDir()); err != nil {
					return fmt.Errorf("failed to rollback migrations: %w", err)
				}
				cmd.Println("Migrations rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied state of every migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, db *sql.DB) error {
				return goose.StatusContext(cmd.Context(), db, migrationsDir())
			}),
		},
		newCreateCmd(),
	)
	return cmd
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new SQL migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := goose.Create(nil, migrationsDir(), args[0], "sql"); err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			cmd.Printf("Migration created: %s\n", args[0])
			return nil
		},
	}
}

// withDB opens a database/sql handle over a pgx pool for goose.
func withDB(fn func(cmd *cobra.Command, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn, err := databaseDSN()
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(cmd.Context(), dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		db := stdlib.OpenDBFromPool(pool)
		defer db.Close()

		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return fn(cmd, db)
	}
}
