package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcoot/authsamples/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	migrator := func() (*postgres.Migrator, error) {
		if dsn == "" {
			return nil, errors.New("--database-url or DATABASE_URL is required")
		}
		return postgres.NewMigrator(dsn, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dsn != "" {
				return nil
			}
			_ = godotenv.Load(".env")
			dsn = os.Getenv("DATABASE_URL")
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dsn, "database-url", "", "PostgreSQL connection URL (env: DATABASE_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator()
			if err != nil {
				return err
			}
			return m.Up(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator()
			if err != nil {
				return err
			}
			return m.Status(cmd.Context())
		},
	})

	var target int64
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --to",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator()
			if err != nil {
				return err
			}
			return m.Down(cmd.Context(), target)
		},
	}
	downCmd.Flags().Int64Var(&target, "to", 0, "Target version to roll back to")
	rootCmd.AddCommand(downCmd)

	return rootCmd
}
