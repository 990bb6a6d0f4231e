package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskcoin/backend/internal/db"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema and job queue migrations, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pool, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := db.RunMigrations(cmd.Context(), pool, slog.Default()); err != nil {
			return fmt.Errorf("schema migrations: %w", err)
		}
		if err := db.MigrateRiver(cmd.Context(), pool); err != nil {
			return fmt.Errorf("river migrations: %w", err)
		}
		slog.Info("Migrations applied")
		return nil
	},
}
