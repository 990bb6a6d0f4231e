package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/taskcoin/backend/internal/config"
	"github.com/taskcoin/backend/internal/db"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "taskcoin",
	Short:         "Micro-task marketplace backend",
	Long:          `taskcoin runs the HTTP API that lets buyers post paid micro-tasks, workers submit proof of work and admins settle coin withdrawals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file (defaults are used when empty)")
}

// Execute runs the root command.
func Execute() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return err
	}
	return nil
}

// openDatabase loads the config and connects to PostgreSQL.
func openDatabase(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return cfg, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return cfg, nil, fmt.Errorf("cannot reach PostgreSQL, ensure it is running: %w", err)
	}
	slog.Info("Connected to PostgreSQL database successfully!")
	return cfg, pool, nil
}
