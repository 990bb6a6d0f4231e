package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskcoin/backend/internal/repository"
	"github.com/taskcoin/backend/internal/services"
)

var errUnbalanced = errors.New("coin conservation violated")

func init() {
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that every coin issued is accounted for",
	Long: `Sums account balances, task and submission escrow and pending withdrawals, and
compares them with registration bonuses plus purchases minus coins paid out or
forfeited. Exits non-zero when the two sides differ.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	_, pool, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	admin := services.NewAccountAdmin(pool, repository.NewAccountRepo(pool), nil, repository.NewStatsRepo(pool), slog.Default())
	report, err := admin.Audit(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "held=%d issued=%d balanced=%t\n", report.Held(), report.Issued(), report.Balanced())
	if !report.Balanced() {
		return errUnbalanced
	}
	return nil
}
