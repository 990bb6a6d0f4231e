package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().String("email", "", "Admin email (required)")
	createAdminCmd.Flags().String("name", "Administrator", "Display name")
	_ = createAdminCmd.MarkFlagRequired("email")
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account. Admins cannot self-register through the API.
The password is read from the TASKCOIN_ADMIN_PASSWORD environment variable.`,
	RunE: runCreateAdmin,
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password := os.Getenv("TASKCOIN_ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("TASKCOIN_ADMIN_PASSWORD is not set")
	}

	cfg, pool, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	_, svc := newAuthService(pool, cfg, slog.Default())
	acc, err := svc.CreateAdmin(cmd.Context(), email, password, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "admin %s created (%s)\n", acc.Email, acc.ID)
	return nil
}
