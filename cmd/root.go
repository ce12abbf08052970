package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opspanel/panelapi/cmd/users"
	"github.com/opspanel/panelapi/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "panelapi",
	Short: "Admin panel identity and session server",
	Long: `panelapi serves the admin panel's identity core: credential storage,
session management, impersonation, and role-based page access. Identities are
persisted as encrypted files; the owner account is bootstrapped from the
environment on first login.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags (documented; values come from the environment)
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for encrypted identity files (env: PANEL_DATA_DIR)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug error detail (env: DEBUG)")

	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
