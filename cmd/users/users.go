package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/config"
	"github.com/opspanel/panelapi/internal/repository"
	"github.com/opspanel/panelapi/internal/services/iam"
	"github.com/opspanel/panelapi/internal/vault"
)

// UsersCmd is the parent command for identity management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage panel identities",
	Long:  `Commands for managing panel identities directly against the encrypted store.`,
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Username of the identity (required)")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the identity (use --stdin to avoid shell history)")
	createCmd.Flags().StringVar(&roleFlag, "role", "", "Role to assign: administrator, admin, or custom (required)")
	createCmd.Flags().StringSliceVar(&pagesFlag, "page", []string{}, "Page(s) to assign (custom role)")
	createCmd.Flags().StringSliceVar(&projectsFlag, "project", []string{}, "Project(s) to assign (custom role)")
	createCmd.Flags().StringSliceVar(&settingsFlag, "settings-module", []string{}, "Settings module(s) to allow")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(listCmd)
	UsersCmd.AddCommand(deleteCmd)
}

// newService assembles the IAM service against the configured vault. The CLI
// talks to the same encrypted store the server does, so a running server is
// not required.
func newService() (iam.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	v, err := vault.NewFileVault(cfg.DataDir, cfg.VaultSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault at %s: %w", cfg.DataDir, err)
	}
	codec, err := auth.NewTokenCodec([]byte(cfg.TokenSigningKey))
	if err != nil {
		return nil, fmt.Errorf("failed to configure token codec: %w", err)
	}

	return iam.NewService(iam.Dependencies{
		Identities:  repository.NewVaultIdentityRepository(v),
		Preferences: repository.NewVaultPreferenceRepository(v),
		Sessions:    repository.NewVaultSessionRepository(v),
		Codec:       codec,
		Config:      cfg,
	}), nil
}
