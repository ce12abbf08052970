package users

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opspanel/panelapi/internal/identity"
	"github.com/opspanel/panelapi/internal/services/iam"
)

var (
	usernameFlag string
	passwordFlag string
	roleFlag     string
	pagesFlag    []string
	projectsFlag []string
	settingsFlag []string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new panel identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}
		if roleFlag == "" {
			return fmt.Errorf("--role flag is required")
		}

		role, err := identity.ParseRole(roleFlag)
		if err != nil {
			return fmt.Errorf("invalid role %q: must be administrator, admin, or custom", roleFlag)
		}
		if role == identity.RoleOwner {
			return fmt.Errorf("the owner identity is bootstrapped from the environment, not created")
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		svc, err := newService()
		if err != nil {
			return err
		}

		ident, err := svc.CreateIdentity(cmd.Context(), nil, iam.CreateIdentityInput{
			Username:               usernameFlag,
			Password:               password,
			Role:                   role,
			Projects:               projectsFlag,
			AssignedPages:          pagesFlag,
			AllowedSettingsModules: settingsFlag,
		})
		if err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}

		fmt.Printf("Created identity %s (%s) with role %s\n", ident.Username, ident.ID, ident.Role)
		return nil
	},
}
