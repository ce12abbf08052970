package users

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a panel identity",
	Long:  `Deletes an identity and its paired preference and session files. The owner identity cannot be deleted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		if err := svc.DeleteIdentity(cmd.Context(), nil, args[0]); err != nil {
			return fmt.Errorf("failed to delete identity: %w", err)
		}

		fmt.Printf("Deleted identity %s\n", args[0])
		return nil
	},
}
