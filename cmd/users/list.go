package users

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List panel identities",
	Long:  `Lists all identities in the store. The owner identity is never listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		identities, err := svc.ListIdentities(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list identities: %w", err)
		}

		if len(identities) == 0 {
			fmt.Println("No identities found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tSTATUS\tLAST LOGIN")
		for _, ident := range identities {
			lastLogin := "never"
			if ident.LastLogin != nil {
				lastLogin = ident.LastLogin.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ident.ID, ident.Username, ident.Role, ident.Status, lastLogin)
		}
		return w.Flush()
	},
}
