package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteCmd creates the manual delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <manual-id>",
		Short: "Delete a manual and all of its derived data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}
			if _, err := api.Delete("/manuals/" + args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Printf("Manual %s deleted\n", args[0])
			return nil
		},
	}
}
