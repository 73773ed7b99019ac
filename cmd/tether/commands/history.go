package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/audit"
)

func historyCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past session events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				if err := audit.ClearHistory(); err != nil {
					return err
				}
				fmt.Println("Session history cleared.")
				return nil
			}
			audit.ShowHistory()
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "delete all session history")
	return cmd
}
