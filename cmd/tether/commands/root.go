package commands

import (
	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/config"
)

var cfg *config.Config

func Execute() error {
	root := &cobra.Command{
		Use:   "tether",
		Short: "Pair this machine with your phone over WebRTC",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(initCmd(), runCmd(), registerCmd(), devicesCmd(), historyCmd(), nearbyCmd(), clipCmd())
	return root.Execute()
}
