package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/discovery"
)

func nearbyCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "nearby <device-token>",
		Short: "Look for the paired device on the local network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := discovery.FindPeer(args[0], timeout)
			if err != nil {
				return err
			}
			fmt.Printf("Peer found at %s\n", addr)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to scan before giving up")
	return cmd
}
