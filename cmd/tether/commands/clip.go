package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/discovery"
	devsync "github.com/darkprince558/tether/internal/sync"
	"github.com/darkprince558/tether/internal/transport"
	"github.com/darkprince558/tether/pkg/protocol"
)

func clipCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "clip <device-token>",
		Short: "Push the local clipboard to a device on the LAN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := devsync.SystemClipboard{}.ReadAll()
			if err != nil {
				return fmt.Errorf("read clipboard: %w", err)
			}

			addr, err := discovery.FindPeer(args[0], timeout)
			if err != nil {
				return err
			}
			fmt.Printf("Peer found at %s\n", addr)

			channel, err := transport.DialLAN(cmd.Context(), addr)
			if err != nil {
				return err
			}
			defer channel.Close()

			env := protocol.NewEnvelope(protocol.TypeClipboard, text, cfg.Role)
			frame, err := env.Encode()
			if err != nil {
				return err
			}
			if err := channel.Send(frame); err != nil {
				return err
			}

			fmt.Println("Clipboard sent.")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to scan before giving up")
	return cmd
}
