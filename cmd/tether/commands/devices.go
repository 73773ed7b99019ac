package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/registry"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices registered under this account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.RegistryURL == "" {
				return fmt.Errorf("registry URL is not configured; run tether init --registry-url")
			}
			if cfg.LoginToken == "" {
				return fmt.Errorf("login token is not configured")
			}

			client := registry.NewClient(cfg.RegistryURL, cfg.LoginToken)
			records, err := client.Devices(cmd.Context())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No devices registered.")
				return nil
			}

			fmt.Printf("%-20s %-10s %-20s %-15s %s\n", "ID", "TYPE", "NAME", "MODEL", "LAST SEEN")
			for _, r := range records {
				lastSeen := ""
				if r.UpdatedAt > 0 {
					lastSeen = time.UnixMilli(r.UpdatedAt).Format("2006-01-02 15:04")
				}
				fmt.Printf("%-20s %-10s %-20s %-15s %s\n", r.ID, r.DeviceType, r.DeviceName, r.Model, lastSeen)
			}
			return nil
		},
	}
}
