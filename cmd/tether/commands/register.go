package commands

import (
	"fmt"
	"os"
	"runtime"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/registry"
)

func registerCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this machine with the device registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.RegistryURL == "" {
				return fmt.Errorf("registry URL is not configured; run tether init --registry-url")
			}
			if cfg.LoginToken == "" || cfg.DeviceToken == "" {
				return fmt.Errorf("session tokens are not configured")
			}

			if name == "" {
				hostname, err := os.Hostname()
				if err != nil {
					name = petname.Generate(2, "-")
				} else {
					name = hostname
				}
			}

			tz, _ := time.Now().Zone()
			record := registry.DeviceRecord{
				DeviceType: "desktop",
				DeviceName: name,
				Model:      runtime.GOARCH,
				OsName:     runtime.GOOS,
				UUID:       cfg.DeviceToken,
				Timezone:   tz,
			}

			client := registry.NewClient(cfg.RegistryURL, cfg.LoginToken)
			stored, err := client.Register(cmd.Context(), record)
			if err != nil {
				return err
			}

			fmt.Printf("Registered as %s (%s)\n", stored.DeviceName, stored.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (default: hostname)")
	return cmd
}
