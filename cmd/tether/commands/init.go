package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/config"
)

func initCmd() *cobra.Command {
	var (
		relayEndpoint string
		relayRegion   string
		registryURL   string
		loginToken    string
		deviceToken   string
		role          string
		stunServer    string
		turnServer    string
		turnUsername  string
		turnPassword  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the pairing configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if relayEndpoint != "" {
				cfg.RelayEndpoint = relayEndpoint
			}
			if relayRegion != "" {
				cfg.RelayRegion = relayRegion
			}
			if registryURL != "" {
				cfg.RegistryURL = registryURL
			}
			if loginToken != "" {
				cfg.LoginToken = loginToken
			}
			if deviceToken != "" {
				cfg.DeviceToken = deviceToken
			}
			if role != "" {
				cfg.Role = role
			}
			if stunServer != "" {
				cfg.StunServer = stunServer
			}
			if turnServer != "" {
				cfg.TurnServer = turnServer
			}
			if turnUsername != "" {
				cfg.TurnUsername = turnUsername
			}
			if turnPassword != "" {
				cfg.TurnPassword = turnPassword
			}

			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			path, _ := config.GetConfigPath()
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&relayEndpoint, "relay-endpoint", "", "relay (AWS IoT) endpoint hostname")
	cmd.Flags().StringVar(&relayRegion, "relay-region", "", "relay AWS region")
	cmd.Flags().StringVar(&registryURL, "registry-url", "", "device registry API base URL")
	cmd.Flags().StringVar(&loginToken, "login-token", "", "account login token")
	cmd.Flags().StringVar(&deviceToken, "device-token", "", "pairing device token")
	cmd.Flags().StringVar(&role, "role", "", `session role: "mobile" or "desktop"`)
	cmd.Flags().StringVar(&stunServer, "stun", "", "STUN server URL")
	cmd.Flags().StringVar(&turnServer, "turn", "", "TURN server URL")
	cmd.Flags().StringVar(&turnUsername, "turn-username", "", "TURN username")
	cmd.Flags().StringVar(&turnPassword, "turn-password", "", "TURN password")

	return cmd
}
