package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/darkprince558/tether/internal/audit"
	"github.com/darkprince558/tether/internal/discovery"
	"github.com/darkprince558/tether/internal/session"
	"github.com/darkprince558/tether/internal/signaling"
	devsync "github.com/darkprince558/tether/internal/sync"
	"github.com/darkprince558/tether/internal/transport"
	"github.com/darkprince558/tether/internal/ui"
	"github.com/darkprince558/tether/pkg/protocol"
)

func runCmd() *cobra.Command {
	var lanPort int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the relay and wait for the paired device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), lanPort)
		},
	}

	cmd.Flags().IntVar(&lanPort, "lan-port", 0, "listen for direct LAN frames on this port (0 disables)")
	return cmd
}

func runSession(ctx context.Context, lanPort int) error {
	if cfg.RelayEndpoint == "" {
		return fmt.Errorf("relay endpoint is not configured; run tether init first")
	}
	if cfg.LoginToken == "" || cfg.DeviceToken == "" {
		return fmt.Errorf("session tokens are not configured; run tether init or set TETHER_LOGIN_TOKEN / TETHER_DEVICE_TOKEN")
	}

	ice := transport.ICEConfig{
		StunServer:   cfg.StunServer,
		TurnServer:   cfg.TurnServer,
		TurnUsername: cfg.TurnUsername,
		TurnPassword: cfg.TurnPassword,
	}
	factory := func(cb transport.Callbacks) (session.Peer, error) {
		return transport.NewPeer(ice, cb)
	}

	// The relay client and the controller reference each other, so the
	// client connects first with handlers that wait until the controller
	// exists before forwarding anything.
	var controller *session.Controller
	ready := make(chan struct{})
	relay, err := signaling.NewClient(ctx, signaling.Options{
		Endpoint:    cfg.RelayEndpoint,
		Region:      cfg.RelayRegion,
		LoginToken:  cfg.LoginToken,
		DeviceToken: cfg.DeviceToken,
	}, signaling.Handlers{
		OnOffer: func(offerJSON, fromDeviceID string) {
			<-ready
			controller.HandleOffer(offerJSON, fromDeviceID)
		},
		OnPeerOnline: func(deviceID string) {
			<-ready
			controller.HandlePeerOnline(deviceID)
		},
		OnPeerOffline: func(deviceID string) {
			<-ready
			controller.HandlePeerOffline(deviceID)
		},
	})
	if err != nil {
		return fmt.Errorf("relay connection: %w", err)
	}
	defer relay.Close()

	controller = session.NewController(session.Options{
		Role:           cfg.Role,
		DebounceWindow: cfg.DebounceWindow(),
		OfferTimeout:   cfg.OfferTimeout(),
	}, relay, factory)
	close(ready)
	defer controller.Close()

	synchronizer := devsync.New(controller, devsync.Collaborators{
		DeviceState: devsync.HostStateProvider{},
		Clipboard:   devsync.SystemClipboard{},
	})
	synchronizer.Attach(controller.Mux())
	controller.OnConnected(synchronizer.SyncAll)

	model := ui.NewModel(cfg.Role, cfg.DeviceToken, func(text string) error {
		return controller.Send(protocol.TypeChat, text)
	})
	program := tea.NewProgram(model)

	// Forward chat envelopes into the UI timeline.
	controller.Mux().Subscribe(protocol.TypeChat, func(env protocol.Envelope) {
		program.Send(ui.EnvelopeMsg(env))
	})

	// Session history and UI both follow the state stream.
	states, unsubscribe := controller.Subscribe()
	defer unsubscribe()
	go trackStates(states, program)

	if err := controller.Start(); err != nil {
		return err
	}

	if lanPort > 0 {
		stopAdvert, err := discovery.StartAdvertising(lanPort, cfg.DeviceToken)
		if err != nil {
			fmt.Printf("LAN advertising failed: %v\n", err)
		} else {
			defer stopAdvert()
			go serveLAN(ctx, lanPort, controller.Mux())
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// trackStates drives the UI state display and writes session history.
func trackStates(states <-chan session.State, program *tea.Program) {
	var connectedAt time.Time

	for s := range states {
		program.Send(ui.SessionStateMsg(s))

		switch s {
		case session.StateConnected:
			connectedAt = time.Now()
			if err := audit.WriteEntry(audit.LogEntry{
				Event: audit.EventConnected,
				Role:  cfg.Role,
			}); err != nil {
				fmt.Printf("History write failed: %v\n", err)
			}
		case session.StateDisconnected:
			entry := audit.LogEntry{
				Event: audit.EventDisconnected,
				Role:  cfg.Role,
			}
			if !connectedAt.IsZero() {
				entry.Duration = time.Since(connectedAt).Seconds()
				connectedAt = time.Time{}
			}
			if err := audit.WriteEntry(entry); err != nil {
				fmt.Printf("History write failed: %v\n", err)
			}
		}
	}
}

// serveLAN accepts direct QUIC frames and feeds them to the same envelope
// handlers the data channel uses, without touching the session timeline
// (LAN frames are out-of-session). One peer at a time.
func serveLAN(ctx context.Context, port int, mux *session.Mux) {
	for ctx.Err() == nil {
		channel, err := transport.ListenLAN(ctx, port)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("LAN listen failed: %v\n", err)
			time.Sleep(time.Second)
			continue
		}

		for {
			frame, err := channel.Receive()
			if err != nil {
				if err != io.EOF {
					fmt.Printf("LAN receive failed: %v\n", err)
				}
				break
			}
			if err := mux.ReceiveDirect(frame); err != nil {
				fmt.Printf("Dropping malformed LAN frame: %v\n", err)
			}
		}
		channel.Close()
	}
}
