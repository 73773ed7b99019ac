package sync

import (
	"encoding/json"
	"fmt"

	"github.com/darkprince558/tether/internal/session"
	"github.com/darkprince558/tether/pkg/protocol"
)

// Sender is the slice of the session controller the synchronizer needs.
type Sender interface {
	Send(msgType, content string) error
}

// Collaborators are the platform-glue providers feeding the synchronizer.
// Any of them may be nil; the corresponding feature is then skipped.
type Collaborators struct {
	DeviceState   DeviceStateProvider
	Icons         AppIconProvider
	Notifications NotificationSource
	Clipboard     Clipboard
}

// Synchronizer pushes local device facts to the peer and applies inbound
// envelopes (clipboard, icon requests) to the local system. It owns no
// session state; it only talks through the Sender and the Mux.
type Synchronizer struct {
	sender Sender
	collab Collaborators
}

func New(sender Sender, collab Collaborators) *Synchronizer {
	return &Synchronizer{sender: sender, collab: collab}
}

// Attach registers the inbound handlers on the multiplexer. Call once,
// before the session connects.
func (s *Synchronizer) Attach(mux *session.Mux) {
	mux.Subscribe(protocol.TypeClipboard, s.handleClipboard)
	mux.Subscribe(protocol.TypeAppIconRequest, s.handleIconRequest)
}

// SyncAll is the initial broadcast fired when the channel opens: device
// state first, then the currently active notifications.
func (s *Synchronizer) SyncAll() {
	if s.collab.DeviceState != nil {
		if err := s.sendDeviceState(); err != nil {
			fmt.Printf("Device state sync failed: %v\n", err)
		}
	}
	if s.collab.Notifications != nil {
		if err := s.sendActiveNotifications(); err != nil {
			fmt.Printf("Notification sync failed: %v\n", err)
		}
	}
}

func (s *Synchronizer) sendDeviceState() error {
	state, err := s.collab.DeviceState.Snapshot()
	if err != nil {
		return fmt.Errorf("device state snapshot: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal device state: %w", err)
	}
	return s.sender.Send(protocol.TypeDeviceState, string(data))
}

func (s *Synchronizer) sendActiveNotifications() error {
	active, err := s.collab.Notifications.Active()
	if err != nil {
		return fmt.Errorf("enumerate notifications: %w", err)
	}
	for _, n := range active {
		if err := s.PushNotification(n); err != nil {
			return err
		}
	}
	return nil
}

// PushNotification forwards one posted notification to the peer.
func (s *Synchronizer) PushNotification(n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.sender.Send(protocol.TypeNotificationPosted, string(data))
}

// PushNotificationRemoved tells the peer a notification was dismissed.
func (s *Synchronizer) PushNotificationRemoved(r NotificationRemoved) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal notification removal: %w", err)
	}
	return s.sender.Send(protocol.TypeNotificationRemoved, string(data))
}

// PushClipboard sends the current local clipboard content to the peer.
func (s *Synchronizer) PushClipboard() error {
	if s.collab.Clipboard == nil {
		return nil
	}
	text, err := s.collab.Clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	return s.sender.Send(protocol.TypeClipboard, text)
}

// handleClipboard applies peer clipboard content to the local clipboard.
func (s *Synchronizer) handleClipboard(env protocol.Envelope) {
	if s.collab.Clipboard == nil {
		return
	}
	if err := s.collab.Clipboard.WriteAll(env.Content); err != nil {
		fmt.Printf("Clipboard write failed: %v\n", err)
	}
}

// handleIconRequest streams the installed-app manifest, one envelope per
// app. An empty request content means "send everything".
func (s *Synchronizer) handleIconRequest(env protocol.Envelope) {
	if s.collab.Icons == nil {
		return
	}
	if env.Content != "" && env.Content != "null" && env.Content != "[]" {
		// Partial refreshes are not supported; the peer re-requests all.
		return
	}

	apps, err := s.collab.Icons.InstalledApps()
	if err != nil {
		fmt.Printf("App enumeration failed: %v\n", err)
		return
	}
	for _, app := range apps {
		data, err := json.Marshal(app)
		if err != nil {
			fmt.Printf("Marshal app icon %s failed: %v\n", app.PackageName, err)
			continue
		}
		if err := s.sender.Send(protocol.TypeAppIconPackage, string(data)); err != nil {
			fmt.Printf("App icon send failed for %s: %v\n", app.PackageName, err)
			return
		}
	}
}
