package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/darkprince558/tether/pkg/protocol"
)

// ViewDeviceID renders the pairing identity block
func ViewDeviceID(deviceID string) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		"This device's pairing id:",
		DeviceIDStyle.Render(deviceID),
	)
}

// ViewTimeline renders the chat history, local lines highlighted.
func ViewTimeline(timeline []protocol.Envelope, localSender string) string {
	if len(timeline) == 0 {
		return StatusStyle.Render("No messages yet.")
	}

	lines := make([]string, 0, len(timeline))
	for _, env := range timeline {
		label := SenderLabelStyle.Render(env.Sender)
		line := RemoteLineStyle.Render(env.Content)
		if env.Sender == localSender {
			line = LocalLineStyle.Render(env.Content)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
