package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/darkprince558/tether/internal/session"
	"github.com/darkprince558/tether/pkg/protocol"
)

// Messages
type StatusMsg string
type ErrorMsg error

// SessionStateMsg carries a session state transition into the UI.
type SessionStateMsg session.State

// EnvelopeMsg is an inbound envelope to render on the timeline.
type EnvelopeMsg protocol.Envelope

// SendFunc submits an outbound chat line; wired to the session controller.
type SendFunc func(text string) error

type Model struct {
	Role      string
	DeviceID  string
	State     session.State
	Spinner   spinner.Model
	Input     textinput.Model
	Timeline  []protocol.Envelope
	Status    string
	Send      SendFunc
	Err       error
	Exit      bool
	maxLines  int
}

func NewModel(role, deviceID string, send SendFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.CharLimit = 512
	input.Width = 50
	input.Focus()

	return Model{
		Role:     role,
		DeviceID: deviceID,
		State:    session.StateIdle,
		Spinner:  s,
		Input:    input,
		Send:     send,
		Status:   "Waiting for peer...",
		maxLines: 15,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Exit = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.Input.Value())
			if text != "" && m.State == session.StateConnected && m.Send != nil {
				if err := m.Send(text); err != nil {
					m.Status = fmt.Sprintf("Send failed: %v", err)
				} else {
					m.Timeline = appendCapped(m.Timeline, protocol.NewEnvelope(
						protocol.TypeChat, text, localSender(m.Role)), m.maxLines)
					m.Input.Reset()
				}
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.Status = string(msg)

	case SessionStateMsg:
		m.State = session.State(msg)
		switch m.State {
		case session.StateNegotiating:
			m.Status = "Negotiating with peer..."
		case session.StateConnected:
			m.Status = "Connected"
			m.Timeline = nil
		case session.StateDisconnected:
			m.Status = "Peer disconnected"
			m.Timeline = nil
		case session.StateIdle:
			m.Status = "Waiting for peer..."
		}

	case EnvelopeMsg:
		env := protocol.Envelope(msg)
		if env.Type == protocol.TypeChat {
			m.Timeline = appendCapped(m.Timeline, env, m.maxLines)
		}

	case ErrorMsg:
		m.Err = msg
		return m, tea.Quit
	}

	// Cursor blink and other component messages pass through to the input.
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func localSender(role string) string {
	if role == protocol.SenderDesktop {
		return protocol.SenderDesktop
	}
	return protocol.SenderMobile
}

func appendCapped(timeline []protocol.Envelope, env protocol.Envelope, max int) []protocol.Envelope {
	timeline = append(timeline, env)
	if len(timeline) > max {
		timeline = timeline[len(timeline)-max:]
	}
	return timeline
}

func (m Model) View() string {
	if m.Err != nil {
		return ContainerStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				ErrorStyle.Render("Error Occurred"),
				fmt.Sprintf("%v", m.Err),
			),
		)
	}

	header := TitleStyle.Render("TETHER")
	identity := ViewDeviceID(m.DeviceID)

	var body string
	switch m.State {
	case session.StateIdle, session.StateNegotiating, session.StateDisconnected:
		status := StatusStyle.Render(fmt.Sprintf("%s %s", m.Spinner.View(), m.Status))
		body = lipgloss.JoinVertical(lipgloss.Center, identity, status)

	case session.StateConnected:
		badge := ConnectedStyle.Render("● " + m.Status)
		timeline := ViewTimeline(m.Timeline, localSender(m.Role))
		body = lipgloss.JoinVertical(lipgloss.Left,
			badge,
			" ",
			timeline,
			" ",
			m.Input.View(),
		)
	}

	return ContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, " ", body))
}
