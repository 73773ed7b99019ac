package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gofrs/flock"
)

// Session events recorded to history.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventNegotiation  = "negotiation"
)

// maxEntries caps the history file; oldest entries are pruned past it.
const maxEntries = 1000

// LogEntry represents a single session event
type LogEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Event        string    `json:"event"` // "connected", "disconnected" or "negotiation"
	Role         string    `json:"role"`  // "mobile" or "desktop"
	PeerDeviceID string    `json:"peer_device_id,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
}

var logPathOverride string

// SetLogPathOverride redirects history to an explicit file (tests).
// Pass "" to restore the default location.
func SetLogPathOverride(path string) {
	logPathOverride = path
}

// GetLogPath returns the path to the history log file
func GetLogPath() (string, error) {
	if logPathOverride != "" {
		return logPathOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".tether")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.jsonl"), nil
}

// WriteEntry appends a log entry to the history file. Concurrent writers
// (e.g. two sessions on the same machine) are serialized with a file lock.
func WriteEntry(entry LogEntry) error {
	path, err := GetLogPath()
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = petname.Generate(2, "-")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock history file: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return pruneLocked(path)
}

// pruneLocked rewrites the file keeping only the newest maxEntries lines.
// Caller must hold the file lock.
func pruneLocked(path string) error {
	entries, err := loadAll(path)
	if err != nil {
		return err
	}
	if len(entries) <= maxEntries {
		return nil
	}

	// entries are sorted newest first; keep the head.
	keep := entries[:maxEntries]
	// Rewrite oldest-first so appends stay chronological.
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i := len(keep) - 1; i >= 0; i-- {
		data, err := json.Marshal(keep[i])
		if err != nil {
			continue
		}
		w.Write(append(data, '\n'))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadAll(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // Skip malformed lines
		}
		entries = append(entries, entry)
	}

	// Sort by timestamp descending (newest first)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, scanner.Err()
}

// LoadHistory reads all log entries from the history file, newest first.
func LoadHistory() ([]LogEntry, error) {
	path, err := GetLogPath()
	if err != nil {
		return nil, err
	}
	return loadAll(path)
}

// ClearHistory removes the history file.
func ClearHistory() error {
	path, err := GetLogPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// --- Display Logic ---

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	eventConnectedStr    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Render("CONNECTED")
	eventDisconnectedStr = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render("DISCONNECTED")
	eventNegotiationStr  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("NEGOTIATION")
)

func ShowHistory() {
	entries, err := LoadHistory()
	if err != nil {
		fmt.Printf("Error loading history: %v\n", err)
		return
	}

	if len(entries) == 0 {
		fmt.Println("No session history found.")
		return
	}

	// DATE | EVENT | ROLE | PEER | TIME | DETAIL

	fmt.Println("")
	fmt.Printf("%s %s %s %s %s %s\n",
		headerStyle.Width(20).Render("DATE"),
		headerStyle.Width(14).Render("EVENT"),
		headerStyle.Width(9).Render("ROLE"),
		headerStyle.Width(20).Render("PEER"),
		headerStyle.Width(8).Render("TIME"),
		headerStyle.Width(30).Render("DETAIL"),
	)
	fmt.Println("")

	for _, e := range entries {
		ts := e.Timestamp.Format("2006-01-02 15:04")

		event := eventNegotiationStr
		switch e.Event {
		case EventConnected:
			event = eventConnectedStr
		case EventDisconnected:
			event = eventDisconnectedStr
		}

		peer := e.PeerDeviceID
		if len(peer) > 18 {
			peer = peer[:15] + "..."
		}
		duration := ""
		if e.Duration > 0 {
			duration = fmt.Sprintf("%.1fs", e.Duration)
		}
		detail := e.Detail
		if len(detail) > 28 {
			detail = detail[:25] + "..."
		}

		fmt.Printf("%s %s %s %s %s %s\n",
			rowStyle.Width(20).Render(ts),
			rowStyle.Width(14).Render(event),
			rowStyle.Width(9).Render(e.Role),
			rowStyle.Width(20).Render(peer),
			rowStyle.Width(8).Render(duration),
			rowStyle.Width(30).Render(detail),
		)
	}
	fmt.Println("")
}
