package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when a field is missing from the config file.
const (
	DefaultStunServer     = "stun:stun.l.google.com:19302"
	DefaultDebounceMillis = 2000
	DefaultOfferTimeout   = 90 * time.Second
)

// Config holds persistent user settings
type Config struct {
	// Relay / identity
	RelayEndpoint string `json:"relay_endpoint,omitempty"` // AWS IoT endpoint hostname
	RelayRegion   string `json:"relay_region,omitempty"`
	RegistryURL   string `json:"registry_url,omitempty"` // device registry API base URL
	LoginToken    string `json:"login_token,omitempty"`
	DeviceToken   string `json:"device_token,omitempty"`
	Role          string `json:"role,omitempty"` // "mobile" or "desktop"

	// ICE servers. TURN credentials live here, never in the binary.
	StunServer   string `json:"stun_server,omitempty"`
	TurnServer   string `json:"turn_server,omitempty"`
	TurnUsername string `json:"turn_username,omitempty"`
	TurnPassword string `json:"turn_password,omitempty"`

	// Negotiation tuning
	DebounceMillis      int `json:"debounce_millis,omitempty"`
	OfferTimeoutSeconds int `json:"offer_timeout_seconds,omitempty"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".tether")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the config file and fills defaults for missing fields.
// Environment variables TETHER_LOGIN_TOKEN and TETHER_DEVICE_TOKEN
// override the stored credentials.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Missing file means default empty config
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if v := os.Getenv("TETHER_LOGIN_TOKEN"); v != "" {
		cfg.LoginToken = v
	}
	if v := os.Getenv("TETHER_DEVICE_TOKEN"); v != "" {
		cfg.DeviceToken = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StunServer == "" {
		c.StunServer = DefaultStunServer
	}
	if c.DebounceMillis <= 0 {
		c.DebounceMillis = DefaultDebounceMillis
	}
	if c.Role == "" {
		c.Role = "mobile"
	}
}

// DebounceWindow returns the answer debounce as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// OfferTimeout returns how long an unanswered negotiation may stay open.
func (c *Config) OfferTimeout() time.Duration {
	if c.OfferTimeoutSeconds <= 0 {
		return DefaultOfferTimeout
	}
	return time.Duration(c.OfferTimeoutSeconds) * time.Second
}

// Save writes the config file
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
