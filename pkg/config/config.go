// Package config loads client tunables from a TOML file, falling back to
// defaults when the file or individual keys are missing.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds every tunable the sync and realtime layers read.
type Config struct {
	// BaseURL is the REST endpoint of the backend.
	BaseURL string

	// RealtimeURL is the websocket endpoint of the backend.
	RealtimeURL string

	// StorePath is the on-device database file. Empty means an in-memory
	// store, which loses data when the process exits.
	StorePath string

	// TripRetention is how many trips the local store keeps when evicting
	// on quota exhaustion.
	TripRetention int

	// ReconnectAttempts bounds automatic reconnection after an
	// unintentional disconnect.
	ReconnectAttempts int

	// ReconnectInterval is the base delay between reconnect attempts.
	ReconnectInterval time.Duration

	// CursorThrottle is the minimum gap between outbound cursor
	// broadcasts.
	CursorThrottle time.Duration

	// CursorStaleAfter is how long a collaborator cursor may go
	// unrefreshed before the sweep removes it.
	CursorStaleAfter time.Duration

	// SweepInterval is how often the staleness sweep runs.
	SweepInterval time.Duration
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BaseURL:           "https://api.wanderplan.app",
		RealtimeURL:       "wss://api.wanderplan.app/realtime",
		TripRetention:     10,
		ReconnectAttempts: 5,
		ReconnectInterval: 2 * time.Second,
		CursorThrottle:    100 * time.Millisecond,
		CursorStaleAfter:  5 * time.Second,
		SweepInterval:     time.Second,
	}
}

// Load parses the TOML file at path on top of Default. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var raw struct {
		BaseURL             string `toml:"base_url"`
		RealtimeURL         string `toml:"realtime_url"`
		StorePath           string `toml:"store_path"`
		TripRetention       int    `toml:"trip_retention"`
		ReconnectAttempts   int    `toml:"reconnect_attempts"`
		ReconnectIntervalMS int    `toml:"reconnect_interval_ms"`
		CursorThrottleMS    int    `toml:"cursor_throttle_ms"`
		CursorStaleAfterMS  int    `toml:"cursor_stale_after_ms"`
		SweepIntervalMS     int    `toml:"sweep_interval_ms"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.BaseURL != "" {
		cfg.BaseURL = raw.BaseURL
	}
	if raw.RealtimeURL != "" {
		cfg.RealtimeURL = raw.RealtimeURL
	}
	if raw.StorePath != "" {
		cfg.StorePath = raw.StorePath
	}
	if raw.TripRetention > 0 {
		cfg.TripRetention = raw.TripRetention
	}
	if raw.ReconnectAttempts > 0 {
		cfg.ReconnectAttempts = raw.ReconnectAttempts
	}
	if raw.ReconnectIntervalMS > 0 {
		cfg.ReconnectInterval = time.Duration(raw.ReconnectIntervalMS) * time.Millisecond
	}
	if raw.CursorThrottleMS > 0 {
		cfg.CursorThrottle = time.Duration(raw.CursorThrottleMS) * time.Millisecond
	}
	if raw.CursorStaleAfterMS > 0 {
		cfg.CursorStaleAfter = time.Duration(raw.CursorStaleAfterMS) * time.Millisecond
	}
	if raw.SweepIntervalMS > 0 {
		cfg.SweepInterval = time.Duration(raw.SweepIntervalMS) * time.Millisecond
	}

	return cfg, nil
}
