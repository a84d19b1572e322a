package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/pkg/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wanderplan.toml")
	content := `
base_url = "https://staging.wanderplan.app"
trip_retention = 25
cursor_throttle_ms = 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://staging.wanderplan.app", cfg.BaseURL)
	require.Equal(t, 25, cfg.TripRetention)
	require.Equal(t, 250*time.Millisecond, cfg.CursorThrottle)
	// untouched keys keep defaults
	require.Equal(t, config.Default().RealtimeURL, cfg.RealtimeURL)
	require.Equal(t, config.Default().ReconnectAttempts, cfg.ReconnectAttempts)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_url = ["), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
