package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "agent", cfg.Agent.Name)
	assert.Equal(t, 5*time.Second, cfg.World.CommandTimeout)
	assert.Equal(t, 4, cfg.Perception.TileRadius)
	assert.Equal(t, 8, cfg.Perception.VerticalRange)
	assert.Equal(t, 20, cfg.Perception.MaxBlocks)
	assert.Equal(t, time.Minute, cfg.Perception.RefreshInterval)
	assert.Equal(t, 10, cfg.Perception.MaxEntities)
	assert.Equal(t, 64.0, cfg.Perception.EntityRadius)
	assert.Equal(t, 3.0, cfg.Navigation.ArrivalThreshold)
	assert.Equal(t, 50, cfg.Memory.MaxPages)
	assert.Equal(t, 20, cfg.Memory.MaxMessages)
	assert.Equal(t, 10, cfg.Memory.MaxLocations)
	assert.Equal(t, 20, cfg.Memory.MaxContacts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultInstruction, cfg.Decision.Instruction)

	cc := cfg.Perception.Cache()
	assert.Equal(t, cfg.Perception.TileRadius, cc.TileRadius)
	assert.Equal(t, cfg.Perception.ShutdownTimeout, cc.ShutdownTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  name: Ada
perception:
  tile_radius: 2
  refresh_interval: 15s
log:
  format: json
`), 0o644))
	t.Setenv("VOXELAGENT_WORLD_URL", "ws://127.0.0.1:8080/v1/ws")

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Ada", cfg.Agent.Name)
	assert.Equal(t, 2, cfg.Perception.TileRadius)
	assert.Equal(t, 15*time.Second, cfg.Perception.RefreshInterval)
	assert.Equal(t, 8, cfg.Perception.VerticalRange, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "ws://127.0.0.1:8080/v1/ws", cfg.World.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("perception:\n  tile_radius: -1\n"), 0o644))
	_, _, err := Load(path)
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty name":      func(c *Config) { c.Agent.Name = " " },
		"spaced name":     func(c *Config) { c.Agent.Name = "two words" },
		"zero timeout":    func(c *Config) { c.World.CommandTimeout = 0 },
		"http url":        func(c *Config) { c.World.URL = "http://host" },
		"zero radius":     func(c *Config) { c.Perception.EntityRadius = 0 },
		"negative blocks": func(c *Config) { c.Perception.MaxBlocks = -1 },
		"zero threshold":  func(c *Config) { c.Navigation.ArrivalThreshold = 0 },
		"negative cycles": func(c *Config) { c.Decision.MaxCycles = -1 },
		"log format":      func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agent.yaml")
	want := NewDefaultConfig()
	want.Agent.Name = "Ada"
	want.Perception.RefreshInterval = 30 * time.Second
	want.Audit.RemoteToken = "secret"
	require.NoError(t, WriteFile(path, want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	got, _, err := Load(path)
	require.NoError(t, err)
	want.Audit.RemoteToken = ""
	assert.Equal(t, want, got)
}
