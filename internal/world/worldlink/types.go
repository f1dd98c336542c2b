package worldlink

import (
	"errors"
	"time"
)

var ErrNotConnected = errors.New("worldlink: not connected")

type Config struct {
	URL         string
	AgentName   string
	ResumeToken string

	// CommandTimeout bounds one CMD round trip. Zero means 5s.
	CommandTimeout time.Duration
	// ReadTimeout drops a silent connection. Zero means 60s.
	ReadTimeout time.Duration
	// MaxBackoff caps the reconnect delay. Zero means 5s.
	MaxBackoff time.Duration
}

func (c Config) normalized() Config {
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	return c
}

type Status struct {
	Connected      bool      `json:"connected"`
	AgentID        string    `json:"agent_id,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	ResumeToken    string    `json:"resume_token,omitempty"`
	URL            string    `json:"url"`
	LastObsTick    uint64    `json:"last_obs_tick"`
	LoadedTiles    int       `json:"loaded_tiles"`
	PaletteDigest  string    `json:"palette_digest,omitempty"`
	LastConnected  time.Time `json:"last_connected_at,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	PendingResults int       `json:"pending_results"`
}
