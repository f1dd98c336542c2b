// Package config loads the agent configuration from YAML through viper, with
// environment overrides and hot reload of the perception block.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"voxelagent.ai/internal/memory"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/snapshot"
)

var ErrInvalid = errors.New("config: invalid")

// EnvPrefix prefixes environment overrides, e.g. VOXELAGENT_WORLD_URL.
const EnvPrefix = "VOXELAGENT"

type Config struct {
	Agent      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	World      WorldConfig      `mapstructure:"world" yaml:"world"`
	Perception PerceptionConfig `mapstructure:"perception" yaml:"perception"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Decision   DecisionConfig   `mapstructure:"decision" yaml:"decision"`
	Memory     MemoryConfig     `mapstructure:"memory" yaml:"memory"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
	Resources  ResourcesConfig  `mapstructure:"resources" yaml:"resources"`
}

type AgentConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

type WorldConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	ResumeToken    string        `mapstructure:"resume_token" yaml:"-"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// PerceptionConfig is the hot-reloadable block.
type PerceptionConfig struct {
	TileRadius      int           `mapstructure:"tile_radius" yaml:"tile_radius"`
	VerticalRange   int           `mapstructure:"vertical_range" yaml:"vertical_range"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	MaxBlocks       int           `mapstructure:"max_blocks" yaml:"max_blocks"`
	MaxEntities     int           `mapstructure:"max_entities" yaml:"max_entities"`
	EntityRadius    float64       `mapstructure:"entity_radius" yaml:"entity_radius"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func (p PerceptionConfig) Cache() perception.CacheConfig {
	return perception.CacheConfig{
		TileRadius:      p.TileRadius,
		VerticalRange:   p.VerticalRange,
		MaxBlocks:       p.MaxBlocks,
		RefreshInterval: p.RefreshInterval,
		ShutdownTimeout: p.ShutdownTimeout,
	}
}

func (p PerceptionConfig) Snapshot() snapshot.Limits {
	return snapshot.Limits{MaxEntities: p.MaxEntities, EntityRadius: p.EntityRadius}
}

type NavigationConfig struct {
	ArrivalThreshold float64 `mapstructure:"arrival_threshold" yaml:"arrival_threshold"`
}

type DecisionConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	Instruction string        `mapstructure:"instruction" yaml:"instruction"`
	// MaxCycles stops the loop after that many decisions; zero runs until
	// canceled.
	MaxCycles int `mapstructure:"max_cycles" yaml:"max_cycles"`
}

type MemoryConfig struct {
	MaxPages     int `mapstructure:"max_pages" yaml:"max_pages"`
	MaxMessages  int `mapstructure:"max_messages" yaml:"max_messages"`
	MaxLocations int `mapstructure:"max_locations" yaml:"max_locations"`
	MaxContacts  int `mapstructure:"max_contacts" yaml:"max_contacts"`
}

func (m MemoryConfig) Limits() memory.Limits {
	return memory.Limits{
		MaxPages:     m.MaxPages,
		MaxMessages:  m.MaxMessages,
		MaxLocations: m.MaxLocations,
		MaxContacts:  m.MaxContacts,
	}
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type AuditConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	IndexPath   string `mapstructure:"index_path" yaml:"index_path"`
	RemoteURL   string `mapstructure:"remote_url" yaml:"remote_url"`
	RemoteToken string `mapstructure:"remote_token" yaml:"-"`
}

type ResourcesConfig struct {
	Overrides string `mapstructure:"overrides" yaml:"overrides"`
}

const DefaultInstruction = `You control an agent in a voxel world. Read the context and reply with JSON:
{"thought": "...", "action": ["<phrase>", ...], "message": "<optional chat line>"}
Use "idle" when nothing needs doing.`

// NewDefaultConfig returns the configuration with every default applied.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("agent.name", "agent")

	v.SetDefault("world.url", "")
	v.SetDefault("world.resume_token", "")
	v.SetDefault("world.command_timeout", 5*time.Second)

	pc := perception.DefaultCacheConfig()
	v.SetDefault("perception.tile_radius", pc.TileRadius)
	v.SetDefault("perception.vertical_range", pc.VerticalRange)
	v.SetDefault("perception.refresh_interval", pc.RefreshInterval)
	v.SetDefault("perception.max_blocks", pc.MaxBlocks)
	sl := snapshot.DefaultLimits()
	v.SetDefault("perception.max_entities", sl.MaxEntities)
	v.SetDefault("perception.entity_radius", sl.EntityRadius)
	v.SetDefault("perception.shutdown_timeout", pc.ShutdownTimeout)

	v.SetDefault("navigation.arrival_threshold", 3.0)

	v.SetDefault("decision.min_interval", 2*time.Second)
	v.SetDefault("decision.instruction", DefaultInstruction)
	v.SetDefault("decision.max_cycles", 0)

	ml := memory.DefaultLimits()
	v.SetDefault("memory.max_pages", ml.MaxPages)
	v.SetDefault("memory.max_messages", ml.MaxMessages)
	v.SetDefault("memory.max_locations", ml.MaxLocations)
	v.SetDefault("memory.max_contacts", ml.MaxContacts)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("audit.dir", "")
	v.SetDefault("audit.index_path", "")
	v.SetDefault("audit.remote_url", "")
	v.SetDefault("audit.remote_token", "")

	v.SetDefault("resources.overrides", "")
}

// NewViper prepares a viper instance for path (which may be empty) with
// defaults and environment overrides.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads path (if non-empty), applies environment overrides and validates
// the result. The returned viper instance can be passed to Watch.
func Load(path string) (*Config, *viper.Viper, error) {
	v := NewViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and required combinations.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	switch {
	case strings.TrimSpace(c.Agent.Name) == "":
		return bad("agent.name is required")
	case strings.ContainsAny(c.Agent.Name, " \t\n"):
		return bad("agent.name %q must not contain whitespace", c.Agent.Name)
	case c.World.CommandTimeout <= 0:
		return bad("world.command_timeout must be positive")
	case c.Perception.MaxEntities < 0:
		return bad("perception.max_entities must be >= 0")
	case c.Perception.EntityRadius <= 0:
		return bad("perception.entity_radius must be positive")
	case c.Navigation.ArrivalThreshold <= 0:
		return bad("navigation.arrival_threshold must be positive")
	case c.Decision.MinInterval < 0:
		return bad("decision.min_interval must be >= 0")
	case c.Decision.MaxCycles < 0:
		return bad("decision.max_cycles must be >= 0")
	case c.Memory.MaxPages < 0 || c.Memory.MaxMessages < 0 ||
		c.Memory.MaxLocations < 0 || c.Memory.MaxContacts < 0:
		return bad("memory limits must be >= 0")
	}
	if err := c.Perception.Cache().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return bad("log.format %q must be console or json", c.Log.Format)
	}
	if c.World.URL != "" && !strings.HasPrefix(c.World.URL, "ws://") && !strings.HasPrefix(c.World.URL, "wss://") {
		return bad("world.url %q must be a ws:// or wss:// url", c.World.URL)
	}
	return nil
}

// Watch re-decodes the file whenever it changes and hands valid results to
// onChange. Invalid edits are logged and ignored, keeping the last good
// configuration in effect.
func Watch(v *viper.Viper, log *zap.Logger, onChange func(*Config)) {
	if log == nil {
		log = zap.NewNop()
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("config reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		onChange(cfg)
	})
	v.WatchConfig()
}

// WriteFile serializes cfg as YAML. Secrets are never written.
func WriteFile(path string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
