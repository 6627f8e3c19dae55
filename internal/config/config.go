package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reptimer/internal/logging"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for reptimerd.
// Defaults, file values and flag overrides are layered in that order, then
// Validate is called so the rest of the daemon can assume a well-formed config.
type Config struct {
	// DataDir holds timers.yaml and settings.yaml. Empty means the user config dir.
	DataDir string `yaml:"data_dir"`

	StateWS StateWSConfig `yaml:"state_ws"`
	Logging LoggingConfig `yaml:"logging"`
	Audio   AudioConfig   `yaml:"audio"`
}

// StateWSConfig controls the websocket snapshot stream. An empty
// listen address disables it.
type StateWSConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	Path         string `yaml:"path"`
	SendBuf      int    `yaml:"send_buf"`
	BroadcastBuf int    `yaml:"broadcast_buf"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		StateWS: StateWSConfig{
			Path:         "/ws/state",
			SendBuf:      64,
			BroadcastBuf: 128,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Audio: AudioConfig{
			Enabled: true,
		},
	}
}

// LoadConfigFile reads a YAML file over DefaultConfig. Unknown fields and
// trailing documents are rejected.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries flag values that were explicitly set.
// A nil pointer leaves the config untouched.
type FlagOverrides struct {
	DataDir  *string
	WSListen *string
	LogLevel *string
	AudioOff *bool
}

func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DataDir != nil {
		cfg.DataDir = *o.DataDir
	}
	if o.WSListen != nil {
		cfg.StateWS.ListenAddr = *o.WSListen
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.AudioOff != nil && *o.AudioOff {
		cfg.Audio.Enabled = false
	}
}

// Validate checks invariants after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	c.DataDir = ExpandPath(strings.TrimSpace(c.DataDir))

	if c.StateWS.ListenAddr != "" {
		if !strings.HasPrefix(c.StateWS.Path, "/") {
			return errors.New("state_ws.path must start with /")
		}
		if c.StateWS.SendBuf <= 0 {
			return errors.New("state_ws.send_buf must be > 0")
		}
		if c.StateWS.BroadcastBuf <= 0 {
			return errors.New("state_ws.broadcast_buf must be > 0")
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ExpandPath expands a leading "~" using the user's home directory.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
