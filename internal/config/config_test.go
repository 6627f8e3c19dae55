package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reptimerd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/reptimer
state_ws:
  listen_addr: 127.0.0.1:9090
logging:
  level: debug
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/reptimer" || cfg.StateWS.ListenAddr != "127.0.0.1:9090" || cfg.Logging.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.StateWS.Path != "/ws/state" || cfg.StateWS.SendBuf != 64 || !cfg.Audio.Enabled {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigFileRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "logging:\n  levle: debug\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfigFileRejectsTrailingDocument(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n---\nlogging:\n  level: debug\n")
	_, err := LoadConfigFile(path)
	if err == nil || !strings.Contains(err.Error(), "trailing document") {
		t.Fatalf("err = %v, want trailing document error", err)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFlagOverridesApply(t *testing.T) {
	cfg := DefaultConfig()
	dir := "/srv/reptimer"
	listen := ":8088"
	level := "warn"
	off := true

	FlagOverrides{DataDir: &dir, WSListen: &listen, LogLevel: &level, AudioOff: &off}.Apply(&cfg)

	if cfg.DataDir != dir || cfg.StateWS.ListenAddr != listen || cfg.Logging.Level != level || cfg.Audio.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	untouched := DefaultConfig()
	FlagOverrides{}.Apply(&untouched)
	if untouched != DefaultConfig() {
		t.Fatalf("empty overrides changed config: %+v", untouched)
	}
	FlagOverrides{}.Apply(nil)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"relative path", func(c *Config) { c.StateWS.ListenAddr = ":1"; c.StateWS.Path = "ws" }, "state_ws.path"},
		{"send buf", func(c *Config) { c.StateWS.ListenAddr = ":1"; c.StateWS.SendBuf = 0 }, "state_ws.send_buf"},
		{"broadcast buf", func(c *Config) { c.StateWS.ListenAddr = ":1"; c.StateWS.BroadcastBuf = -1 }, "state_ws.broadcast_buf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}

	disabled := DefaultConfig()
	disabled.StateWS.SendBuf = 0
	if err := disabled.Validate(); err != nil {
		t.Fatalf("ws buffers checked while disabled: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cases := map[string]string{
		"":             "",
		"/abs":         "/abs",
		"~":            home,
		"~/reptimer":   filepath.Join(home, "reptimer"),
		"~other/thing": "~other/thing",
	}
	for in, want := range cases {
		if got := ExpandPath(in); got != want {
			t.Fatalf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
