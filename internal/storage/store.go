package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	settingsFileName = "settings.yaml"
	timersFileName   = "timers.yaml"
)

// ErrNotFound is returned when a timer preset does not exist.
var ErrNotFound = errors.New("timer not found")

// Store persists timer presets and app settings as YAML files in one directory.
// Loads never fail: missing or malformed files yield defaults.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// DefaultDir resolves the per-user data directory for appName.
func DefaultDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// Dir returns the directory backing the store.
func (store *Store) Dir() string {
	return store.dir
}

func (store *Store) path(name string) string {
	return filepath.Join(store.dir, name)
}

func (store *Store) readFile(name string) ([]byte, bool) {
	rawData, err := os.ReadFile(store.path(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			store.logger.Warn("read store file failed, using defaults", "file", name, "error", err)
		}
		return nil, false
	}
	return rawData, true
}

// writeFile replaces name atomically via a temp file in the same directory.
func (store *Store) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(store.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(store.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, store.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
