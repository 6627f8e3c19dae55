package storage

import (
	"fmt"

	"reptimer/internal/core/model"

	"gopkg.in/yaml.v3"
)

type yamlSettings struct {
	DefaultToneID       string   `yaml:"default_tone"`
	DefaultVolume       *float64 `yaml:"default_volume"`
	DefaultRepeatCount  int      `yaml:"default_repeat_count"`
	DefaultDelaySeconds int      `yaml:"default_delay_seconds"`
	MaxSavedTimers      int      `yaml:"max_saved_timers"`
}

// LoadSettings reads app settings. If the file is missing or malformed,
// default settings are returned.
func (store *Store) LoadSettings() model.AppSettings {
	settings := model.DefaultSettings()
	rawData, ok := store.readFile(settingsFileName)
	if !ok {
		return settings
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		store.logger.Warn("parse settings yaml failed, using defaults", "error", err)
		return settings
	}

	applyYamlSettings(&settings, fileData)
	return settings.Normalize()
}

// SaveSettings writes app settings to YAML.
func (store *Store) SaveSettings(settings model.AppSettings) error {
	settings = settings.Normalize()
	volume := settings.DefaultVolume
	fileData := yamlSettings{
		DefaultToneID:       settings.DefaultToneID,
		DefaultVolume:       &volume,
		DefaultRepeatCount:  settings.DefaultRepeatCount,
		DefaultDelaySeconds: settings.DefaultDelaySeconds,
		MaxSavedTimers:      settings.MaxSavedTimers,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	return store.writeFile(settingsFileName, serialized)
}

func applyYamlSettings(settings *model.AppSettings, fileData yamlSettings) {
	if fileData.DefaultToneID != "" {
		settings.DefaultToneID = fileData.DefaultToneID
	}
	if fileData.DefaultVolume != nil {
		settings.DefaultVolume = *fileData.DefaultVolume
	}
	if fileData.DefaultRepeatCount != 0 {
		settings.DefaultRepeatCount = fileData.DefaultRepeatCount
	}
	settings.DefaultDelaySeconds = fileData.DefaultDelaySeconds
	if fileData.MaxSavedTimers != 0 {
		settings.MaxSavedTimers = fileData.MaxSavedTimers
	}
}
