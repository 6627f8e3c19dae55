package storage

import (
	"fmt"
	"strings"
	"time"

	"reptimer/internal/core/model"

	"gopkg.in/yaml.v3"
)

type yamlTimerFile struct {
	Timers []yamlTimer `yaml:"timers"`
}

type yamlTimer struct {
	ID              string    `yaml:"id"`
	Name            string    `yaml:"name"`
	DurationSeconds int       `yaml:"duration_seconds"`
	InfiniteRepeat  bool      `yaml:"infinite_repeat"`
	RepeatCount     int       `yaml:"repeat_count"`
	DelaySeconds    int       `yaml:"delay_seconds"`
	Tone            string    `yaml:"tone"`
	Volume          float64   `yaml:"volume"`
	CreatedAt       time.Time `yaml:"created_at"`
}

// LoadTimers reads saved presets. Missing or malformed files yield an
// empty list; entries without an id are skipped.
func (store *Store) LoadTimers() []model.TimerConfig {
	rawData, ok := store.readFile(timersFileName)
	if !ok {
		return nil
	}

	var fileData yamlTimerFile
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		store.logger.Warn("parse timers yaml failed, using empty list", "error", err)
		return nil
	}

	timers := make([]model.TimerConfig, 0, len(fileData.Timers))
	for i, entry := range fileData.Timers {
		if strings.TrimSpace(entry.ID) == "" {
			store.logger.Warn("skipping saved timer without id", "index", i)
			continue
		}
		timers = append(timers, entry.toModel())
	}
	return timers
}

// SaveTimers writes presets, keeping at most the configured cap.
func (store *Store) SaveTimers(timers []model.TimerConfig) error {
	limit := store.LoadSettings().MaxSavedTimers
	if len(timers) > limit {
		timers = timers[:limit]
	}

	fileData := yamlTimerFile{Timers: make([]yamlTimer, 0, len(timers))}
	for _, config := range timers {
		fileData.Timers = append(fileData.Timers, fromModel(config))
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal timers yaml: %w", err)
	}
	return store.writeFile(timersFileName, serialized)
}

// UpsertTimer replaces the preset with the same id, or prepends a new one.
func (store *Store) UpsertTimer(config model.TimerConfig) ([]model.TimerConfig, error) {
	config = config.Normalize()
	timers := store.LoadTimers()

	replaced := false
	for i := range timers {
		if timers[i].ID == config.ID {
			timers[i] = config
			replaced = true
			break
		}
	}
	if !replaced {
		timers = append([]model.TimerConfig{config}, timers...)
	}

	if err := store.SaveTimers(timers); err != nil {
		return nil, err
	}
	return store.LoadTimers(), nil
}

// DeleteTimer removes the preset with id.
func (store *Store) DeleteTimer(id string) error {
	timers := store.LoadTimers()
	for i := range timers {
		if timers[i].ID == id {
			return store.SaveTimers(append(timers[:i], timers[i+1:]...))
		}
	}
	return fmt.Errorf("delete timer %q: %w", id, ErrNotFound)
}

// FindTimer looks a preset up by id, then by case-insensitive name.
func (store *Store) FindTimer(key string) (model.TimerConfig, error) {
	timers := store.LoadTimers()
	for _, config := range timers {
		if config.ID == key {
			return config, nil
		}
	}
	for _, config := range timers {
		if strings.EqualFold(config.Name, key) {
			return config, nil
		}
	}
	return model.TimerConfig{}, fmt.Errorf("find timer %q: %w", key, ErrNotFound)
}

func (entry yamlTimer) toModel() model.TimerConfig {
	return model.TimerConfig{
		ID:              entry.ID,
		Name:            entry.Name,
		DurationSeconds: entry.DurationSeconds,
		InfiniteRepeat:  entry.InfiniteRepeat,
		RepeatCount:     entry.RepeatCount,
		DelaySeconds:    entry.DelaySeconds,
		ToneID:          entry.Tone,
		Volume:          entry.Volume,
		CreatedAt:       entry.CreatedAt,
	}.Normalize()
}

func fromModel(config model.TimerConfig) yamlTimer {
	return yamlTimer{
		ID:              config.ID,
		Name:            config.Name,
		DurationSeconds: config.DurationSeconds,
		InfiniteRepeat:  config.InfiniteRepeat,
		RepeatCount:     config.RepeatCount,
		DelaySeconds:    config.DelaySeconds,
		Tone:            config.ToneID,
		Volume:          config.Volume,
		CreatedAt:       config.CreatedAt.UTC(),
	}
}
