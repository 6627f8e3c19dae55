package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultToneID is used when a config or settings value names no tone.
	DefaultToneID = "beep"

	MinDurationSeconds = 1
	MinRepeatCount     = 1
)

// TimerConfig describes one countdown preset.
// RepeatCount is only meaningful when InfiniteRepeat is false.
type TimerConfig struct {
	ID              string
	Name            string
	DurationSeconds int
	InfiniteRepeat  bool
	RepeatCount     int
	DelaySeconds    int
	ToneID          string
	Volume          float64
	CreatedAt       time.Time
}

// TimerSpec holds the user-editable fields of a TimerConfig.
type TimerSpec struct {
	Name            string
	DurationSeconds int
	InfiniteRepeat  bool
	RepeatCount     int
	DelaySeconds    int
	ToneID          string
	Volume          float64
}

// NewTimerConfig builds a normalized config with a fresh identifier.
func NewTimerConfig(spec TimerSpec, now time.Time) TimerConfig {
	config := TimerConfig{
		ID:              uuid.NewString(),
		Name:            spec.Name,
		DurationSeconds: spec.DurationSeconds,
		InfiniteRepeat:  spec.InfiniteRepeat,
		RepeatCount:     spec.RepeatCount,
		DelaySeconds:    spec.DelaySeconds,
		ToneID:          spec.ToneID,
		Volume:          spec.Volume,
		CreatedAt:       now,
	}
	return config.Normalize()
}

// Normalize clamps out-of-range values instead of rejecting them.
func (config TimerConfig) Normalize() TimerConfig {
	if config.DurationSeconds < MinDurationSeconds {
		config.DurationSeconds = MinDurationSeconds
	}
	if config.RepeatCount < MinRepeatCount {
		config.RepeatCount = MinRepeatCount
	}
	if config.DelaySeconds < 0 {
		config.DelaySeconds = 0
	}
	config.Volume = ClampVolume(config.Volume)
	config.ToneID = strings.TrimSpace(config.ToneID)
	if config.ToneID == "" {
		config.ToneID = DefaultToneID
	}
	config.Name = strings.TrimSpace(config.Name)
	return config
}

// TotalReps returns the repetition total reported in snapshots, 0 meaning infinite.
func (config TimerConfig) TotalReps() int {
	if config.InfiniteRepeat {
		return 0
	}
	return config.RepeatCount
}

// Duration returns the countdown window as a time.Duration.
func (config TimerConfig) Duration() time.Duration {
	return time.Duration(config.DurationSeconds) * time.Second
}

// ClampVolume limits volume to [0, 1].
func ClampVolume(volume float64) float64 {
	if math.IsNaN(volume) || volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
