package model

const (
	DefaultMaxSavedTimers = 20
	MinMaxSavedTimers     = 1
	MaxMaxSavedTimers     = 100
)

// AppSettings holds application-wide preferences and the defaults
// offered for new timers.
type AppSettings struct {
	DefaultToneID       string
	DefaultVolume       float64
	DefaultRepeatCount  int
	DefaultDelaySeconds int
	MaxSavedTimers      int
}

// DefaultSettings returns default settings for reptimer.
func DefaultSettings() AppSettings {
	return AppSettings{
		DefaultToneID:       DefaultToneID,
		DefaultVolume:       0.8,
		DefaultRepeatCount:  1,
		DefaultDelaySeconds: 0,
		MaxSavedTimers:      DefaultMaxSavedTimers,
	}
}

// Normalize clamps every field into its valid range.
func (settings AppSettings) Normalize() AppSettings {
	if settings.DefaultToneID == "" {
		settings.DefaultToneID = DefaultToneID
	}
	settings.DefaultVolume = ClampVolume(settings.DefaultVolume)
	if settings.DefaultRepeatCount < MinRepeatCount {
		settings.DefaultRepeatCount = MinRepeatCount
	}
	if settings.DefaultDelaySeconds < 0 {
		settings.DefaultDelaySeconds = 0
	}
	settings.MaxSavedTimers = ClampMaxSavedTimers(settings.MaxSavedTimers)
	return settings
}

// ClampMaxSavedTimers limits the preset cap to [MinMaxSavedTimers, MaxMaxSavedTimers].
func ClampMaxSavedTimers(limit int) int {
	if limit < MinMaxSavedTimers {
		return MinMaxSavedTimers
	}
	if limit > MaxMaxSavedTimers {
		return MaxMaxSavedTimers
	}
	return limit
}

// NewTimerSpec returns a spec prefilled from the settings defaults.
func (settings AppSettings) NewTimerSpec(name string, durationSeconds int) TimerSpec {
	settings = settings.Normalize()
	return TimerSpec{
		Name:            name,
		DurationSeconds: durationSeconds,
		RepeatCount:     settings.DefaultRepeatCount,
		DelaySeconds:    settings.DefaultDelaySeconds,
		ToneID:          settings.DefaultToneID,
		Volume:          settings.DefaultVolume,
	}
}
