package main

import (
	"log"
	"time"

	"reptimer/internal/audio"
	"reptimer/internal/core/model"
	"reptimer/internal/core/timekeeper"
	"reptimer/internal/core/tone"
	"reptimer/internal/logging"
	"reptimer/internal/platform"
	"reptimer/internal/storage"
	"reptimer/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const appName = "reptimer"

func main() {
	lock, err := platform.LockInstance(appName)
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = lock.Release()
	}()

	logger := logging.New(logging.LevelInfo)

	dataDir, err := storage.DefaultDir(appName)
	if err != nil {
		log.Printf("data dir: %v", err)
		return
	}
	store := storage.NewStore(dataDir, logger)
	settings := store.LoadSettings()
	presets := store.LoadTimers()
	if len(presets) == 0 {
		presets = seedPresets(store, settings)
	}

	player := audio.NewPlayer(logger)
	keeper := timekeeper.New(timekeeper.Options{
		PlayTone: audio.ToneHook(player),
		Logger:   logger,
	})

	fyneApp := app.NewWithID("com.reptimer.app")
	fyneApp.SetIcon(theme.HistoryIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow("RepTimer")
	trayWindow.SetContent(widget.NewLabel("RepTimer is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	trayManager := tray.New(desktopApp, tone.IDs(), tray.Callbacks{
		OnStartPreset: func(config model.TimerConfig) {
			keeper.Start(config)
		},
		OnTogglePause: func() {
			if keeper.Phase() == timekeeper.PhasePaused {
				keeper.Resume()
			} else {
				keeper.Pause()
			}
		},
		OnStop: func() {
			keeper.Stop()
			player.Stop()
		},
		OnPreview: func(toneID string) {
			if err := player.Preview(toneID, settings.DefaultVolume); err != nil {
				logger.Warn("tone preview failed", "tone", toneID, "error", err)
			}
		},
		OnQuit: func() {
			keeper.Close()
			player.Stop()
			fyneApp.Quit()
		},
	})
	trayManager.SetPresets(presets)
	desktopApp.SetSystemTrayIcon(theme.HistoryIcon())

	events := keeper.Subscribe()
	go func() {
		for state := range events.Events() {
			fyne.Do(func() {
				trayManager.Update(state)
				desktopApp.SetSystemTrayIcon(phaseIcon(state.Phase.Kind()))
			})
		}
	}()

	fyneApp.Run()
	keeper.Close()
}

func phaseIcon(kind timekeeper.PhaseKind) fyne.Resource {
	switch kind {
	case timekeeper.PhaseRunning, timekeeper.PhaseDelay:
		return theme.MediaPlayIcon()
	case timekeeper.PhasePaused:
		return theme.MediaPauseIcon()
	default:
		return theme.HistoryIcon()
	}
}

// seedPresets stores a starter set on first launch.
func seedPresets(store *storage.Store, settings model.AppSettings) []model.TimerConfig {
	now := time.Now()
	starters := []model.TimerSpec{
		settings.NewTimerSpec("Pomodoro", 25*60),
		{Name: "Plank", DurationSeconds: 60, RepeatCount: 3, DelaySeconds: 30, ToneID: "bell", Volume: settings.DefaultVolume},
		{Name: "Intervals", DurationSeconds: 40, InfiniteRepeat: true, DelaySeconds: 20, ToneID: "digital", Volume: settings.DefaultVolume},
	}

	presets := make([]model.TimerConfig, 0, len(starters))
	for _, spec := range starters {
		presets = append(presets, model.NewTimerConfig(spec, now))
	}
	if err := store.SaveTimers(presets); err != nil {
		log.Printf("seed presets: %v", err)
		return presets
	}
	return store.LoadTimers()
}
