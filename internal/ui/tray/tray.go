package tray

import (
	"fmt"
	"strconv"

	"reptimer/internal/core/model"
	"reptimer/internal/core/timekeeper"

	"fyne.io/fyne/v2"
)

const menuTitle = "RepTimer"

// MenuHost is the part of desktop.App the tray needs.
type MenuHost interface {
	SetSystemTrayMenu(menu *fyne.Menu)
}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnStartPreset func(model.TimerConfig)
	OnTogglePause func()
	OnStop        func()
	OnPreview     func(toneID string)
	OnQuit        func()
}

// Manager handles system tray state. Methods must run on the fyne thread.
type Manager struct {
	host        MenuHost
	callbacks   Callbacks
	statusItem  *fyne.MenuItem
	presetsItem *fyne.MenuItem
	previewItem *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	stopItem    *fyne.MenuItem
	quitItem    *fyne.MenuItem
}

// New creates a tray manager offering the given tones for preview.
func New(host MenuHost, toneIDs []string, callbacks Callbacks) *Manager {
	manager := &Manager{
		host:      host,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true

	manager.presetsItem = fyne.NewMenuItem("Start preset", nil)
	manager.presetsItem.ChildMenu = fyne.NewMenu("")

	previews := make([]*fyne.MenuItem, 0, len(toneIDs))
	for _, id := range toneIDs {
		toneID := id
		previews = append(previews, fyne.NewMenuItem(toneID, func() {
			if manager.callbacks.OnPreview != nil {
				manager.callbacks.OnPreview(toneID)
			}
		}))
	}
	manager.previewItem = fyne.NewMenuItem("Preview tone", nil)
	manager.previewItem.ChildMenu = fyne.NewMenu("", previews...)

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnTogglePause != nil {
			manager.callbacks.OnTogglePause()
		}
	})
	manager.pauseItem.Disabled = true

	manager.stopItem = fyne.NewMenuItem("Stop", func() {
		if manager.callbacks.OnStop != nil {
			manager.callbacks.OnStop()
		}
	})
	manager.stopItem.Disabled = true

	manager.quitItem = fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})

	manager.refreshMenu()
	return manager
}

// SetPresets replaces the preset submenu.
func (manager *Manager) SetPresets(presets []model.TimerConfig) {
	items := make([]*fyne.MenuItem, 0, len(presets))
	for _, preset := range presets {
		config := preset
		items = append(items, fyne.NewMenuItem(PresetLabel(config), func() {
			if manager.callbacks.OnStartPreset != nil {
				manager.callbacks.OnStartPreset(config)
			}
		}))
	}
	manager.presetsItem.ChildMenu = fyne.NewMenu("", items...)
	manager.presetsItem.Disabled = len(items) == 0
	manager.refreshMenu()
}

// Update reflects an engine snapshot in the menu.
func (manager *Manager) Update(state timekeeper.ActiveTimerState) {
	kind := state.Phase.Kind()
	active := kind == timekeeper.PhaseRunning || kind == timekeeper.PhaseDelay || kind == timekeeper.PhasePaused

	manager.statusItem.Label = "Status: " + FormatStatus(state)
	if kind == timekeeper.PhasePaused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.pauseItem.Disabled = !active
	manager.stopItem.Disabled = kind == timekeeper.PhaseIdle
	manager.refreshMenu()
}

// FormatStatus renders a snapshot as "phase rep/total mm:ss".
func FormatStatus(state timekeeper.ActiveTimerState) string {
	switch state.Phase.Kind() {
	case timekeeper.PhaseIdle:
		return "idle"
	case timekeeper.PhaseCompleted:
		return fmt.Sprintf("completed %s", formatReps(state))
	}

	label := string(state.Phase.Kind())
	if target, ok := state.Phase.ResumeTarget(); ok && target == timekeeper.PhaseDelay {
		label = "paused (rest)"
	}
	return fmt.Sprintf("%s %s %s", label, formatReps(state), formatClock(state.SecondsRemaining))
}

// PresetLabel names a preset in the menu, falling back to its shape.
func PresetLabel(config model.TimerConfig) string {
	reps := "∞"
	if !config.InfiniteRepeat {
		reps = strconv.Itoa(config.RepeatCount)
	}
	shape := fmt.Sprintf("%s × %s", formatClock(config.DurationSeconds), reps)
	if config.Name == "" {
		return shape
	}
	return fmt.Sprintf("%s (%s)", config.Name, shape)
}

func formatReps(state timekeeper.ActiveTimerState) string {
	if state.TotalReps == 0 {
		return fmt.Sprintf("%d/∞", state.CurrentRep)
	}
	return fmt.Sprintf("%d/%d", state.CurrentRep, state.TotalReps)
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (manager *Manager) refreshMenu() {
	if manager.host == nil {
		return
	}
	manager.host.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.presetsItem,
		manager.pauseItem,
		manager.stopItem,
		manager.previewItem,
		fyne.NewMenuItemSeparator(),
		manager.quitItem,
	))
}
