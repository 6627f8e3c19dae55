package tray

import (
	"sync"
	"testing"
	"time"

	"reptimer/internal/core/model"
	"reptimer/internal/core/timekeeper"

	"fyne.io/fyne/v2"
)

type fakeHost struct {
	menus []*fyne.Menu
}

func (host *fakeHost) SetSystemTrayMenu(menu *fyne.Menu) {
	host.menus = append(host.menus, menu)
}

func (host *fakeHost) last() *fyne.Menu {
	return host.menus[len(host.menus)-1]
}

type chanTicker struct {
	ch chan time.Time
}

func (ticker *chanTicker) C() <-chan time.Time { return ticker.ch }
func (ticker *chanTicker) Stop()               {}

// engine yields real snapshots from a keeper driven by a manual tick source.
type engine struct {
	keeper *timekeeper.TimeKeeper
	sub    *timekeeper.Subscription

	mu     sync.Mutex
	ticker *chanTicker
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	e := &engine{}
	e.keeper = timekeeper.New(timekeeper.Options{
		NewTicker: func(time.Duration) timekeeper.Ticker {
			ticker := &chanTicker{ch: make(chan time.Time)}
			e.mu.Lock()
			e.ticker = ticker
			e.mu.Unlock()
			return ticker
		},
	})
	e.sub = e.keeper.Subscribe()
	t.Cleanup(e.keeper.Close)
	return e
}

func (e *engine) next(t *testing.T) timekeeper.ActiveTimerState {
	t.Helper()
	select {
	case state := <-e.sub.Events():
		return state
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
		return timekeeper.ActiveTimerState{}
	}
}

func (e *engine) tick(t *testing.T) timekeeper.ActiveTimerState {
	t.Helper()
	e.mu.Lock()
	ticker := e.ticker
	e.mu.Unlock()
	ticker.ch <- time.Now()
	return e.next(t)
}

func TestFormatStatusAcrossPhases(t *testing.T) {
	e := newEngine(t)

	if got := FormatStatus(timekeeper.ActiveTimerState{}); got != "idle" {
		t.Fatalf("idle status %q", got)
	}

	e.keeper.Start(model.TimerConfig{DurationSeconds: 75, RepeatCount: 2, DelaySeconds: 3})
	if got := FormatStatus(e.next(t)); got != "running 1/2 01:15" {
		t.Fatalf("running status %q", got)
	}

	e.keeper.Pause()
	if got := FormatStatus(e.next(t)); got != "paused 1/2 01:15" {
		t.Fatalf("paused status %q", got)
	}
	e.keeper.Resume()
	e.next(t)

	e.keeper.Start(model.TimerConfig{DurationSeconds: 1, RepeatCount: 2, DelaySeconds: 3})
	e.next(t)
	if got := FormatStatus(e.tick(t)); got != "delay 2/2 00:03" {
		t.Fatalf("delay status %q", got)
	}
	e.keeper.Pause()
	if got := FormatStatus(e.next(t)); got != "paused (rest) 2/2 00:03" {
		t.Fatalf("paused delay status %q", got)
	}
	e.keeper.Resume()
	e.next(t)
	e.tick(t)
	e.tick(t)
	e.tick(t) // delay over, running rep 2
	if got := FormatStatus(e.tick(t)); got != "completed 2/2" {
		t.Fatalf("completed status %q", got)
	}

	e.keeper.Start(model.TimerConfig{DurationSeconds: 5, InfiniteRepeat: true})
	if got := FormatStatus(e.next(t)); got != "running 1/∞ 00:05" {
		t.Fatalf("infinite status %q", got)
	}
}

func TestPresetLabel(t *testing.T) {
	cases := []struct {
		config model.TimerConfig
		want   string
	}{
		{model.TimerConfig{Name: "Plank", DurationSeconds: 60, RepeatCount: 3}, "Plank (01:00 × 3)"},
		{model.TimerConfig{DurationSeconds: 1500, RepeatCount: 1}, "25:00 × 1"},
		{model.TimerConfig{Name: "Laps", DurationSeconds: 90, InfiniteRepeat: true}, "Laps (01:30 × ∞)"},
	}
	for _, tc := range cases {
		if got := PresetLabel(tc.config); got != tc.want {
			t.Fatalf("PresetLabel = %q, want %q", got, tc.want)
		}
	}
}

func TestMenuCallbacks(t *testing.T) {
	host := &fakeHost{}
	var started model.TimerConfig
	var previewed string
	toggles, stops, quits := 0, 0, 0

	manager := New(host, []string{"beep", "bell"}, Callbacks{
		OnStartPreset: func(config model.TimerConfig) { started = config },
		OnTogglePause: func() { toggles++ },
		OnStop:        func() { stops++ },
		OnPreview:     func(toneID string) { previewed = toneID },
		OnQuit:        func() { quits++ },
	})
	if len(host.menus) != 1 || host.last().Label != menuTitle {
		t.Fatalf("initial menu not installed: %d menus", len(host.menus))
	}
	if len(manager.presetsItem.ChildMenu.Items) != 0 {
		t.Fatal("preset menu should start empty")
	}

	preset := model.TimerConfig{ID: "p1", Name: "Plank", DurationSeconds: 60, RepeatCount: 3}
	manager.SetPresets([]model.TimerConfig{preset})
	if manager.presetsItem.Disabled {
		t.Fatal("presets disabled after SetPresets")
	}
	manager.presetsItem.ChildMenu.Items[0].Action()
	if started.ID != "p1" {
		t.Fatalf("started %+v", started)
	}

	manager.previewItem.ChildMenu.Items[1].Action()
	if previewed != "bell" {
		t.Fatalf("previewed %q", previewed)
	}

	manager.pauseItem.Action()
	manager.stopItem.Action()
	manager.quitItem.Action()
	if toggles != 1 || stops != 1 || quits != 1 {
		t.Fatalf("toggles=%d stops=%d quits=%d", toggles, stops, quits)
	}
}

func TestUpdateTogglesItems(t *testing.T) {
	e := newEngine(t)
	host := &fakeHost{}
	manager := New(host, nil, Callbacks{})

	if !manager.pauseItem.Disabled || !manager.stopItem.Disabled {
		t.Fatal("controls enabled while idle")
	}

	e.keeper.Start(model.TimerConfig{DurationSeconds: 10, RepeatCount: 1})
	manager.Update(e.next(t))
	if manager.pauseItem.Disabled || manager.stopItem.Disabled || manager.pauseItem.Label != "Pause" {
		t.Fatalf("running: pause=%+v stop disabled=%v", manager.pauseItem, manager.stopItem.Disabled)
	}
	if manager.statusItem.Label != "Status: running 1/1 00:10" {
		t.Fatalf("status label %q", manager.statusItem.Label)
	}

	e.keeper.Pause()
	manager.Update(e.next(t))
	if manager.pauseItem.Label != "Resume" {
		t.Fatalf("paused label %q", manager.pauseItem.Label)
	}

	e.keeper.Stop()
	manager.Update(e.next(t))
	if !manager.pauseItem.Disabled || !manager.stopItem.Disabled || manager.statusItem.Label != "Status: idle" {
		t.Fatal("controls not reset after stop")
	}
}
