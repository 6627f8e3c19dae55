package timekeeper

import (
	"log/slog"
	"sync"
	"time"

	"reptimer/internal/core/model"
)

// ToneFunc plays a tone at rep completion. It runs on its own goroutine;
// a returned error or panic is logged and never reaches the state machine.
type ToneFunc func(toneID string, volume float64) error

// Options contains runtime options for TimeKeeper.
type Options struct {
	TickInterval time.Duration
	NewTicker    TickerFunc
	PlayTone     ToneFunc
	Logger       *slog.Logger
	Now          func() time.Time
}

type session struct {
	config     model.TimerConfig
	phase      Phase
	remaining  int
	currentRep int
}

// TimeKeeper drives a single countdown/repeat/delay session.
// Control operations called in an inapplicable phase are no-ops.
type TimeKeeper struct {
	mu          sync.Mutex
	options     Options
	session     *session
	stopCh      chan struct{}
	subscribers []*Subscription
	closed      bool
}

// New creates an idle TimeKeeper.
func New(options Options) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.NewTicker == nil {
		options.NewTicker = NewSystemTicker
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &TimeKeeper{options: options}
}

// Subscribe registers a new observer. Only snapshots emitted after the
// call are delivered; use Snapshot for the current state.
func (keeper *TimeKeeper) Subscribe() *Subscription {
	sub := newSubscription(keeper)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		sub.finish()
		return sub
	}
	keeper.subscribers = append(keeper.subscribers, sub)
	return sub
}

func (keeper *TimeKeeper) unsubscribe(target *Subscription) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	for i, sub := range keeper.subscribers {
		if sub == target {
			keeper.subscribers = append(keeper.subscribers[:i], keeper.subscribers[i+1:]...)
			return
		}
	}
}

// Start discards any active session and begins a new one at rep 1.
func (keeper *TimeKeeper) Start(config model.TimerConfig) {
	config = config.Normalize()

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.stopTickingLocked()
	keeper.session = &session{
		config:     config,
		phase:      phaseOf(PhaseRunning),
		remaining:  config.DurationSeconds,
		currentRep: 1,
	}
	keeper.startTickingLocked()
	keeper.emitLocked()
	keeper.options.Logger.Debug("timer started",
		"timer_id", config.ID,
		"duration_s", config.DurationSeconds,
		"reps", config.TotalReps(),
		"delay_s", config.DelaySeconds)
}

// Pause freezes a running or delay phase.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil {
		return
	}
	kind := current.phase.Kind()
	if kind != PhaseRunning && kind != PhaseDelay {
		return
	}
	keeper.stopTickingLocked()
	current.phase = pausedFrom(kind)
	keeper.emitLocked()
}

// Resume restores the phase that was paused without touching the remaining seconds.
func (keeper *TimeKeeper) Resume() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil {
		return
	}
	target, ok := current.phase.ResumeTarget()
	if !ok {
		return
	}
	current.phase = phaseOf(target)
	keeper.startTickingLocked()
	keeper.emitLocked()
}

// Stop tears down the session. A final idle snapshot is emitted only if
// a session was active.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.stopLocked()
}

// Close stops the session and closes every subscription.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.stopLocked()
	keeper.closed = true
	subscribers := keeper.subscribers
	keeper.subscribers = nil
	keeper.mu.Unlock()

	for _, sub := range subscribers {
		sub.finish()
	}
}

// Phase returns the current phase tag.
func (keeper *TimeKeeper) Phase() PhaseKind {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.session == nil {
		return PhaseIdle
	}
	return keeper.session.phase.Kind()
}

// Snapshot returns the current session state, or false when idle.
func (keeper *TimeKeeper) Snapshot() (ActiveTimerState, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.session == nil {
		return ActiveTimerState{Phase: phaseOf(PhaseIdle), At: keeper.options.Now()}, false
	}
	return keeper.snapshotLocked(), true
}

func (keeper *TimeKeeper) stopLocked() {
	keeper.stopTickingLocked()
	if keeper.session == nil {
		return
	}
	keeper.options.Logger.Debug("timer stopped", "timer_id", keeper.session.config.ID)
	keeper.session = nil
	keeper.emitLocked()
}

func (keeper *TimeKeeper) startTickingLocked() {
	stop := make(chan struct{})
	ticker := keeper.options.NewTicker(keeper.options.TickInterval)
	keeper.stopCh = stop
	go keeper.run(ticker, stop)
}

func (keeper *TimeKeeper) stopTickingLocked() {
	if keeper.stopCh == nil {
		return
	}
	close(keeper.stopCh)
	keeper.stopCh = nil
}

func (keeper *TimeKeeper) run(ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			keeper.tick(stop)
		}
	}
}

// tick ignores ticks from a tick source that has since been replaced or torn down.
func (keeper *TimeKeeper) tick(stop chan struct{}) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	current := keeper.session
	if current == nil || keeper.stopCh != stop {
		return
	}

	switch current.phase.Kind() {
	case PhaseRunning:
		current.remaining--
		if current.remaining > 0 {
			keeper.emitLocked()
			return
		}
		keeper.completeRepLocked()
	case PhaseDelay:
		current.remaining--
		if current.remaining > 0 {
			keeper.emitLocked()
			return
		}
		keeper.stopTickingLocked()
		current.phase = phaseOf(PhaseRunning)
		current.remaining = current.config.DurationSeconds
		keeper.startTickingLocked()
		keeper.emitLocked()
	}
}

func (keeper *TimeKeeper) completeRepLocked() {
	current := keeper.session
	config := current.config
	keeper.playTone(config.ToneID, config.Volume)

	hasMoreReps := config.InfiniteRepeat || current.currentRep < config.RepeatCount
	if !hasMoreReps {
		keeper.stopTickingLocked()
		current.phase = phaseOf(PhaseCompleted)
		current.remaining = 0
		keeper.emitLocked()
		keeper.options.Logger.Debug("timer completed", "timer_id", config.ID, "reps", current.currentRep)
		return
	}

	current.currentRep++
	if config.DelaySeconds > 0 {
		keeper.stopTickingLocked()
		current.phase = phaseOf(PhaseDelay)
		current.remaining = config.DelaySeconds
		keeper.startTickingLocked()
		keeper.emitLocked()
		return
	}

	current.remaining = config.DurationSeconds
	keeper.emitLocked()
}

func (keeper *TimeKeeper) playTone(toneID string, volume float64) {
	hook := keeper.options.PlayTone
	if hook == nil {
		return
	}
	logger := keeper.options.Logger
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Warn("tone hook panicked", "tone", toneID, "panic", recovered)
			}
		}()
		if err := hook(toneID, volume); err != nil {
			logger.Warn("tone playback failed", "tone", toneID, "error", err)
		}
	}()
}

func (keeper *TimeKeeper) snapshotLocked() ActiveTimerState {
	current := keeper.session
	if current == nil {
		return ActiveTimerState{Phase: phaseOf(PhaseIdle), At: keeper.options.Now()}
	}
	return ActiveTimerState{
		Phase:            current.phase,
		SecondsRemaining: current.remaining,
		CurrentRep:       current.currentRep,
		TotalReps:        current.config.TotalReps(),
		Config:           current.config,
		At:               keeper.options.Now(),
	}
}

func (keeper *TimeKeeper) emitLocked() {
	state := keeper.snapshotLocked()
	for _, sub := range keeper.subscribers {
		sub.push(state)
	}
}
