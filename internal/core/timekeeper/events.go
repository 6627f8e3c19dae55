package timekeeper

import (
	"time"

	"reptimer/internal/core/model"
)

// PhaseKind names a lifecycle stage of a timer session.
type PhaseKind string

const (
	PhaseIdle      PhaseKind = "idle"
	PhaseRunning   PhaseKind = "running"
	PhaseDelay     PhaseKind = "delay"
	PhasePaused    PhaseKind = "paused"
	PhaseCompleted PhaseKind = "completed"
)

// Phase is the current session phase. A paused phase carries the phase
// it resumes into; every other phase has no resume target.
type Phase struct {
	kind     PhaseKind
	resumeTo PhaseKind
}

func phaseOf(kind PhaseKind) Phase {
	return Phase{kind: kind}
}

func pausedFrom(kind PhaseKind) Phase {
	return Phase{kind: PhasePaused, resumeTo: kind}
}

// Kind returns the phase tag. The zero Phase is idle.
func (phase Phase) Kind() PhaseKind {
	if phase.kind == "" {
		return PhaseIdle
	}
	return phase.kind
}

// ResumeTarget reports the phase a paused session returns to.
func (phase Phase) ResumeTarget() (PhaseKind, bool) {
	if phase.kind != PhasePaused {
		return "", false
	}
	return phase.resumeTo, true
}

func (phase Phase) String() string {
	if target, ok := phase.ResumeTarget(); ok {
		return string(PhasePaused) + "(" + string(target) + ")"
	}
	return string(phase.Kind())
}

// ActiveTimerState is an immutable snapshot of the engine, emitted after
// every transition and every per-second decrement.
type ActiveTimerState struct {
	Phase            Phase
	SecondsRemaining int
	CurrentRep       int
	// TotalReps is 0 for infinite sessions.
	TotalReps int
	Config    model.TimerConfig
	At        time.Time
}

// Progress returns elapsed/total for the current phase window in [0, 1].
func (state ActiveTimerState) Progress() float64 {
	switch state.Phase.Kind() {
	case PhaseIdle:
		return 0
	case PhaseCompleted:
		return 1
	}

	total := state.windowSeconds()
	if total <= 0 {
		return 1
	}
	progress := float64(total-state.SecondsRemaining) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (state ActiveTimerState) windowSeconds() int {
	kind := state.Phase.Kind()
	if target, ok := state.Phase.ResumeTarget(); ok {
		kind = target
	}
	if kind == PhaseDelay {
		return state.Config.DelaySeconds
	}
	return state.Config.DurationSeconds
}
