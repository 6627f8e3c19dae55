package timekeeper

import "sync"

// Subscription delivers snapshots to one observer in emission order.
// Snapshots queue without bound so a slow reader never stalls the engine
// and never misses a transition.
type Subscription struct {
	keeper *TimeKeeper

	mu       sync.Mutex
	queue    []ActiveTimerState
	closed   bool
	draining bool

	wake      chan struct{}
	done      chan struct{}
	out       chan ActiveTimerState
	closeOnce sync.Once
}

func newSubscription(keeper *TimeKeeper) *Subscription {
	sub := &Subscription{
		keeper: keeper,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan ActiveTimerState),
	}
	go sub.pump()
	return sub
}

// Events returns the snapshot channel. It is closed after Close, or after
// the engine is closed and every queued snapshot has been delivered.
func (sub *Subscription) Events() <-chan ActiveTimerState {
	return sub.out
}

// Close detaches the observer and discards undelivered snapshots.
func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.mu.Lock()
		sub.closed = true
		sub.queue = nil
		sub.mu.Unlock()
		close(sub.done)
		if sub.keeper != nil {
			sub.keeper.unsubscribe(sub)
		}
	})
}

func (sub *Subscription) push(state ActiveTimerState) {
	sub.mu.Lock()
	if sub.closed || sub.draining {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, state)
	sub.mu.Unlock()
	sub.signal()
}

// finish stops accepting snapshots; Events closes once the queue drains.
func (sub *Subscription) finish() {
	sub.mu.Lock()
	sub.draining = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *Subscription) signal() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *Subscription) pump() {
	defer close(sub.out)
	for {
		state, ok := sub.next()
		if !ok {
			return
		}
		select {
		case sub.out <- state:
		case <-sub.done:
			return
		}
	}
}

func (sub *Subscription) next() (ActiveTimerState, bool) {
	for {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			return ActiveTimerState{}, false
		}
		if len(sub.queue) > 0 {
			state := sub.queue[0]
			sub.queue[0] = ActiveTimerState{}
			sub.queue = sub.queue[1:]
			sub.mu.Unlock()
			return state, true
		}
		draining := sub.draining
		sub.mu.Unlock()
		if draining {
			return ActiveTimerState{}, false
		}

		select {
		case <-sub.wake:
		case <-sub.done:
		}
	}
}
