package pager

import (
	"sync"
	"time"
)

// TimerMode selects what happens to the lifetime timer on a page change.
type TimerMode int

const (
	// TimerModeNone leaves the timer alone on page changes.
	TimerModeNone TimerMode = iota
	// TimerModeBonus adds a fixed bonus to the remaining time on every
	// successful page change.
	TimerModeBonus
	// TimerModeReset re-bases the countdown to the base duration on every
	// successful page change.
	TimerModeReset
)

// LifetimeTimer is the resettable, extendable countdown that bounds a
// session. It arms exactly once; expiry and Cancel both fire the termination
// callback exactly once between them.
type LifetimeTimer struct {
	mu       sync.Mutex
	base     time.Duration
	bonus    time.Duration
	mode     TimerMode
	started  bool
	armed    bool
	fired    bool
	deadline time.Time
	timer    *time.Timer
	onExpire func()
}

// NewLifetimeTimer creates a timer in the given page-change mode. onExpire
// runs on its own goroutine when the countdown elapses or Cancel is called;
// it must be safe to call from outside the session dispatch loop.
func NewLifetimeTimer(mode TimerMode, bonus time.Duration, onExpire func()) *LifetimeTimer {
	return &LifetimeTimer{mode: mode, bonus: bonus, onExpire: onExpire}
}

// Start arms the timer. A timer can only ever be armed once; re-arming
// returns ErrAlreadyArmed even after the first countdown has ended.
func (t *LifetimeTimer) Start(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyArmed
	}
	t.started = true
	t.armed = true
	t.base = d
	t.deadline = time.Now().Add(d)
	t.timer = time.AfterFunc(d, t.expire)
	return nil
}

// AddTime extends the remaining duration by d. No-op when not armed.
func (t *LifetimeTimer) AddTime(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	t.deadline = t.deadline.Add(d)
	t.timer.Reset(time.Until(t.deadline))
}

// Reset re-bases the countdown. With a duration given it becomes the new
// base; without one the last base is reused. Callable any number of times
// while armed; no-op otherwise.
func (t *LifetimeTimer) Reset(d ...time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	if len(d) > 0 {
		t.base = d[0]
	}
	t.deadline = time.Now().Add(t.base)
	t.timer.Reset(t.base)
}

// Cancel disarms the timer and fires termination immediately. Idempotent.
func (t *LifetimeTimer) Cancel() {
	t.mu.Lock()
	cb := t.disarmLocked()
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Disarm stops the countdown without firing termination, for owners that run
// their own teardown. Idempotent.
func (t *LifetimeTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

// disarmLocked stops the timer and returns the callback to fire, or nil when
// termination has already been delivered.
func (t *LifetimeTimer) disarmLocked() func() {
	if !t.armed {
		return nil
	}
	t.armed = false
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.fired {
		return nil
	}
	t.fired = true
	return t.onExpire
}

func (t *LifetimeTimer) expire() {
	t.mu.Lock()
	if !t.armed || t.fired {
		t.mu.Unlock()
		return
	}
	// AddTime or Reset may have pushed the deadline past this firing.
	if remaining := time.Until(t.deadline); remaining > 0 {
		t.timer.Reset(remaining)
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.fired = true
	cb := t.onExpire
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// PageAdvanced applies the configured page-change behavior.
func (t *LifetimeTimer) PageAdvanced() {
	switch t.mode {
	case TimerModeBonus:
		t.AddTime(t.bonus)
	case TimerModeReset:
		t.Reset()
	}
}

// Remaining reports the time left on the countdown; zero when not armed.
func (t *LifetimeTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return 0
	}
	if r := time.Until(t.deadline); r > 0 {
		return r
	}
	return 0
}

// Armed reports whether the countdown is running.
func (t *LifetimeTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}
