// Package inactivity implements the resettable countdown that expires an
// admin session after a quiet period with no user input.
//
// The monitor keeps at most one pending callback. Reset cancels it and
// schedules a fresh one; a callback that raced a Reset is recognised by its
// generation and dropped.
package inactivity

import (
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/authguard/scheduler"
)

// DefaultTimeout is the quiescence window before the session is expired.
const DefaultTimeout = 24 * time.Hour

// Input kinds that count as user activity. The names match the DOM event
// types the admin pages listened for.
const (
	PointerDown = "mousedown"
	PointerMove = "mousemove"
	KeyPress    = "keypress"
	Scroll      = "scroll"
	TouchStart  = "touchstart"
)

// QualifyingEvents lists every input kind that resets the countdown.
var QualifyingEvents = []string{PointerDown, PointerMove, KeyPress, Scroll, TouchStart}

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("inactivity monitor already started")
	// ErrStopped is returned when starting a stopped monitor.
	ErrStopped = errors.New("inactivity monitor stopped")
)

// Qualifies reports whether an input kind resets the countdown.
func Qualifies(kind string) bool {
	switch kind {
	case PointerDown, PointerMove, KeyPress, Scroll, TouchStart:
		return true
	}
	return false
}

// Monitor is a single resettable countdown.
type Monitor struct {
	sched     scheduler.Scheduler
	timeout   time.Duration
	onTimeout func()

	mu      sync.Mutex
	started bool
	stopped bool
	gen     uint64
	handle  scheduler.Handle
	pending bool
	resets  uint64
}

// New creates a monitor that calls onTimeout after timeout without a Reset.
// A non-positive timeout selects DefaultTimeout.
func New(sched scheduler.Scheduler, timeout time.Duration, onTimeout func()) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{sched: sched, timeout: timeout, onTimeout: onTimeout}
}

// Start begins the countdown immediately. It may be called once.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrStopped
	}
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.rescheduleLocked()
	return nil
}

// Reset restarts the countdown from now. It is a no-op before Start or after
// Stop.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.stopped {
		return
	}
	m.resets++
	m.rescheduleLocked()
}

// Observe resets the countdown when kind is a qualifying input. It reports
// whether the input qualified.
func (m *Monitor) Observe(kind string) bool {
	if !Qualifies(kind) {
		return false
	}
	m.Reset()
	return true
}

// Stop cancels any pending callback permanently.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.gen++
	if m.pending {
		m.sched.Cancel(m.handle)
		m.pending = false
	}
}

// Pending reports whether a timeout callback is scheduled.
func (m *Monitor) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Resets returns how many times the countdown was restarted after Start.
func (m *Monitor) Resets() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Timeout returns the configured window.
func (m *Monitor) Timeout() time.Duration { return m.timeout }

func (m *Monitor) rescheduleLocked() {
	if m.pending {
		m.sched.Cancel(m.handle)
	}
	m.gen++
	gen := m.gen
	m.handle = m.sched.ScheduleOnce(m.timeout, func() { m.fire(gen) })
	m.pending = true
}

func (m *Monitor) fire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		return
	}
	m.pending = false
	cb := m.onTimeout
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}
