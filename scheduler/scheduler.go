// Package scheduler provides the one-shot timer port the inactivity monitor
// runs on: a wall-clock implementation over time.AfterFunc and a manual one
// whose time only moves when told to.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies a scheduled callback.
type Handle string

// Scheduler runs callbacks once after a delay.
type Scheduler interface {
	// ScheduleOnce arranges for fn to run once after d.
	ScheduleOnce(d time.Duration, fn func()) Handle
	// Cancel stops a pending callback. It reports whether the callback was
	// still pending.
	Cancel(h Handle) bool
}

func newHandle() Handle {
	return Handle(uuid.NewString())
}

// Timer schedules on the runtime timer heap. Callbacks run on their own
// goroutine.
type Timer struct {
	mu     sync.Mutex
	timers map[Handle]*time.Timer
}

// NewTimer returns a wall-clock Scheduler.
func NewTimer() *Timer {
	return &Timer{timers: make(map[Handle]*time.Timer)}
}

// ScheduleOnce implements Scheduler.
func (t *Timer) ScheduleOnce(d time.Duration, fn func()) Handle {
	h := newHandle()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timers[h] = time.AfterFunc(d, func() {
		t.mu.Lock()
		_, live := t.timers[h]
		delete(t.timers, h)
		t.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

// Cancel implements Scheduler.
func (t *Timer) Cancel(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tm, ok := t.timers[h]
	if !ok {
		return false
	}
	delete(t.timers, h)
	tm.Stop()
	return true
}

// Pending returns the number of callbacks not yet fired or cancelled.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

type entry struct {
	handle Handle
	at     time.Time
	seq    uint64
	fn     func()
}

// Manual is a deterministic Scheduler and clock. Callbacks fire synchronously
// from Advance, in due-time order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending map[Handle]entry
}

// NewManual returns a Manual scheduler starting at now.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now, pending: make(map[Handle]entry)}
}

// Now returns the manual clock time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// ScheduleOnce implements Scheduler.
func (m *Manual) ScheduleOnce(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := newHandle()
	m.seq++
	m.pending[h] = entry{handle: h, at: m.now.Add(d), seq: m.seq, fn: fn}
	return h
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[h]; !ok {
		return false
	}
	delete(m.pending, h)
	return true
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// NextAt returns the due time of the earliest pending callback.
func (m *Manual) NextAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		best  time.Time
		found bool
	)
	for _, e := range m.pending {
		if !found || e.at.Before(best) {
			best, found = e.at, true
		}
	}
	return best, found
}

// Advance moves the clock forward by d and runs every callback that became
// due, including ones scheduled by callbacks fired during this call.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		due := make([]entry, 0, len(m.pending))
		for _, e := range m.pending {
			if !e.at.After(target) {
				due = append(due, e)
			}
		}
		if len(due) == 0 {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		delete(m.pending, next.handle)
		if next.at.After(m.now) {
			m.now = next.at
		}
		m.mu.Unlock()

		next.fn()
		fired++
	}
}

// Set moves the clock to t without firing callbacks. Used to model wall-clock
// jumps, such as a device waking from sleep.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
