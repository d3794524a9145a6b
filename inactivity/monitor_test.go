package inactivity

import (
	"testing"
	"time"

	"github.com/MrEthical07/authguard/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func TestStartSchedulesImmediately(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	var firedAt []time.Time
	m := New(clock, 0, func() { firedAt = append(firedAt, clock.Now()) })

	assert.Equal(t, DefaultTimeout, m.Timeout(), "zero timeout selects the default")
	require.NoError(t, m.Start())
	assert.True(t, m.Pending())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(DefaultTimeout - time.Millisecond)
	assert.Empty(t, firedAt)

	clock.Advance(time.Millisecond)
	require.Len(t, firedAt, 1)
	assert.Equal(t, epoch.Add(DefaultTimeout), firedAt[0])
	assert.False(t, m.Pending())
}

func TestStartTwiceRejected(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	m := New(clock, time.Hour, nil)

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Start(), ErrAlreadyStarted)
	assert.Equal(t, 1, clock.Pending(), "second Start must not add a timer")
}

func TestResetsCollapseToOneTimeout(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	fired := 0
	var firedAt time.Time
	m := New(clock, DefaultTimeout, func() {
		fired++
		firedAt = clock.Now()
	})
	require.NoError(t, m.Start())

	var last time.Time
	for i := 0; i < 50; i++ {
		clock.Advance(30 * time.Minute)
		m.Reset()
		last = clock.Now()
		assert.Equal(t, 1, clock.Pending(), "never more than one pending expiry")
	}
	assert.Zero(t, fired)
	assert.EqualValues(t, 50, m.Resets())

	clock.Advance(48 * time.Hour)
	assert.Equal(t, 1, fired)
	assert.Equal(t, last.Add(DefaultTimeout), firedAt)
}

func TestObserveOnlyQualifyingInput(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	m := New(clock, time.Hour, nil)
	require.NoError(t, m.Start())

	for _, kind := range QualifyingEvents {
		assert.True(t, m.Observe(kind), kind)
	}
	assert.False(t, m.Observe("keydown"))
	assert.False(t, m.Observe("focus"))
	assert.False(t, m.Observe("click"))
	assert.EqualValues(t, len(QualifyingEvents), m.Resets())
}

func TestResetBeforeStartIsNoop(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	m := New(clock, time.Hour, nil)
	m.Reset()
	assert.Equal(t, 0, clock.Pending())
	assert.False(t, m.Pending())
}

func TestStopCancelsAndBlocksRestart(t *testing.T) {
	clock := scheduler.NewManual(epoch)
	fired := false
	m := New(clock, time.Hour, func() { fired = true })
	require.NoError(t, m.Start())

	m.Stop()
	m.Reset()
	clock.Advance(2 * time.Hour)

	assert.False(t, fired)
	assert.Equal(t, 0, clock.Pending())
	assert.ErrorIs(t, m.Start(), ErrStopped)
}

// staleScheduler never cancels, so replaced callbacks still run and must be
// ignored by generation.
type staleScheduler struct {
	fns []func()
}

func (s *staleScheduler) ScheduleOnce(_ time.Duration, fn func()) scheduler.Handle {
	s.fns = append(s.fns, fn)
	return scheduler.Handle("h")
}

func (s *staleScheduler) Cancel(scheduler.Handle) bool { return false }

func TestStaleCallbackIgnored(t *testing.T) {
	s := &staleScheduler{}
	fired := 0
	m := New(s, time.Hour, func() { fired++ })
	require.NoError(t, m.Start())
	m.Reset()
	m.Reset()
	require.Len(t, s.fns, 3)

	s.fns[0]()
	s.fns[1]()
	assert.Zero(t, fired)

	s.fns[2]()
	assert.Equal(t, 1, fired)
}
