package pager

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartArmsExactlyOnce(t *testing.T) {
	timer := NewLifetimeTimer(TimerModeNone, 0, nil)
	require.NoError(t, timer.Start(time.Minute))
	assert.ErrorIs(t, timer.Start(time.Minute), ErrAlreadyArmed)

	timer.Disarm()
	assert.ErrorIs(t, timer.Start(time.Minute), ErrAlreadyArmed, "a timer never re-arms")
}

func TestAddTimeExtendsRemaining(t *testing.T) {
	timer := NewLifetimeTimer(TimerModeNone, 0, nil)
	require.NoError(t, timer.Start(time.Minute))

	before := timer.Remaining()
	timer.AddTime(30 * time.Second)
	after := timer.Remaining()

	assert.InDelta(t, (30 * time.Second).Seconds(), (after - before).Seconds(), 1.0)
}

func TestAddTimeIsNoOpWhenUnarmed(t *testing.T) {
	timer := NewLifetimeTimer(TimerModeNone, 0, nil)
	timer.AddTime(time.Minute)
	assert.Zero(t, timer.Remaining())
	assert.False(t, timer.Armed())
}

func TestResetRestoresBase(t *testing.T) {
	timer := NewLifetimeTimer(TimerModeNone, 0, nil)
	require.NoError(t, timer.Start(200 * time.Millisecond))

	time.Sleep(100 * time.Millisecond)
	timer.Reset()

	assert.InDelta(t, 0.2, timer.Remaining().Seconds(), 0.05)
}

func TestResetWithDurationRebases(t *testing.T) {
	timer := NewLifetimeTimer(TimerModeNone, 0, nil)
	require.NoError(t, timer.Start(100 * time.Millisecond))

	timer.Reset(time.Minute)
	assert.InDelta(t, 60.0, timer.Remaining().Seconds(), 1.0)

	// The given duration became the new base.
	timer.Reset()
	assert.InDelta(t, 60.0, timer.Remaining().Seconds(), 1.0)
}

func TestCancelFiresTerminationOnce(t *testing.T) {
	var fired atomic.Int32
	timer := NewLifetimeTimer(TimerModeNone, 0, func() { fired.Add(1) })
	require.NoError(t, timer.Start(time.Minute))

	timer.Cancel()
	timer.Cancel()

	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, timer.Armed())
}

func TestNaturalExpiryFiresOnce(t *testing.T) {
	var fired atomic.Int32
	timer := NewLifetimeTimer(TimerModeNone, 0, func() { fired.Add(1) })
	require.NoError(t, timer.Start(30 * time.Millisecond))

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	// Termination was already delivered; Cancel must not fire again.
	timer.Cancel()
	assert.Equal(t, int32(1), fired.Load())
}

func TestAddTimeDefersExpiry(t *testing.T) {
	var fired atomic.Int32
	timer := NewLifetimeTimer(TimerModeNone, 0, func() { fired.Add(1) })
	require.NoError(t, timer.Start(50 * time.Millisecond))

	timer.AddTime(150 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load(), "expiry must honor the extended deadline")

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPageAdvancedModes(t *testing.T) {
	t.Run("bonus adds per page", func(t *testing.T) {
		timer := NewLifetimeTimer(TimerModeBonus, 20*time.Millisecond, nil)
		require.NoError(t, timer.Start(time.Second))

		before := timer.Remaining()
		timer.PageAdvanced()
		timer.PageAdvanced()

		// Matches the accumulation property: base + 2 bonuses.
		assert.InDelta(t, 0.04, (timer.Remaining() - before).Seconds(), 0.02)
	})

	t.Run("reset re-bases per page", func(t *testing.T) {
		timer := NewLifetimeTimer(TimerModeReset, 0, nil)
		require.NoError(t, timer.Start(200 * time.Millisecond))

		time.Sleep(100 * time.Millisecond)
		timer.PageAdvanced()

		assert.InDelta(t, 0.2, timer.Remaining().Seconds(), 0.05)
	})

	t.Run("none leaves countdown alone", func(t *testing.T) {
		timer := NewLifetimeTimer(TimerModeNone, 0, nil)
		require.NoError(t, timer.Start(time.Minute))

		before := timer.Remaining()
		timer.PageAdvanced()

		assert.LessOrEqual(t, timer.Remaining(), before)
	})
}
