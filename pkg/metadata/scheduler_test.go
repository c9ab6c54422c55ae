package metadata

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresImmediately(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(time.Hour, func() { fired.Add(1) })
	defer s.Stop()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, time.Hour, s.Period())
}

func TestSchedulerFiresEveryPeriod(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(20*time.Millisecond, func() { fired.Add(1) })
	defer s.Stop()

	require.Eventually(t, func() bool { return fired.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerDefaultsNonPositivePeriod(t *testing.T) {
	s := NewInvalidationScheduler(0, func() {})
	defer s.Stop()

	assert.Equal(t, types.DefaultReloadPeriod, s.Period())
}

func TestSchedulerReconfigureFiresImmediately(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(time.Hour, func() { fired.Add(1) })
	defer s.Stop()

	s.Reconfigure(30 * time.Minute)
	assert.Equal(t, int32(2), fired.Load())
	assert.Equal(t, 30*time.Minute, s.Period())
}

func TestSchedulerReconfigureIgnoresInvalidPeriod(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(time.Hour, func() { fired.Add(1) })
	defer s.Stop()

	s.Reconfigure(0)
	s.Reconfigure(-time.Minute)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, time.Hour, s.Period())
}

func TestSchedulerReconfigureReplacesTimer(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(time.Hour, func() { fired.Add(1) })
	defer s.Stop()

	s.Reconfigure(20 * time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerForceClearKeepsSchedule(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(time.Hour, func() { fired.Add(1) })
	defer s.Stop()

	s.ForceClear()
	s.ForceClear()
	assert.Equal(t, int32(3), fired.Load())
	assert.Equal(t, time.Hour, s.Period())
}

func TestSchedulerStopHaltsTicks(t *testing.T) {
	var fired atomic.Int32
	s := NewInvalidationScheduler(10*time.Millisecond, func() { fired.Add(1) })
	require.Eventually(t, func() bool { return fired.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	after := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fired.Load())

	// Stopped schedulers are not re-armed.
	s.Reconfigure(time.Minute)
	assert.Equal(t, after, fired.Load())
	s.Stop()
}
