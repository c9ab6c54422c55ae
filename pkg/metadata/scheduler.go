package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// InvalidationScheduler runs a clear action immediately on arming and then
// once per period. Re-arming cancels the current timer without waiting for
// its next tick.
type InvalidationScheduler struct {
	clear func()

	mu      sync.Mutex
	period  time.Duration
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewInvalidationScheduler arms the scheduler with period. A non-positive
// period falls back to the default reload period.
func NewInvalidationScheduler(period time.Duration, clear func()) *InvalidationScheduler {
	s := &InvalidationScheduler{clear: clear}
	if period <= 0 {
		period = types.DefaultReloadPeriod
	}

	s.mu.Lock()
	s.arm(period)
	s.mu.Unlock()
	return s
}

// Period returns the period the scheduler is currently armed with.
func (s *InvalidationScheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Reconfigure re-arms the scheduler with period, firing once immediately.
// Non-positive periods are ignored.
func (s *InvalidationScheduler) Reconfigure(period time.Duration) {
	if period <= 0 {
		log.Warn().Dur("period", period).Msg("ignoring invalid metadata reload period")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	log.Info().
		Dur("old_period", s.period).
		Dur("new_period", period).
		Msg("rescheduling metadata reload task")

	s.cancel()
	s.arm(period)
}

// ForceClear runs the clear action once without touching the schedule.
func (s *InvalidationScheduler) ForceClear() {
	log.Info().Msg("clearing metadata on request")
	s.clear()
}

// Stop cancels the timer and waits for the timer goroutine to exit.
func (s *InvalidationScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// arm fires the clear action synchronously, then starts the ticker.
// It must be called with s.mu held.
func (s *InvalidationScheduler) arm(period time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.period = period
	s.cancel = cancel

	s.clear()

	s.wg.Add(1)
	go s.run(ctx, period)
}

func (s *InvalidationScheduler) run(ctx context.Context, period time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *InvalidationScheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.clear()
}
