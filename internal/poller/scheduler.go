package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TickFunc performs one poll. A returned error is passed to the scheduler's
// [ErrorHandler].
type TickFunc func(ctx context.Context) error

// ErrorHandler receives errors returned by a tick, including recovered panics.
type ErrorHandler func(err error)

// Scheduler runs a [TickFunc] at a fixed interval.
//
// The first tick fires one interval after [Scheduler.Start]; there is no
// immediate tick. The scheduler never waits for a tick to finish before
// firing the next one.
//
// All lifecycle methods (Start, Stop, Wait) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	onError  ErrorHandler
	logger   *slog.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	inflight sync.WaitGroup
	ticks    atomic.Uint64
}

// NewScheduler creates a new polling [Scheduler].
//
// Parameters:
//   - interval: Time between ticks (must be positive)
//   - tick: Function invoked on every tick
//   - onError: Receives tick errors; may be nil
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(interval time.Duration, tick TickFunc, onError ErrorHandler, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		tick:     tick,
		onError:  onError,
		logger:   logger,
		loopDone: make(chan struct{}),
	}
}

// Interval returns the time between ticks.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Ticks returns how many ticks have been dispatched.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Start begins the timer loop in a background goroutine.
//
// Start is non-blocking. Ticks receive ctx (not a derived context), so
// stopping the scheduler does not cancel a tick that is already running;
// cancelling ctx does.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(s.loopDone)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				// a tick and a stop can be ready together; stop wins
				if loopCtx.Err() != nil {
					return
				}
				s.dispatch(ctx)
			}
		}
	}()
}

// Stop cancels the timer. It does not wait for running ticks.
//
// Stop is idempotent and safe to call multiple times, before Start, and from
// inside a tick or error handler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the timer loop has exited and every dispatched tick has
// returned. It must not be called from inside a tick.
//
// Wait returns immediately if the scheduler was never started.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.loopDone
	}
	// no further dispatches can happen once the loop is gone
	s.inflight.Wait()
}

// dispatch runs one tick on its own goroutine.
func (s *Scheduler) dispatch(ctx context.Context) {
	n := s.ticks.Add(1)
	s.inflight.Add(1)

	go func() {
		defer s.inflight.Done()

		if err := s.safeTick(ctx, n); err != nil && s.onError != nil {
			s.onError(err)
		}
	}()
}

// safeTick calls the tick function with panic recovery.
// If the tick panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (s *Scheduler) safeTick(ctx context.Context, n uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			// log full context server-side for debugging
			s.logger.Error("tick panic",
				"correlation_id", correlationID,
				"tick", n,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			err = fmt.Errorf("poll panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.tick(ctx)
}
