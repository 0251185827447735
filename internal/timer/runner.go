package timer

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"go.uber.org/zap"
)

// Runner drives a Timer from a single ticker goroutine
type Runner struct {
	timer    *Timer
	ctx      context.Context
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithTickInterval overrides the one second tick, mainly for tests
func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewRunner creates a runner for t. Ticking stops for good once ctx is done.
func NewRunner(ctx context.Context, t *Timer, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		timer:    t,
		ctx:      ctx,
		interval: time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timer returns the driven timer
func (r *Runner) Timer() *Timer {
	return r.timer
}

// State returns the timer state
func (r *Runner) State() models.TimerState {
	return r.timer.State()
}

// Start runs the timer, launching the tick goroutine if none is active
func (r *Runner) Start() models.TimerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.timer.Start()
	if state.Running {
		r.startTickingLocked()
	}
	return state
}

// Pause stops ticking and pauses the timer
func (r *Runner) Pause() models.TimerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTickingLocked()
	return r.timer.Pause()
}

// Toggle pauses a running timer or starts a paused one
func (r *Runner) Toggle() models.TimerState {
	if r.timer.State().Running {
		return r.Pause()
	}
	return r.Start()
}

// Reset stops ticking and resets the current interval
func (r *Runner) Reset() models.TimerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTickingLocked()
	return r.timer.Reset()
}

// Skip stops ticking and moves to the next interval
func (r *Runner) Skip() models.TimerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTickingLocked()
	return r.timer.Skip()
}

// UpdateSettings forwards new settings to the timer
func (r *Runner) UpdateSettings(settings models.TimerSettings) models.TimerState {
	return r.timer.UpdateSettings(settings)
}

// Close stops the tick goroutine and waits for it to exit
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTickingLocked()
}

func (r *Runner) startTickingLocked() {
	if r.done != nil {
		select {
		case <-r.done:
			// goroutine exited after the interval completed
			r.cancel()
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(r.ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go r.loop(ctx, done)
	r.logger.Debug("timer_ticker_started")
}

func (r *Runner) stopTickingLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
	r.logger.Debug("timer_ticker_stopped")
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if state := r.timer.Tick(); !state.Running {
				return
			}
		}
	}
}
