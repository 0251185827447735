package timer

import (
	"sync"

	"github.com/benvon/study-planner/internal/models"
	"go.uber.org/zap"
)

// SessionRecorder receives focus sessions when a work interval ends.
// minutes may be zero; recorders are expected to ignore such sessions.
type SessionRecorder interface {
	RecordFocusSession(minutes int, completed bool)
}

type sessionEvent struct {
	minutes   int
	completed bool
}

// Timer is the focus timer state machine. It does not tick by itself; see Runner.
type Timer struct {
	mu                sync.Mutex
	settings          models.TimerSettings
	mode              models.TimerMode
	running           bool
	remaining         int // seconds
	intervalMinutes   int // length of the active interval, fixed when it started
	completedSessions int
	recorder          SessionRecorder
	logger            *zap.Logger
}

// New creates a stopped timer in work mode with the full work duration remaining
func New(settings models.TimerSettings, recorder SessionRecorder, logger *zap.Logger) *Timer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Timer{
		settings: settings,
		mode:     models.TimerModeWork,
		recorder: recorder,
		logger:   logger,
	}
	t.beginInterval()
	return t
}

// State returns a copy of the timer's current state
func (t *Timer) State() models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// Start sets the run flag
func (t *Timer) Start() models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining > 0 {
		t.running = true
	}
	return t.stateLocked()
}

// Pause clears the run flag without touching remaining time
func (t *Timer) Pause() models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	return t.stateLocked()
}

// Toggle flips between running and paused
func (t *Timer) Toggle() models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.running = false
	} else if t.remaining > 0 {
		t.running = true
	}
	return t.stateLocked()
}

// Tick advances a running timer by one second and completes the interval when it
// reaches zero. A stopped timer is left unchanged.
func (t *Timer) Tick() models.TimerState {
	t.mu.Lock()
	if !t.running || t.remaining <= 0 {
		state := t.stateLocked()
		t.mu.Unlock()
		return state
	}

	t.remaining--
	var event *sessionEvent
	if t.remaining == 0 {
		from := t.mode
		if t.mode == models.TimerModeWork {
			event = &sessionEvent{minutes: t.intervalMinutes, completed: true}
		}
		t.advance()
		t.logger.Info("timer_interval_completed",
			zap.String("from_mode", string(from)),
			zap.String("to_mode", string(t.mode)),
			zap.Int("completed_sessions", t.completedSessions))
	}
	state := t.stateLocked()
	t.mu.Unlock()

	t.emit(event)
	return state
}

// Reset stops the timer and restores the full duration of the current mode. A work
// interval with at least one elapsed minute is recorded as an incomplete session.
func (t *Timer) Reset() models.TimerState {
	t.mu.Lock()
	var event *sessionEvent
	if t.mode == models.TimerModeWork {
		if elapsed := t.elapsedMinutes(); elapsed > 0 {
			event = &sessionEvent{minutes: elapsed, completed: false}
		}
	}
	t.running = false
	t.beginInterval()
	t.logger.Debug("timer_reset", zap.String("mode", string(t.mode)))
	state := t.stateLocked()
	t.mu.Unlock()

	t.emit(event)
	return state
}

// Skip ends the current interval early. Skipping work reports the elapsed minutes as an
// incomplete session and counts toward the long break like a natural completion.
// Skipping a break returns to work without reporting anything.
func (t *Timer) Skip() models.TimerState {
	t.mu.Lock()
	var event *sessionEvent
	from := t.mode
	if t.mode == models.TimerModeWork {
		event = &sessionEvent{minutes: t.elapsedMinutes(), completed: false}
	}
	t.advance()
	t.logger.Debug("timer_skipped",
		zap.String("from_mode", string(from)),
		zap.String("to_mode", string(t.mode)))
	state := t.stateLocked()
	t.mu.Unlock()

	t.emit(event)
	return state
}

// UpdateSettings replaces the durations. A stopped timer restarts its current interval
// at the new length; a running one picks the change up at the next transition.
func (t *Timer) UpdateSettings(settings models.TimerSettings) models.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = settings
	if !t.running {
		t.beginInterval()
	}
	return t.stateLocked()
}

// advance moves to the next mode and stops the timer. Callers hold mu.
func (t *Timer) advance() {
	if t.mode == models.TimerModeWork {
		t.completedSessions++
		if t.completedSessions >= t.settings.SessionsBeforeLongBreak {
			t.mode = models.TimerModeLongBreak
			t.completedSessions = 0
		} else {
			t.mode = models.TimerModeShortBreak
		}
	} else {
		t.mode = models.TimerModeWork
	}
	t.running = false
	t.beginInterval()
}

func (t *Timer) beginInterval() {
	t.intervalMinutes = t.settings.DurationMinutes(t.mode)
	t.remaining = max(t.intervalMinutes*60, 0)
}

func (t *Timer) elapsedMinutes() int {
	return max(t.intervalMinutes*60-t.remaining, 0) / 60
}

func (t *Timer) stateLocked() models.TimerState {
	return models.TimerState{
		Mode:              t.mode,
		Running:           t.running,
		RemainingSeconds:  t.remaining,
		ElapsedMinutes:    t.elapsedMinutes(),
		CompletedSessions: t.completedSessions,
		Settings:          t.settings,
	}
}

func (t *Timer) emit(event *sessionEvent) {
	if event == nil || t.recorder == nil {
		return
	}
	t.recorder.RecordFocusSession(event.minutes, event.completed)
}
