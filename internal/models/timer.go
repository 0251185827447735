package models

// TimerMode is the focus timer's current interval type
type TimerMode string

const (
	TimerModeWork       TimerMode = "work"
	TimerModeShortBreak TimerMode = "shortBreak"
	TimerModeLongBreak  TimerMode = "longBreak"
)

// IsBreak reports whether the mode is one of the break intervals
func (m TimerMode) IsBreak() bool {
	return m == TimerModeShortBreak || m == TimerModeLongBreak
}

// TimerSettings holds the persisted focus timer configuration (durations in minutes)
type TimerSettings struct {
	WorkDuration            int `json:"workDuration" validate:"min=5,max=60"`
	BreakDuration           int `json:"breakDuration" validate:"min=1,max=15"`
	LongBreakDuration       int `json:"longBreakDuration" validate:"min=5,max=30"`
	SessionsBeforeLongBreak int `json:"sessionsBeforeLongBreak" validate:"min=2,max=6"`
}

// DefaultTimerSettings returns the settings used when nothing has been stored
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		WorkDuration:            25,
		BreakDuration:           5,
		LongBreakDuration:       15,
		SessionsBeforeLongBreak: 4,
	}
}

// DurationMinutes returns the configured length of the given mode
func (s TimerSettings) DurationMinutes(mode TimerMode) int {
	switch mode {
	case TimerModeShortBreak:
		return s.BreakDuration
	case TimerModeLongBreak:
		return s.LongBreakDuration
	default:
		return s.WorkDuration
	}
}

// TimerState is a read-only view of the focus timer
type TimerState struct {
	Mode              TimerMode     `json:"mode"`
	Running           bool          `json:"running"`
	RemainingSeconds  int           `json:"remaining_seconds"`
	ElapsedMinutes    int           `json:"elapsed_minutes"`
	CompletedSessions int           `json:"completed_sessions"`
	Settings          TimerSettings `json:"settings"`
}
