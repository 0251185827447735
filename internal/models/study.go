package models

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty represents how demanding a task or exam is
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort rank of a priority (high first). Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// TaskStatus represents the status of a task.
// Only pending and completed are ever stored; overdue is derived.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOverdue   TaskStatus = "overdue"
)

// Task represents a study task
type Task struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Subject          string     `json:"subject"`
	Difficulty       Difficulty `json:"difficulty"`
	Priority         Priority   `json:"priority"`
	DueDate          time.Time  `json:"due_date"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Status           TaskStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Version          int        `json:"version"`
}

// TaskDraft is the caller-supplied part of a new task
type TaskDraft struct {
	Title            string
	Subject          string
	Difficulty       Difficulty
	Priority         Priority
	DueDate          time.Time
	EstimatedMinutes int
}

// IsPending reports whether the task is still open
func (t *Task) IsPending() bool {
	return t.Status == TaskStatusPending
}

// IsOverdueOn reports whether a pending task was due before dayStart.
// Used by the statistics aggregate, which works at day granularity.
func (t *Task) IsOverdueOn(dayStart time.Time) bool {
	return t.IsPending() && t.DueDate.Before(dayStart)
}

// IsOverdueAt reports whether a pending task was due before the given instant.
// Used by task prioritization, which compares full timestamps.
func (t *Task) IsOverdueAt(instant time.Time) bool {
	return t.IsPending() && t.DueDate.Before(instant)
}

// DisplayStatus returns the status including the derived overdue state
func (t *Task) DisplayStatus(dayStart time.Time) TaskStatus {
	if t.IsOverdueOn(dayStart) {
		return TaskStatusOverdue
	}
	return t.Status
}

// Exam represents an upcoming exam
type Exam struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Subject    string     `json:"subject"`
	Date       time.Time  `json:"date"`
	Duration   int        `json:"duration"` // minutes
	Topics     []string   `json:"topics"`
	Difficulty Difficulty `json:"difficulty"`
}

// ExamDraft is the caller-supplied part of a new exam
type ExamDraft struct {
	Title      string
	Subject    string
	Date       time.Time
	Duration   int
	Topics     []string
	Difficulty Difficulty
}

// FocusSession is a recorded stretch of focused work time
type FocusSession struct {
	ID              uuid.UUID `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Completed       bool      `json:"completed"`
}

// UserStats is the derived statistics aggregate
type UserStats struct {
	PendingTasks      int `json:"pending_tasks"`
	OverdueTasks      int `json:"overdue_tasks"`
	CompletedTasks    int `json:"completed_tasks"`
	Streak            int `json:"streak"`
	TotalFocusMinutes int `json:"total_focus_minutes"`
}

// DaySummary aggregates one local calendar day of activity
type DaySummary struct {
	Date           time.Time `json:"date"`
	CompletedTasks int       `json:"completed_tasks"`
	FocusMinutes   int       `json:"focus_minutes"`
	Sessions       int       `json:"sessions"`
}
