package planner

import (
	"time"

	"github.com/benvon/study-planner/internal/models"
)

// TaskUpdate is a single named field change applied by Store.UpdateTask.
// Status and completion time are not reachable through updates; use CompleteTask.
type TaskUpdate struct {
	field string
	apply func(*models.Task)
}

// Field returns the name of the field the update changes
func (u TaskUpdate) Field() string {
	return u.field
}

// Reschedule moves the task's due date
func Reschedule(dueDate time.Time) TaskUpdate {
	return TaskUpdate{field: "due_date", apply: func(t *models.Task) { t.DueDate = dueDate }}
}

// Rename changes the task title
func Rename(title string) TaskUpdate {
	return TaskUpdate{field: "title", apply: func(t *models.Task) { t.Title = title }}
}

// ChangeSubject changes the task subject
func ChangeSubject(subject string) TaskUpdate {
	return TaskUpdate{field: "subject", apply: func(t *models.Task) { t.Subject = subject }}
}

// ChangePriority changes the task priority
func ChangePriority(priority models.Priority) TaskUpdate {
	return TaskUpdate{field: "priority", apply: func(t *models.Task) { t.Priority = priority }}
}

// ChangeDifficulty changes the task difficulty
func ChangeDifficulty(difficulty models.Difficulty) TaskUpdate {
	return TaskUpdate{field: "difficulty", apply: func(t *models.Task) { t.Difficulty = difficulty }}
}

// ChangeEstimate changes the estimated minutes
func ChangeEstimate(minutes int) TaskUpdate {
	return TaskUpdate{field: "estimated_minutes", apply: func(t *models.Task) { t.EstimatedMinutes = minutes }}
}

func updateFields(updates []TaskUpdate) []string {
	fields := make([]string, 0, len(updates))
	for _, u := range updates {
		fields = append(fields, u.field)
	}
	return fields
}
