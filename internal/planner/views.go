package planner

import (
	"cmp"
	"slices"
	"time"

	"github.com/benvon/study-planner/internal/models"
)

// ComputeStats derives the statistics aggregate from a snapshot.
// Pending and overdue counts split at the start of now's day.
func ComputeStats(snap Snapshot, now time.Time) models.UserStats {
	today := StartOfDay(now)
	stats := models.UserStats{
		Streak:            Streak(snap.Tasks, now),
		TotalFocusMinutes: snap.FocusMinutes,
	}
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		switch {
		case t.Status == models.TaskStatusCompleted:
			stats.CompletedTasks++
		case t.IsOverdueOn(today):
			stats.OverdueTasks++
		case t.IsPending():
			stats.PendingTasks++
		}
	}
	return stats
}

// Streak counts consecutive local days with at least one completion, ending today or
// yesterday. It is zero when neither of those days has a completion.
func Streak(tasks []models.Task, now time.Time) int {
	loc := now.Location()
	days := make(map[dayKey]struct{})
	for _, t := range tasks {
		if t.CompletedAt != nil {
			days[keyOf(*t.CompletedAt, loc)] = struct{}{}
		}
	}
	if len(days) == 0 {
		return 0
	}

	has := func(d time.Time) bool {
		_, ok := days[keyOf(d, loc)]
		return ok
	}

	anchor := StartOfDay(now)
	if !has(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
		if !has(anchor) {
			return 0
		}
	}

	streak := 1
	for d := anchor.AddDate(0, 0, -1); has(d); d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// PrioritizeTasks returns the pending tasks ordered overdue first, then by priority rank,
// then by due date. Overdue is measured against the exact instant now.
func PrioritizeTasks(tasks []models.Task, now time.Time) []models.Task {
	pending := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsPending() {
			pending = append(pending, t)
		}
	}

	slices.SortStableFunc(pending, func(a, b models.Task) int {
		aOver, bOver := a.IsOverdueAt(now), b.IsOverdueAt(now)
		if aOver != bOver {
			if aOver {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		return a.DueDate.Compare(b.DueDate)
	})
	return pending
}

// UpcomingExams returns exams dated strictly after now, soonest first
func UpcomingExams(exams []models.Exam, now time.Time) []models.Exam {
	upcoming := make([]models.Exam, 0, len(exams))
	for _, e := range exams {
		if e.Date.After(now) {
			upcoming = append(upcoming, e)
		}
	}
	slices.SortStableFunc(upcoming, func(a, b models.Exam) int {
		return a.Date.Compare(b.Date)
	})
	return upcoming
}
