package planner

import (
	"time"

	"github.com/benvon/study-planner/internal/models"
)

const weekDays = 7

// WeeklySummary aggregates the seven local days ending with now's day, oldest first.
// Tasks count on their completion day and sessions on their start day.
func WeeklySummary(snap Snapshot, now time.Time) []models.DaySummary {
	loc := now.Location()
	today := StartOfDay(now)

	days := make([]models.DaySummary, weekDays)
	index := make(map[dayKey]int, weekDays)
	for i := range weekDays {
		d := today.AddDate(0, 0, i-(weekDays-1))
		days[i] = models.DaySummary{Date: d}
		index[keyOf(d, loc)] = i
	}

	for _, t := range snap.Tasks {
		if t.Status != models.TaskStatusCompleted || t.CompletedAt == nil {
			continue
		}
		if i, ok := index[keyOf(*t.CompletedAt, loc)]; ok {
			days[i].CompletedTasks++
		}
	}
	for _, s := range snap.Sessions {
		if i, ok := index[keyOf(s.StartTime, loc)]; ok {
			days[i].FocusMinutes += s.DurationMinutes
			days[i].Sessions++
		}
	}
	return days
}
