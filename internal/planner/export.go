package planner

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	exportDateLayout = "Jan 2, 2006"
	exportTimeLayout = "3:04 PM"
)

// formulaTriggers start a cell that spreadsheets would evaluate instead of display
const formulaTriggers = "=+-@\t\r"

// csvText quotes user text that a spreadsheet would otherwise run as a formula
func csvText(s string) string {
	if s != "" && strings.ContainsRune(formulaTriggers, rune(s[0])) {
		return "'" + s
	}
	return s
}

// ExportFileName names the CSV download for the given day
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("study-stats-%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes the statistics export: the weekly summary, every task, every focus
// session and the overall stats, as four sections separated by blank lines.
// Times are rendered in now's location.
func WriteCSV(w io.Writer, snap Snapshot, now time.Time) error {
	loc := now.Location()
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"WEEKLY PRODUCTIVITY SUMMARY"},
		{"Date", "Completed Tasks", "Focus Minutes", "Sessions"},
	}
	for _, day := range WeeklySummary(snap, now) {
		rows = append(rows, []string{
			day.Date.Format(exportDateLayout),
			strconv.Itoa(day.CompletedTasks),
			strconv.Itoa(day.FocusMinutes),
			strconv.Itoa(day.Sessions),
		})
	}

	// nil rows render as the blank lines between sections
	rows = append(rows, nil, nil,
		[]string{"TASKS"},
		[]string{"Title", "Subject", "Difficulty", "Status", "Due Date", "Priority"},
	)
	for _, t := range snap.Tasks {
		due := "N/A"
		if !t.DueDate.IsZero() {
			due = t.DueDate.In(loc).Format(exportDateLayout)
		}
		rows = append(rows, []string{csvText(t.Title), csvText(t.Subject), string(t.Difficulty), string(t.Status), due, string(t.Priority)})
	}

	rows = append(rows, nil, nil,
		[]string{"FOCUS SESSIONS"},
		[]string{"Date", "Time", "Duration (mins)", "Completed"},
	)
	for _, s := range snap.Sessions {
		completed := "No"
		if s.Completed {
			completed = "Yes"
		}
		start := s.StartTime.In(loc)
		rows = append(rows, []string{
			start.Format(exportDateLayout),
			start.Format(exportTimeLayout),
			strconv.Itoa(s.DurationMinutes),
			completed,
		})
	}

	stats := ComputeStats(snap, now)
	rows = append(rows, nil, nil,
		[]string{"OVERALL STATS"},
		[]string{"Total Tasks Completed", strconv.Itoa(stats.CompletedTasks)},
		[]string{"Focus Time (minutes)", strconv.Itoa(stats.TotalFocusMinutes)},
		[]string{"Current Streak (days)", strconv.Itoa(stats.Streak)},
		[]string{"Pending Tasks", strconv.Itoa(stats.PendingTasks)},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}
