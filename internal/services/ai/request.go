package ai

import (
	"time"

	"github.com/benvon/study-planner/internal/models"
)

// DefaultHoursPerDay is used when a request does not say how much time is available
const DefaultHoursPerDay = 4

const isoDate = "2006-01-02"

// TaskInput is a task as sent to the suggestion gateway
type TaskInput struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Subject          string `json:"subject"`
	Difficulty       string `json:"difficulty"`
	DueDate          string `json:"dueDate"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Status           string `json:"status"`
	Priority         string `json:"priority"`
}

// ExamInput is an exam as sent to the suggestion gateway
type ExamInput struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Subject    string   `json:"subject"`
	Date       string   `json:"date"`
	Duration   int      `json:"duration"`
	Topics     []string `json:"topics"`
	Difficulty string   `json:"difficulty"`
}

// RecommendationRequest is the gateway request body
type RecommendationRequest struct {
	Tasks                []TaskInput `json:"tasks"`
	Exams                []ExamInput `json:"exams"`
	AvailableHoursPerDay float64     `json:"availableHoursPerDay"`
	// Today is the ISO date the prompt is anchored to
	Today string `json:"today,omitempty"`
}

// RecommendationResponse is the gateway response body; exactly one field is set
type RecommendationResponse struct {
	Recommendations string `json:"recommendations,omitempty"`
	Error           string `json:"error,omitempty"`
}

// NewRecommendationRequest serializes tasks and exams with ISO (UTC) dates
func NewRecommendationRequest(tasks []models.Task, exams []models.Exam, hoursPerDay float64, now time.Time) *RecommendationRequest {
	req := &RecommendationRequest{
		Tasks:                make([]TaskInput, 0, len(tasks)),
		Exams:                make([]ExamInput, 0, len(exams)),
		AvailableHoursPerDay: hoursPerDay,
		Today:                now.UTC().Format(isoDate),
	}
	for _, t := range tasks {
		req.Tasks = append(req.Tasks, TaskInput{
			ID:               t.ID.String(),
			Title:            t.Title,
			Subject:          t.Subject,
			Difficulty:       string(t.Difficulty),
			DueDate:          t.DueDate.UTC().Format(isoDate),
			EstimatedMinutes: t.EstimatedMinutes,
			Status:           string(t.Status),
			Priority:         string(t.Priority),
		})
	}
	for _, e := range exams {
		topics := e.Topics
		if topics == nil {
			topics = []string{}
		}
		req.Exams = append(req.Exams, ExamInput{
			ID:         e.ID.String(),
			Title:      e.Title,
			Subject:    e.Subject,
			Date:       e.Date.UTC().Format(isoDate),
			Duration:   e.Duration,
			Topics:     topics,
			Difficulty: string(e.Difficulty),
		})
	}
	return req
}

// HoursPerDay returns the requested hours or DefaultHoursPerDay when unset
func (r *RecommendationRequest) HoursPerDay() float64 {
	if r.AvailableHoursPerDay <= 0 {
		return DefaultHoursPerDay
	}
	return r.AvailableHoursPerDay
}
