package planner

import (
	"time"

	"github.com/benvon/study-planner/internal/models"
	"go.uber.org/zap"
)

// SeedDemo loads a small fixed set of tasks and exams dated relative to the store's clock
func SeedDemo(s *Store) {
	now := s.clock.Now()
	day := 24 * time.Hour

	tasks := []models.TaskDraft{
		{
			Title:            "Review calculus derivatives",
			Subject:          "Mathematics",
			Difficulty:       models.DifficultyMedium,
			Priority:         models.PriorityHigh,
			DueDate:          now.Add(day),
			EstimatedMinutes: 60,
		},
		{
			Title:            "Read chapter 5 of the biology textbook",
			Subject:          "Biology",
			Difficulty:       models.DifficultyEasy,
			Priority:         models.PriorityMedium,
			DueDate:          now.Add(2 * day),
			EstimatedMinutes: 45,
		},
		{
			Title:            "Chemistry lab report",
			Subject:          "Chemistry",
			Difficulty:       models.DifficultyHard,
			Priority:         models.PriorityHigh,
			DueDate:          now.Add(3 * day),
			EstimatedMinutes: 120,
		},
	}
	for _, t := range tasks {
		s.AddTask(t)
	}

	exams := []models.ExamDraft{
		{
			Title:      "Midterm Exam",
			Subject:    "Mathematics",
			Date:       now.Add(7 * day),
			Duration:   120,
			Topics:     []string{"Derivatives", "Integrals", "Limits"},
			Difficulty: models.DifficultyHard,
		},
		{
			Title:      "Biology Quiz",
			Subject:    "Biology",
			Date:       now.Add(4 * day),
			Duration:   45,
			Topics:     []string{"Cell Structure", "Photosynthesis"},
			Difficulty: models.DifficultyMedium,
		},
	}
	for _, e := range exams {
		s.AddExam(e)
	}

	s.log().Info("demo_data_seeded",
		zap.Int("tasks", len(tasks)),
		zap.Int("exams", len(exams)))
}
