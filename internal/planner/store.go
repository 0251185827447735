package planner

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTaskNotFound is returned by the version-checked operations when the task is absent
	ErrTaskNotFound = errors.New("task not found")
	// ErrVersionConflict is returned when the caller's task version is stale
	ErrVersionConflict = errors.New("task version conflict")
)

// Snapshot is a point-in-time copy of the store's collections
type Snapshot struct {
	Tasks        []models.Task
	Exams        []models.Exam
	Sessions     []models.FocusSession
	FocusMinutes int
}

// Store is the authoritative in-memory collection of tasks, exams and focus sessions.
// Mutations replace the collections rather than editing them in place. Unknown ids are
// ignored by the plain mutation methods.
type Store struct {
	mu           sync.RWMutex
	clock        Clock
	logger       *zap.Logger
	tasks        []models.Task
	exams        []models.Exam
	sessions     []models.FocusSession
	focusMinutes int
}

// NewStore creates an empty store. A nil clock uses SystemClock.
func NewStore(clock Clock) *Store {
	if clock == nil {
		clock = SystemClock
	}
	return &Store{
		clock:  clock,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for mutation events
func (s *Store) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Now returns the store clock's current time
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// AddTask appends a new pending task built from draft
func (s *Store) AddTask(draft models.TaskDraft) models.Task {
	now := s.clock.Now()
	task := models.Task{
		ID:               uuid.New(),
		Title:            draft.Title,
		Subject:          draft.Subject,
		Difficulty:       draft.Difficulty,
		Priority:         draft.Priority,
		DueDate:          draft.DueDate,
		EstimatedMinutes: draft.EstimatedMinutes,
		Status:           models.TaskStatusPending,
		CreatedAt:        now,
		Version:          1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(slices.Clip(s.tasks), task)
	s.logger.Debug("task_added",
		zap.String("task_id", task.ID.String()),
		zap.String("priority", string(task.Priority)),
		zap.Time("due_date", task.DueDate))
	return task
}

// UpdateTask applies updates to the task with the given id. The returned bool is false
// when no such task exists, in which case nothing changes.
func (s *Store) UpdateTask(id uuid.UUID, updates ...TaskUpdate) (models.Task, bool) {
	task, err := s.update(id, 0, updates)
	return task, err == nil
}

// UpdateTaskVersion applies updates only if the stored task still has the given version
func (s *Store) UpdateTaskVersion(id uuid.UUID, version int, updates ...TaskUpdate) (models.Task, error) {
	if version <= 0 {
		return models.Task{}, ErrVersionConflict
	}
	return s.update(id, version, updates)
}

func (s *Store) update(id uuid.UUID, version int, updates []TaskUpdate) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfTask(id)
	if idx < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	if version > 0 && s.tasks[idx].Version != version {
		s.logger.Debug("task_version_conflict",
			zap.String("task_id", id.String()),
			zap.Int("expected_version", version),
			zap.Int("current_version", s.tasks[idx].Version))
		return models.Task{}, ErrVersionConflict
	}

	task := s.tasks[idx]
	applied := 0
	for _, u := range updates {
		if u.apply != nil {
			u.apply(&task)
			applied++
		}
	}
	// An empty patch leaves the version alone so other holders of it stay current
	if applied == 0 {
		return task, nil
	}
	task.Version++

	tasks := slices.Clone(s.tasks)
	tasks[idx] = task
	s.tasks = tasks

	s.logger.Debug("task_updated",
		zap.String("task_id", id.String()),
		zap.Strings("fields", updateFields(updates)),
		zap.Int("version", task.Version))
	return task, nil
}

// CompleteTask marks a pending task completed and stamps CompletedAt. Completing an
// already completed task changes nothing. The bool is false for unknown ids.
func (s *Store) CompleteTask(id uuid.UUID) (models.Task, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfTask(id)
	if idx < 0 {
		return models.Task{}, false
	}
	task := s.tasks[idx]
	if task.Status == models.TaskStatusCompleted {
		return task, true
	}

	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	task.Version++

	tasks := slices.Clone(s.tasks)
	tasks[idx] = task
	s.tasks = tasks

	s.logger.Debug("task_completed", zap.String("task_id", id.String()))
	return task, true
}

// DeleteTask removes the task with the given id. The bool reports whether it existed.
func (s *Store) DeleteTask(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfTask(id)
	if idx < 0 {
		return false
	}
	s.tasks = slices.Delete(slices.Clone(s.tasks), idx, idx+1)
	s.logger.Debug("task_deleted", zap.String("task_id", id.String()))
	return true
}

// Task returns a single task by id
func (s *Store) Task(id uuid.UUID) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOfTask(id)
	if idx < 0 {
		return models.Task{}, false
	}
	return s.tasks[idx], true
}

// Tasks returns a copy of all tasks in insertion order
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// AddExam appends a new exam built from draft
func (s *Store) AddExam(draft models.ExamDraft) models.Exam {
	exam := models.Exam{
		ID:         uuid.New(),
		Title:      draft.Title,
		Subject:    draft.Subject,
		Date:       draft.Date,
		Duration:   draft.Duration,
		Topics:     slices.Clone(draft.Topics),
		Difficulty: draft.Difficulty,
	}
	if exam.Topics == nil {
		exam.Topics = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.exams = append(slices.Clip(s.exams), exam)
	s.logger.Debug("exam_added",
		zap.String("exam_id", exam.ID.String()),
		zap.Time("date", exam.Date))
	return exam
}

// DeleteExam removes the exam with the given id. The bool reports whether it existed.
func (s *Store) DeleteExam(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.exams, func(e models.Exam) bool { return e.ID == id })
	if idx < 0 {
		return false
	}
	s.exams = slices.Delete(slices.Clone(s.exams), idx, idx+1)
	s.logger.Debug("exam_deleted", zap.String("exam_id", id.String()))
	return true
}

// Exams returns a copy of all exams in insertion order
func (s *Store) Exams() []models.Exam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.exams)
}

// AddFocusSession records a session that ended now and lasted minutes.
// Zero or negative durations are not recorded.
func (s *Store) AddFocusSession(minutes int, completed bool) (models.FocusSession, bool) {
	if minutes <= 0 {
		return models.FocusSession{}, false
	}
	now := s.clock.Now()
	session := models.FocusSession{
		ID:              uuid.New(),
		StartTime:       now.Add(-time.Duration(minutes) * time.Minute),
		EndTime:         now,
		DurationMinutes: minutes,
		Completed:       completed,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(slices.Clip(s.sessions), session)
	s.focusMinutes += minutes
	s.logger.Debug("focus_session_recorded",
		zap.String("session_id", session.ID.String()),
		zap.Int("duration_minutes", minutes),
		zap.Bool("completed", completed),
		zap.Int("total_focus_minutes", s.focusMinutes))
	return session, true
}

// RecordFocusSession lets the focus timer report finished intervals
func (s *Store) RecordFocusSession(minutes int, completed bool) {
	s.AddFocusSession(minutes, completed)
}

// FocusSessions returns a copy of the recorded sessions, oldest first
func (s *Store) FocusSessions() []models.FocusSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sessions)
}

// Snapshot returns copies of all collections taken under one lock
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tasks:        slices.Clone(s.tasks),
		Exams:        slices.Clone(s.exams),
		Sessions:     slices.Clone(s.sessions),
		FocusMinutes: s.focusMinutes,
	}
}

// Stats computes the statistics aggregate for the current instant
func (s *Store) Stats() models.UserStats {
	return ComputeStats(s.Snapshot(), s.clock.Now())
}

// PrioritizedTasks returns pending tasks in work order for the current instant
func (s *Store) PrioritizedTasks() []models.Task {
	return PrioritizeTasks(s.Tasks(), s.clock.Now())
}

// UpcomingExams returns exams after the current instant, soonest first
func (s *Store) UpcomingExams() []models.Exam {
	return UpcomingExams(s.Exams(), s.clock.Now())
}

// WeeklySummary returns the last seven local days of activity, oldest first
func (s *Store) WeeklySummary() []models.DaySummary {
	return WeeklySummary(s.Snapshot(), s.clock.Now())
}

func (s *Store) log() *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *Store) indexOfTask(id uuid.UUID) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
}
