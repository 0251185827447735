package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// fixedClock is a settable clock for tests
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestStore(now time.Time) (*Store, *fixedClock) {
	clock := &fixedClock{now: now}
	return NewStore(clock), clock
}

func sampleDraft(title string, due time.Time) models.TaskDraft {
	return models.TaskDraft{
		Title:            title,
		Subject:          "Physics",
		Difficulty:       models.DifficultyMedium,
		Priority:         models.PriorityMedium,
		DueDate:          due,
		EstimatedMinutes: 30,
	}
}

func TestStore_AddTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	store, _ := newTestStore(now)

	task := store.AddTask(sampleDraft("", now.Add(time.Hour)))

	if task.ID == uuid.Nil {
		t.Error("Expected generated ID")
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("Expected status pending, got %s", task.Status)
	}
	if !task.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt %v, got %v", now, task.CreatedAt)
	}
	if task.CompletedAt != nil {
		t.Error("Expected CompletedAt to be nil")
	}
	if task.Version != 1 {
		t.Errorf("Expected version 1, got %d", task.Version)
	}

	other := store.AddTask(sampleDraft("second", now))
	if other.ID == task.ID {
		t.Error("Expected unique IDs")
	}
	if got := len(store.Tasks()); got != 2 {
		t.Errorf("Expected 2 tasks, got %d", got)
	}
}

func TestStore_UpdateTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	newDue := now.Add(72 * time.Hour)

	tests := []struct {
		name     string
		updates  []TaskUpdate
		validate func(*testing.T, models.Task)
	}{
		{
			name:    "reschedule",
			updates: []TaskUpdate{Reschedule(newDue)},
			validate: func(t *testing.T, task models.Task) {
				if !task.DueDate.Equal(newDue) {
					t.Errorf("Expected due date %v, got %v", newDue, task.DueDate)
				}
			},
		},
		{
			name: "several fields",
			updates: []TaskUpdate{
				Rename("Lab write-up"),
				ChangeSubject("Chemistry"),
				ChangePriority(models.PriorityHigh),
				ChangeDifficulty(models.DifficultyHard),
				ChangeEstimate(90),
			},
			validate: func(t *testing.T, task models.Task) {
				if task.Title != "Lab write-up" || task.Subject != "Chemistry" {
					t.Errorf("Unexpected title/subject: %q/%q", task.Title, task.Subject)
				}
				if task.Priority != models.PriorityHigh || task.Difficulty != models.DifficultyHard {
					t.Errorf("Unexpected priority/difficulty: %s/%s", task.Priority, task.Difficulty)
				}
				if task.EstimatedMinutes != 90 {
					t.Errorf("Expected 90 minutes, got %d", task.EstimatedMinutes)
				}
				if task.Status != models.TaskStatusPending {
					t.Errorf("Expected status to stay pending, got %s", task.Status)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, _ := newTestStore(now)
			created := store.AddTask(sampleDraft("Essay", now.Add(time.Hour)))
			untouched := store.AddTask(sampleDraft("Other", now.Add(time.Hour)))

			updated, ok := store.UpdateTask(created.ID, tt.updates...)
			if !ok {
				t.Fatal("Expected update to find the task")
			}
			if updated.Version != created.Version+1 {
				t.Errorf("Expected version %d, got %d", created.Version+1, updated.Version)
			}
			tt.validate(t, updated)

			stored, _ := store.Task(created.ID)
			tt.validate(t, stored)

			other, _ := store.Task(untouched.ID)
			if other != untouched {
				t.Error("Expected unrelated task to be unchanged")
			}
		})
	}
}

func TestStore_UpdateTask_UnknownID(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	store.AddTask(sampleDraft("Essay", time.Now()))

	if _, ok := store.UpdateTask(uuid.New(), Rename("x")); ok {
		t.Error("Expected update of unknown id to report false")
	}
	if store.Tasks()[0].Title != "Essay" {
		t.Error("Expected existing task to be unchanged")
	}
}

func TestStore_UpdateTask_EmptyKeepsVersion(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	task := store.AddTask(sampleDraft("Essay", time.Now()))

	same, ok := store.UpdateTask(task.ID)
	if !ok {
		t.Fatal("Expected task to be found")
	}
	if same.Version != task.Version || same.Title != task.Title {
		t.Errorf("Expected unchanged task, got %+v", same)
	}

	// A holder of the original version can still write
	if _, err := store.UpdateTaskVersion(task.ID, task.Version, Rename("Essay v2")); err != nil {
		t.Errorf("Expected write at original version to succeed, got %v", err)
	}
	if _, err := store.UpdateTaskVersion(task.ID, task.Version); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("Expected stale empty patch to conflict, got %v", err)
	}
}

func TestStore_UpdateTaskVersion(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	task := store.AddTask(sampleDraft("Essay", time.Now()))

	updated, err := store.UpdateTaskVersion(task.ID, task.Version, Rename("Essay v2"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = store.UpdateTaskVersion(task.ID, task.Version, Rename("stale write"))
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("Expected ErrVersionConflict, got %v", err)
	}

	_, err = store.UpdateTaskVersion(uuid.New(), 1, Rename("missing"))
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}

	current, _ := store.Task(task.ID)
	if current.Title != "Essay v2" || current.Version != updated.Version {
		t.Errorf("Expected stale write to be rejected, got %+v", current)
	}
}

func TestStore_CompleteTask_Idempotent(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	store, clock := newTestStore(start)
	task := store.AddTask(sampleDraft("Essay", start.Add(time.Hour)))

	first, ok := store.CompleteTask(task.ID)
	if !ok {
		t.Fatal("Expected task to be found")
	}
	if first.Status != models.TaskStatusCompleted || first.CompletedAt == nil {
		t.Fatalf("Expected completed task with timestamp, got %+v", first)
	}
	statsOnce := store.Stats()

	clock.now = start.Add(2 * time.Hour)
	second, ok := store.CompleteTask(task.ID)
	if !ok {
		t.Fatal("Expected task to be found on second call")
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("Expected CompletedAt to stay %v, got %v", *first.CompletedAt, *second.CompletedAt)
	}
	if second.Version != first.Version {
		t.Errorf("Expected version to stay %d, got %d", first.Version, second.Version)
	}

	clock.now = start
	if got := store.Stats(); got != statsOnce {
		t.Errorf("Expected identical stats, got %+v vs %+v", got, statsOnce)
	}

	if _, ok := store.CompleteTask(uuid.New()); ok {
		t.Error("Expected completing an unknown id to report false")
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store, _ := newTestStore(now)
	keep := store.AddTask(sampleDraft("keep", now))
	drop := store.AddTask(sampleDraft("drop", now))
	exam := store.AddExam(models.ExamDraft{Title: "Final", Date: now.Add(time.Hour)})

	if !store.DeleteTask(drop.ID) {
		t.Error("Expected delete to report existing task")
	}
	if store.DeleteTask(drop.ID) {
		t.Error("Expected second delete to be a no-op")
	}
	if store.DeleteExam(uuid.New()) {
		t.Error("Expected delete of unknown exam to be a no-op")
	}

	tasks := store.Tasks()
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("Expected only %s to remain, got %+v", keep.ID, tasks)
	}
	if len(store.Exams()) != 1 {
		t.Error("Expected exam to remain")
	}
	if !store.DeleteExam(exam.ID) || len(store.Exams()) != 0 {
		t.Error("Expected exam to be deleted")
	}
}

func TestStore_AddExam_CopiesTopics(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	topics := []string{"Limits", "Series"}
	exam := store.AddExam(models.ExamDraft{Title: "Calculus", Topics: topics})
	topics[0] = "changed"

	if exam.Topics[0] != "Limits" || store.Exams()[0].Topics[0] != "Limits" {
		t.Error("Expected exam topics to be independent of the draft slice")
	}
	if empty := store.AddExam(models.ExamDraft{Title: "No topics"}); empty.Topics == nil {
		t.Error("Expected empty topics slice, got nil")
	}
}

func TestStore_AddFocusSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	store, _ := newTestStore(now)

	tests := []struct {
		minutes   int
		completed bool
		recorded  bool
	}{
		{minutes: 25, completed: true, recorded: true},
		{minutes: 7, completed: false, recorded: true},
		{minutes: 0, completed: false, recorded: false},
		{minutes: -3, completed: false, recorded: false},
	}

	for _, tt := range tests {
		session, ok := store.AddFocusSession(tt.minutes, tt.completed)
		if ok != tt.recorded {
			t.Errorf("AddFocusSession(%d) recorded = %v, want %v", tt.minutes, ok, tt.recorded)
			continue
		}
		if !ok {
			continue
		}
		if !session.EndTime.Equal(now) {
			t.Errorf("Expected EndTime %v, got %v", now, session.EndTime)
		}
		wantStart := now.Add(-time.Duration(tt.minutes) * time.Minute)
		if !session.StartTime.Equal(wantStart) {
			t.Errorf("Expected StartTime %v, got %v", wantStart, session.StartTime)
		}
		if session.Completed != tt.completed {
			t.Errorf("Expected completed %v, got %v", tt.completed, session.Completed)
		}
	}

	if got := len(store.FocusSessions()); got != 2 {
		t.Errorf("Expected 2 sessions, got %d", got)
	}
	if got := store.Stats().TotalFocusMinutes; got != 32 {
		t.Errorf("Expected 32 focus minutes, got %d", got)
	}
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(time.Now())
	store.AddTask(sampleDraft("one", time.Now()))

	snap := store.Snapshot()
	snap.Tasks[0].Title = "mutated"
	store.AddTask(sampleDraft("two", time.Now()))

	if store.Tasks()[0].Title != "one" {
		t.Error("Expected store to be unaffected by snapshot mutation")
	}
	if len(snap.Tasks) != 1 {
		t.Errorf("Expected snapshot to keep 1 task, got %d", len(snap.Tasks))
	}
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	store, _ := newTestStore(now)
	SeedDemo(store)

	if got := len(store.Tasks()); got != 3 {
		t.Errorf("Expected 3 tasks, got %d", got)
	}
	if got := len(store.UpcomingExams()); got != 2 {
		t.Errorf("Expected 2 upcoming exams, got %d", got)
	}
	if got := store.Stats().PendingTasks; got != 3 {
		t.Errorf("Expected 3 pending tasks, got %d", got)
	}
}
