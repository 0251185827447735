package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/gorilla/mux"
)

// TaskHandler handles task requests against the entity store
type TaskHandler struct {
	store *planner.Store
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(store *planner.Store) *TaskHandler {
	return &TaskHandler{store: store}
}

// RegisterRoutes registers task routes on a router already prefixed with /tasks
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/prioritized", h.PrioritizedTasks).Methods("GET")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// MaxTitleLength bounds task and exam titles after sanitizing
const MaxTitleLength = 200

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Subject          string            `json:"subject" validate:"max=100"`
	Difficulty       models.Difficulty `json:"difficulty" validate:"required,difficulty"`
	Priority         models.Priority   `json:"priority" validate:"required,priority"`
	DueDate          string            `json:"due_date" validate:"required"`
	EstimatedMinutes int               `json:"estimated_minutes" validate:"min=0,max=1440"`
}

// UpdateTaskRequest carries the fields to change; absent fields stay as they are
type UpdateTaskRequest struct {
	Title            *string            `json:"title,omitempty" validate:"omitempty,max=200"`
	Subject          *string            `json:"subject,omitempty" validate:"omitempty,max=100"`
	Difficulty       *models.Difficulty `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	Priority         *models.Priority   `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate          *string            `json:"due_date,omitempty"`
	EstimatedMinutes *int               `json:"estimated_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
}

// TaskResponse is a task with its display status, which reports overdue tasks
type TaskResponse struct {
	models.Task
	DisplayStatus models.TaskStatus `json:"display_status"`
}

func (h *TaskHandler) toResponse(task models.Task) TaskResponse {
	return TaskResponse{Task: task, DisplayStatus: task.DisplayStatus(planner.StartOfDay(h.store.Now()))}
}

func (h *TaskHandler) toResponses(tasks []models.Task) []TaskResponse {
	dayStart := planner.StartOfDay(h.store.Now())
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskResponse{Task: t, DisplayStatus: t.DisplayStatus(dayStart)})
	}
	return out
}

// ListTasks lists all tasks in insertion order. An optional status filter accepts
// pending, completed or overdue.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.toResponses(h.store.Tasks())

	if status := r.URL.Query().Get("status"); status != "" {
		switch models.TaskStatus(status) {
		case models.TaskStatusPending, models.TaskStatusCompleted, models.TaskStatusOverdue:
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "invalid status: "+status)
			return
		}
		filtered := make([]TaskResponse, 0, len(tasks))
		for _, t := range tasks {
			if string(t.DisplayStatus) == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	respondJSON(w, http.StatusOK, tasks)
}

// PrioritizedTasks returns pending tasks, overdue first, then by priority and due date
func (h *TaskHandler) PrioritizedTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.toResponses(h.store.PrioritizedTasks()))
}

// CreateTask creates a new pending task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	due, err := parseDate(req.DueDate, h.location())
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	task := h.store.AddTask(models.TaskDraft{
		Title:            title,
		Subject:          validation.SanitizeText(req.Subject),
		Difficulty:       req.Difficulty,
		Priority:         req.Priority,
		DueDate:          due,
		EstimatedMinutes: req.EstimatedMinutes,
	})

	setETag(w, task.Version)
	respondJSON(w, http.StatusCreated, h.toResponse(task))
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, found := h.store.Task(id)
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	setETag(w, task.Version)
	respondJSON(w, http.StatusOK, h.toResponse(task))
}

// UpdateTask applies a partial update. With If-Match the update only lands if the
// stored version still matches.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updates, err := h.buildUpdates(req)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var task models.Task
	if version > 0 {
		task, err = h.store.UpdateTaskVersion(id, version, updates...)
	} else {
		var found bool
		task, found = h.store.UpdateTask(id, updates...)
		if !found {
			err = planner.ErrTaskNotFound
		}
	}

	switch {
	case errors.Is(err, planner.ErrTaskNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	case errors.Is(err, planner.ErrVersionConflict):
		respondJSONError(w, http.StatusConflict, "Conflict", "Task was modified by another request")
		return
	case err != nil:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	setETag(w, task.Version)
	respondJSON(w, http.StatusOK, h.toResponse(task))
}

func (h *TaskHandler) buildUpdates(req UpdateTaskRequest) ([]planner.TaskUpdate, error) {
	var updates []planner.TaskUpdate
	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if title == "" {
			return nil, errors.New("title cannot be empty")
		}
		updates = append(updates, planner.Rename(title))
	}
	if req.Subject != nil {
		updates = append(updates, planner.ChangeSubject(validation.SanitizeText(*req.Subject)))
	}
	if req.Difficulty != nil {
		updates = append(updates, planner.ChangeDifficulty(*req.Difficulty))
	}
	if req.Priority != nil {
		updates = append(updates, planner.ChangePriority(*req.Priority))
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate, h.location())
		if err != nil {
			return nil, err
		}
		updates = append(updates, planner.Reschedule(due))
	}
	if req.EstimatedMinutes != nil {
		updates = append(updates, planner.ChangeEstimate(*req.EstimatedMinutes))
	}
	return updates, nil
}

// CompleteTask marks a task completed; completing it again is a no-op
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, found := h.store.CompleteTask(id)
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	setETag(w, task.Version)
	respondJSON(w, http.StatusOK, h.toResponse(task))
}

// DeleteTask removes a task. Unknown ids succeed too.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.store.DeleteTask(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) location() *time.Location {
	return h.store.Now().Location()
}
