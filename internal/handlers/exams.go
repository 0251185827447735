package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/gorilla/mux"
)

// ExamHandler handles exam requests
type ExamHandler struct {
	store *planner.Store
}

// NewExamHandler creates a new exam handler
func NewExamHandler(store *planner.Store) *ExamHandler {
	return &ExamHandler{store: store}
}

// RegisterRoutes registers exam routes on a router already prefixed with /exams
func (h *ExamHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListExams).Methods("GET")
	r.HandleFunc("", h.CreateExam).Methods("POST")
	r.HandleFunc("/upcoming", h.UpcomingExams).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteExam).Methods("DELETE")
}

// CreateExamRequest represents a create exam request
type CreateExamRequest struct {
	Title      string            `json:"title" validate:"required,max=200"`
	Subject    string            `json:"subject" validate:"max=100"`
	Date       string            `json:"date" validate:"required"`
	Duration   int               `json:"duration" validate:"min=0,max=1440"`
	Topics     []string          `json:"topics" validate:"max=50,dive,max=200"`
	Difficulty models.Difficulty `json:"difficulty" validate:"required,difficulty"`
}

// ListExams lists all exams in insertion order
func (h *ExamHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Exams())
}

// UpcomingExams lists exams after now, soonest first
func (h *ExamHandler) UpcomingExams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.UpcomingExams())
}

// CreateExam records a new exam
func (h *ExamHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req CreateExamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	date, err := parseDate(req.Date, h.store.Now().Location())
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	topics := make([]string, 0, len(req.Topics))
	for _, topic := range req.Topics {
		if topic = validation.SanitizeText(topic); topic != "" {
			topics = append(topics, topic)
		}
	}

	exam := h.store.AddExam(models.ExamDraft{
		Title:      title,
		Subject:    validation.SanitizeText(req.Subject),
		Date:       date,
		Duration:   req.Duration,
		Topics:     topics,
		Difficulty: req.Difficulty,
	})
	respondJSON(w, http.StatusCreated, exam)
}

// DeleteExam removes an exam. Unknown ids succeed too.
func (h *ExamHandler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.store.DeleteExam(id)
	w.WriteHeader(http.StatusNoContent)
}
