package handlers

import (
	"net/http"
	"testing"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/planner"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func newExamRouter(store *planner.Store) *mux.Router {
	r := mux.NewRouter()
	NewExamHandler(store).RegisterRoutes(r.PathPrefix("/api/v1/exams").Subrouter())
	return r
}

func TestExamHandler_CreateExam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid exam",
			body:       `{"title":"Calculus midterm","subject":"Math","date":"2025-03-20","duration":90,"topics":["limits"," derivatives ",""],"difficulty":"hard"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing date",
			body:       `{"title":"Calculus midterm","difficulty":"hard"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid difficulty",
			body:       `{"title":"Calculus midterm","date":"2025-03-20","difficulty":"brutal"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative duration",
			body:       `{"title":"Calculus midterm","date":"2025-03-20","duration":-5,"difficulty":"easy"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore()
			rr := serve(newExamRouter(store), http.MethodPost, "/api/v1/exams", tt.body, nil)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (body=%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var exam models.Exam
			decodeData(t, rr, &exam)
			if exam.ID == uuid.Nil || exam.Title != "Calculus midterm" || exam.Duration != 90 {
				t.Errorf("Unexpected exam: %+v", exam)
			}
			if len(exam.Topics) != 2 || exam.Topics[0] != "limits" || exam.Topics[1] != "derivatives" {
				t.Errorf("Expected sanitized topics, got %q", exam.Topics)
			}
		})
	}
}

func TestExamHandler_ListAndUpcoming(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	later := store.AddExam(models.ExamDraft{Title: "Physics final", Date: testNow.AddDate(0, 0, 14), Difficulty: models.DifficultyHard})
	past := store.AddExam(models.ExamDraft{Title: "Chemistry quiz", Date: testNow.AddDate(0, 0, -1), Difficulty: models.DifficultyEasy})
	soon := store.AddExam(models.ExamDraft{Title: "Math test", Date: testNow.AddDate(0, 0, 2), Difficulty: models.DifficultyMedium})
	router := newExamRouter(store)

	tests := []struct {
		name    string
		target  string
		wantIDs []uuid.UUID
	}{
		{name: "all in insertion order", target: "/api/v1/exams", wantIDs: []uuid.UUID{later.ID, past.ID, soon.ID}},
		{name: "upcoming soonest first", target: "/api/v1/exams/upcoming", wantIDs: []uuid.UUID{soon.ID, later.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := serve(router, http.MethodGet, tt.target, "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var exams []models.Exam
			decodeData(t, rr, &exams)
			if len(exams) != len(tt.wantIDs) {
				t.Fatalf("Expected %d exams, got %d", len(tt.wantIDs), len(exams))
			}
			for i, id := range tt.wantIDs {
				if exams[i].ID != id {
					t.Errorf("exams[%d] = %q", i, exams[i].Title)
				}
			}
		})
	}
}

func TestExamHandler_DeleteExam(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	exam := store.AddExam(models.ExamDraft{Title: "Physics final", Date: testNow.AddDate(0, 0, 14), Difficulty: models.DifficultyHard})
	router := newExamRouter(store)

	for _, id := range []uuid.UUID{exam.ID, uuid.New()} {
		if rr := serve(router, http.MethodDelete, "/api/v1/exams/"+id.String(), "", nil); rr.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", rr.Code)
		}
	}
	if len(store.Exams()) != 0 {
		t.Errorf("Expected no exams left, got %d", len(store.Exams()))
	}
	if rr := serve(router, http.MethodDelete, "/api/v1/exams/bogus", "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", rr.Code)
	}
}
