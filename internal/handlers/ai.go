package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/study-planner/internal/planner"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/workers"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AIHandler serves study recommendations. Synchronous requests call the gateway
// directly; job requests go through the queue when one is configured.
type AIHandler struct {
	store       *planner.Store
	provider    ai.AIProvider
	jobQueue    queue.JobQueue
	results     workers.ResultStore
	hoursPerDay float64
	logger      *zap.Logger
}

// NewAIHandler creates a new AI handler. jobQueue and results may be nil, which
// disables the job endpoints.
func NewAIHandler(store *planner.Store, provider ai.AIProvider, jobQueue queue.JobQueue, results workers.ResultStore, hoursPerDay float64, logger *zap.Logger) *AIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIHandler{
		store:       store,
		provider:    provider,
		jobQueue:    jobQueue,
		results:     results,
		hoursPerDay: hoursPerDay,
		logger:      logger,
	}
}

// RegisterRoutes registers AI routes on a router already prefixed with /ai
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/recommendations", h.Recommend).Methods("POST")
	r.HandleFunc("/recommendations/jobs", h.EnqueueRecommendation).Methods("POST")
	r.HandleFunc("/recommendations/jobs/{id}", h.GetRecommendationJob).Methods("GET")
}

// RecommendRequest optionally overrides the configured study hours per day
type RecommendRequest struct {
	AvailableHoursPerDay *float64 `json:"available_hours_per_day,omitempty" validate:"omitempty,gt=0,lte=24"`
}

// EnqueueResponse is returned when a recommendation job is accepted
type EnqueueResponse struct {
	JobID  uuid.UUID            `json:"job_id"`
	Status workers.ResultStatus `json:"status"`
}

// buildRequest snapshots all tasks and the upcoming exams
func (h *AIHandler) buildRequest(w http.ResponseWriter, r *http.Request) (*ai.RecommendationRequest, bool) {
	hours := h.hoursPerDay
	if r.ContentLength != 0 {
		var body RecommendRequest
		if !decodeJSON(w, r, &body) {
			return nil, false
		}
		if body.AvailableHoursPerDay != nil {
			hours = *body.AvailableHoursPerDay
		}
	}
	now := h.store.Now()
	return ai.NewRecommendationRequest(h.store.Tasks(), planner.UpcomingExams(h.store.Exams(), now), hours, now), true
}

// Recommend asks the gateway for study recommendations and waits for the answer
func (h *AIHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI recommendations are not configured")
		return
	}
	req, ok := h.buildRequest(w, r)
	if !ok {
		return
	}

	text, err := h.provider.RecommendStudyPlan(r.Context(), req)
	if err != nil {
		status, message := ai.StatusAndMessage(err)
		h.logger.Warn("recommendation_failed", zap.Int("status", status), zap.Error(err))
		if ai.IsRateLimitError(err) {
			w.Header().Set("Retry-After", strconv.Itoa(int(ai.GetRetryDelay(err, 0).Seconds())))
		}
		respondJSONError(w, status, http.StatusText(status), message)
		return
	}

	respondJSON(w, http.StatusOK, ai.RecommendationResponse{Recommendations: text})
}

// EnqueueRecommendation queues a recommendation job and returns its id
func (h *AIHandler) EnqueueRecommendation(w http.ResponseWriter, r *http.Request) {
	if h.jobQueue == nil || h.results == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background recommendations are not configured")
		return
	}
	req, ok := h.buildRequest(w, r)
	if !ok {
		return
	}

	job, err := queue.NewJob(queue.JobTypeStudyRecommendation, req, queue.ExpiresIn(workers.DefaultResultTTL))
	if err != nil {
		h.logger.Error("recommendation_job_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create job")
		return
	}

	// Record the queued state first so a fast worker cannot be overwritten
	if err := h.results.Save(r.Context(), workers.JobResult{JobID: job.ID, Status: workers.ResultStatusQueued, UpdatedAt: time.Now()}); err != nil {
		h.logger.Error("recommendation_job_result_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create job")
		return
	}
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("recommendation_job_enqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue job")
		return
	}

	h.logger.Info("recommendation_job_enqueued", zap.String("job_id", job.ID.String()))
	w.Header().Set("Location", "/api/v1/ai/recommendations/jobs/"+job.ID.String())
	respondJSON(w, http.StatusAccepted, EnqueueResponse{JobID: job.ID, Status: workers.ResultStatusQueued})
}

// GetRecommendationJob returns the job's status and, once finished, its text or error
func (h *AIHandler) GetRecommendationJob(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background recommendations are not configured")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.results.Get(r.Context(), id)
	if errors.Is(err, workers.ErrResultNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Job not found")
		return
	}
	if err != nil {
		h.logger.Error("recommendation_job_lookup_failed", zap.String("job_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load job")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
