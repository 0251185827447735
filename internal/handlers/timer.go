package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/settings"
	"github.com/benvon/study-planner/internal/timer"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TimerHandler drives the server-side focus timer and its persisted settings
type TimerHandler struct {
	runner   *timer.Runner
	settings settings.Store
	logger   *zap.Logger
}

// NewTimerHandler creates a new timer handler
func NewTimerHandler(runner *timer.Runner, store settings.Store, logger *zap.Logger) *TimerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimerHandler{runner: runner, settings: store, logger: logger}
}

// RegisterRoutes registers timer routes on a router already prefixed with /timer
func (h *TimerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetState).Methods("GET")
	r.HandleFunc("/start", h.action(h.runner.Start)).Methods("POST")
	r.HandleFunc("/pause", h.action(h.runner.Pause)).Methods("POST")
	r.HandleFunc("/toggle", h.action(h.runner.Toggle)).Methods("POST")
	r.HandleFunc("/reset", h.action(h.runner.Reset)).Methods("POST")
	r.HandleFunc("/skip", h.action(h.runner.Skip)).Methods("POST")
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
}

// GetState returns the timer's current state
func (h *TimerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.runner.State())
}

func (h *TimerHandler) action(fn func() models.TimerState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, fn())
	}
}

// GetSettings returns the persisted settings, or the defaults when none are stored
func (h *TimerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		// Unreadable settings fall back to defaults, matching startup behavior
		h.logger.Warn("timer_settings_load_failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, s)
}

// UpdateSettings validates, persists and applies new timer settings
func (h *TimerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.TimerSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.settings.Save(r.Context(), req); err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("timer_settings_save_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save timer settings")
		return
	}

	state := h.runner.UpdateSettings(req)
	h.logger.Info("timer_settings_updated",
		zap.Int("work_minutes", req.WorkDuration),
		zap.Int("break_minutes", req.BreakDuration),
		zap.Int("long_break_minutes", req.LongBreakDuration),
		zap.Int("sessions_before_long_break", req.SessionsBeforeLongBreak),
	)
	respondJSON(w, http.StatusOK, state)
}
