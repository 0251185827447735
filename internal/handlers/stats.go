package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/benvon/study-planner/internal/planner"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatsHandler serves focus sessions and the derived statistics views
type StatsHandler struct {
	store  *planner.Store
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store *planner.Store, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{store: store, logger: logger}
}

// RegisterRoutes registers session, stats and export routes on the API router
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	r.HandleFunc("/sessions", h.AddSession).Methods("POST")
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/stats/weekly", h.GetWeekly).Methods("GET")
	r.HandleFunc("/export/csv", h.ExportCSV).Methods("GET")
}

// AddSessionRequest logs focus time recorded outside the server's timer
type AddSessionRequest struct {
	DurationMinutes int  `json:"duration_minutes" validate:"min=0,max=1440"`
	Completed       bool `json:"completed"`
}

// ListSessions lists recorded focus sessions, oldest first
func (h *StatsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.FocusSessions())
}

// AddSession records a focus session. Zero minutes is accepted and records nothing.
func (h *StatsHandler) AddSession(w http.ResponseWriter, r *http.Request) {
	var req AddSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, recorded := h.store.AddFocusSession(req.DurationMinutes, req.Completed)
	if !recorded {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// GetStats returns the statistics aggregate
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Stats())
}

// GetWeekly returns the last seven days of activity
func (h *StatsHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.WeeklySummary())
}

// ExportCSV streams the statistics export as a CSV attachment
func (h *StatsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	now := h.store.Now()

	// Render fully before writing headers so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := planner.WriteCSV(&buf, h.store.Snapshot(), now); err != nil {
		h.logger.Error("csv_export_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to export statistics")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", planner.ExportFileName(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("csv_export_write_failed", zap.Error(err))
	}
}
