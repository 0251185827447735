package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/settings"
	"github.com/benvon/study-planner/internal/timer"
	"github.com/gorilla/mux"
)

// failingSettingsStore rejects every save with a storage error
type failingSettingsStore struct {
	settings.MemoryStore
}

func (f *failingSettingsStore) Save(context.Context, models.TimerSettings) error {
	return errors.New("disk full")
}

var _ settings.Store = (*failingSettingsStore)(nil)

func newTimerRouter(t *testing.T, store settings.Store) (*mux.Router, *timer.Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	runner := timer.NewRunner(ctx, timer.New(models.DefaultTimerSettings(), newTestStore(), nil), nil)
	t.Cleanup(func() {
		runner.Close()
		cancel()
	})

	r := mux.NewRouter()
	NewTimerHandler(runner, store, nil).RegisterRoutes(r.PathPrefix("/api/v1/timer").Subrouter())
	return r, runner
}

func TestTimerHandler_Actions(t *testing.T) {
	t.Parallel()

	router, _ := newTimerRouter(t, settings.NewMemoryStore())

	steps := []struct {
		action      string
		method      string
		wantMode    models.TimerMode
		wantRunning bool
	}{
		{action: "", method: http.MethodGet, wantMode: models.TimerModeWork, wantRunning: false},
		{action: "/start", method: http.MethodPost, wantMode: models.TimerModeWork, wantRunning: true},
		{action: "/toggle", method: http.MethodPost, wantMode: models.TimerModeWork, wantRunning: false},
		{action: "/toggle", method: http.MethodPost, wantMode: models.TimerModeWork, wantRunning: true},
		{action: "/pause", method: http.MethodPost, wantMode: models.TimerModeWork, wantRunning: false},
		{action: "/skip", method: http.MethodPost, wantMode: models.TimerModeShortBreak, wantRunning: false},
		{action: "/reset", method: http.MethodPost, wantMode: models.TimerModeShortBreak, wantRunning: false},
		{action: "/skip", method: http.MethodPost, wantMode: models.TimerModeWork, wantRunning: false},
	}

	for _, step := range steps {
		rr := serve(router, step.method, "/api/v1/timer"+step.action, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s %s: expected status 200, got %d", step.method, step.action, rr.Code)
		}
		var state models.TimerState
		decodeData(t, rr, &state)
		if state.Mode != step.wantMode || state.Running != step.wantRunning {
			t.Fatalf("%s %s: state = %+v, want mode %s running %v", step.method, step.action, state, step.wantMode, step.wantRunning)
		}
	}
}

func TestTimerHandler_Settings(t *testing.T) {
	t.Parallel()

	custom := `{"workDuration":50,"breakDuration":10,"longBreakDuration":30,"sessionsBeforeLongBreak":2}`

	tests := []struct {
		name       string
		store      settings.Store
		body       string
		wantStatus int
	}{
		{name: "valid settings", store: settings.NewMemoryStore(), body: custom, wantStatus: http.StatusOK},
		{name: "work too short", store: settings.NewMemoryStore(), body: `{"workDuration":1,"breakDuration":5,"longBreakDuration":15,"sessionsBeforeLongBreak":4}`, wantStatus: http.StatusBadRequest},
		{name: "too many sessions", store: settings.NewMemoryStore(), body: `{"workDuration":25,"breakDuration":5,"longBreakDuration":15,"sessionsBeforeLongBreak":9}`, wantStatus: http.StatusBadRequest},
		{name: "storage failure", store: &failingSettingsStore{}, body: custom, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, runner := newTimerRouter(t, tt.store)
			rr := serve(router, http.MethodPut, "/api/v1/timer/settings", tt.body, nil)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (body=%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}

			applied := runner.State()
			if tt.wantStatus != http.StatusOK {
				if applied.Settings != models.DefaultTimerSettings() {
					t.Errorf("Rejected settings should not reach the timer, got %+v", applied.Settings)
				}
				return
			}

			if applied.Settings.WorkDuration != 50 || applied.RemainingSeconds != 50*60 {
				t.Errorf("Timer did not pick up new settings: %+v", applied)
			}

			rr = serve(router, http.MethodGet, "/api/v1/timer/settings", "", nil)
			var stored models.TimerSettings
			decodeData(t, rr, &stored)
			if stored.WorkDuration != 50 || stored.SessionsBeforeLongBreak != 2 {
				t.Errorf("Stored settings = %+v", stored)
			}
		})
	}
}

func TestTimerHandler_GetSettingsDefaults(t *testing.T) {
	t.Parallel()

	router, _ := newTimerRouter(t, settings.NewMemoryStore())
	rr := serve(router, http.MethodGet, "/api/v1/timer/settings", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var got models.TimerSettings
	decodeData(t, rr, &got)
	if got != models.DefaultTimerSettings() {
		t.Errorf("Expected defaults, got %+v", got)
	}
}
