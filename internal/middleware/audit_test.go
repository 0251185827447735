package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantEvent string
	}{
		{name: "ok is silent", status: http.StatusOK},
		{name: "bad request is silent", status: http.StatusBadRequest},
		{name: "rate limited", status: http.StatusTooManyRequests, wantEvent: "rate_limit_violation"},
		{name: "too large", status: http.StatusRequestEntityTooLarge, wantEvent: "request_rejected"},
		{name: "wrong media type", status: http.StatusUnsupportedMediaType, wantEvent: "request_rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			handler := Audit(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", nil)
			req.Header.Set("X-Real-IP", "192.0.2.1")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantEvent == "" {
				if logs.Len() != 0 {
					t.Errorf("Expected no audit entries, got %d", logs.Len())
				}
				return
			}
			entries := logs.FilterMessage(tt.wantEvent).All()
			if len(entries) != 1 {
				t.Fatalf("Expected one %s entry, got %d", tt.wantEvent, len(entries))
			}
			if ip := entries[0].ContextMap()["ip"]; ip != "192.0.2.1" {
				t.Errorf("Expected ip 192.0.2.1, got %v", ip)
			}
		})
	}
}
