package request

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr drops port", remote: "10.0.0.1:52311", want: "10.0.0.1"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, remote: "10.0.0.1:1", want: "1.2.3.4"},
		{name: "forwarded hop with port", headers: map[string]string{"X-Forwarded-For": "1.2.3.4:8080"}, want: "1.2.3.4"},
		{name: "empty forwarded hop falls through", headers: map[string]string{"X-Forwarded-For": " ,5.6.7.8", "X-Real-IP": "9.9.9.9"}, want: "9.9.9.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "9.9.9.9"}, remote: "10.0.0.1:1", want: "9.9.9.9"},
		{name: "forwarded wins over real ip", headers: map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, want: "1.2.3.4"},
		{name: "bare remote addr", remote: "10.0.0.9", want: "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "set", ctx: WithRequestID(context.Background(), "req-123"), want: "req-123"},
		{name: "missing", ctx: context.Background(), want: ""},
		{name: "wrong type", ctx: context.WithValue(context.Background(), RequestIDContextKey(), 42), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RequestIDFromContext(tt.ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", body["timestamp"])
	}
	return body
}

func TestWriteData(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	r = r.WithContext(WithRequestID(r.Context(), "req-9"))
	rr := httptest.NewRecorder()
	if err := WriteData(rr, r, http.StatusCreated, map[string]int{"streak": 3}); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	body := decodeEnvelope(t, rr)
	if body["success"] != true || body["request_id"] != "req-9" {
		t.Errorf("unexpected envelope %v", body)
	}
	if data, ok := body["data"].(map[string]any); !ok || data["streak"] != float64(3) {
		t.Errorf("data = %v", body["data"])
	}
	if _, ok := body["error"]; ok {
		t.Error("success envelope must not carry error")
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	if err := WriteError(rr, nil, http.StatusNotFound, "Not Found", "Task not found"); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
	body := decodeEnvelope(t, rr)
	if body["success"] != false || body["error"] != "Not Found" || body["message"] != "Task not found" {
		t.Errorf("unexpected envelope %v", body)
	}
	if _, ok := body["request_id"]; ok {
		t.Error("request_id should be omitted without a request")
	}
}
