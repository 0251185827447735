package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/study-planner/internal/request"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	return string(body)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, logger *zap.Logger) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProviderWithLogger("sk-test-key-123456", srv.URL, "gpt-4o-mini", logger, logger != nil, option.WithMaxRetries(0))
}

func sampleRequest() *RecommendationRequest {
	return &RecommendationRequest{
		Tasks: []TaskInput{
			{Title: "Review derivatives", Subject: "Math", Difficulty: "medium", Priority: "high", DueDate: "2025-03-11", EstimatedMinutes: 60, Status: "pending"},
		},
		Exams: []ExamInput{
			{Title: "Midterm", Subject: "Math", Difficulty: "hard", Date: "2025-03-17", Duration: 120, Topics: []string{"Limits"}},
		},
		AvailableHoursPerDay: 3,
		Today:                "2025-03-10",
	}
}

func TestOpenAIProvider_RecommendStudyPlan(t *testing.T) {
	t.Parallel()

	var gotBody map[string]interface{}
	var gotAuth string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody("  Start with derivatives.  "))
	}, nil)

	got, err := p.RecommendStudyPlan(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("RecommendStudyPlan() error = %v", err)
	}
	if got != "Start with derivatives." {
		t.Errorf("RecommendStudyPlan() = %q", got)
	}
	if gotAuth != "Bearer sk-test-key-123456" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	messages, ok := gotBody["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", gotBody["messages"])
	}
	first, _ := messages[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
	second, _ := messages[1].(map[string]interface{})
	if content, _ := second["content"].(string); !strings.Contains(content, "Review derivatives") {
		t.Errorf("user message does not mention the task: %q", content)
	}
}

func TestOpenAIProvider_RecommendStudyPlan_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		body          string
		wantRateLimit bool
		wantQuota     bool
		wantEmpty     bool
	}{
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			body:          `{"error":{"message":"Rate limit reached","type":"rate_limit_error","code":"rate_limit_exceeded"}}`,
			wantRateLimit: true,
		},
		{
			name:      "payment required",
			status:    http.StatusPaymentRequired,
			body:      `{"error":{"message":"Insufficient credits","type":"billing_error","code":"payment_required"}}`,
			wantQuota: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom","type":"server_error"}}`,
		},
		{
			name:      "empty choices",
			status:    http.StatusOK,
			body:      `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`,
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			_, err := p.RecommendStudyPlan(context.Background(), sampleRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrRateLimited); got != tt.wantRateLimit {
				t.Errorf("errors.Is(err, ErrRateLimited) = %v, want %v (err=%v)", got, tt.wantRateLimit, err)
			}
			if got := errors.Is(err, ErrQuotaExceeded); got != tt.wantQuota {
				t.Errorf("errors.Is(err, ErrQuotaExceeded) = %v, want %v (err=%v)", got, tt.wantQuota, err)
			}
			if got := errors.Is(err, ErrNoRecommendations); got != tt.wantEmpty {
				t.Errorf("errors.Is(err, ErrNoRecommendations) = %v, want %v", got, tt.wantEmpty)
			}
		})
	}
}

func TestOpenAIProvider_DebugLogging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody("Plan"))
	}, zap.New(core))

	ctx := request.WithRequestID(context.Background(), "req-42")
	if _, err := p.RecommendStudyPlan(ctx, sampleRequest()); err != nil {
		t.Fatalf("RecommendStudyPlan() error = %v", err)
	}

	for _, msg := range []string{"llm_api_request", "llm_api_response"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Fatalf("expected one %s entry, got %d", msg, len(entries))
		}
		if got := entries[0].ContextMap()["request_id"]; got != "req-42" {
			t.Errorf("%s request_id = %v, want req-42", msg, got)
		}
	}
}

func TestProviderRegistry_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		provider     string
		cfg          ProviderConfig
		wantErr      error
		wantNotFound bool
	}{
		{name: "openai", provider: "openai", cfg: ProviderConfig{APIKey: "sk-test"}},
		{name: "empty name defaults to openai", provider: "", cfg: ProviderConfig{APIKey: "sk-test", Model: "gpt-4o"}},
		{name: "case insensitive", provider: "OpenAI", cfg: ProviderConfig{APIKey: "sk-test"}},
		{name: "missing key", provider: "openai", cfg: ProviderConfig{}, wantErr: ErrAPIKeyMissing},
		{name: "unknown provider", provider: "anthropic", cfg: ProviderConfig{APIKey: "sk-test"}, wantNotFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider, err := NewProviderRegistry().Build(tt.provider, tt.cfg)
			switch {
			case tt.wantNotFound:
				var notFound *ErrProviderNotFound
				if !errors.As(err, &notFound) || notFound.Name != tt.provider {
					t.Fatalf("Build() error = %v, want ErrProviderNotFound", err)
				}
				if !strings.Contains(err.Error(), "openai") {
					t.Errorf("error should list available providers: %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				if _, ok := provider.(*OpenAIProvider); !ok {
					t.Errorf("Build() = %T, want *OpenAIProvider", provider)
				}
			}
		})
	}
}

func TestProviderRegistry_Register(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	stub := &OpenAIProvider{}
	registry.Register("Local", func(cfg ProviderConfig) (AIProvider, error) { return stub, nil })

	if got := registry.Names(); len(got) != 2 || got[0] != "local" || got[1] != "openai" {
		t.Errorf("Names() = %v", got)
	}
	provider, err := registry.Build("local", ProviderConfig{APIKey: "key"})
	if err != nil || provider != stub {
		t.Errorf("Build(local) = %v, %v", provider, err)
	}
}
