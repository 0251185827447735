package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

// OpenAIProvider implements the AIProvider interface against any OpenAI-compatible
// chat completions endpoint
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support.
// Extra request options are appended after the defaults.
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	}, opts...)

	logger.Debug("ai_provider_created",
		zap.String("provider", "openai"),
		zap.String("model", model),
		zap.String("base_url", baseURL),
		zap.String("api_key", MaskAPIKey(apiKey)),
	)

	return &OpenAIProvider{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// RecommendStudyPlan sends the study coach prompt and returns the model's text
func (p *OpenAIProvider) RecommendStudyPlan(ctx context.Context, req *RecommendationRequest) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ai.recommend_study_plan",
		attribute.String("ai.model", p.model),
		attribute.Int("ai.task_count", len(req.Tasks)),
		attribute.Int("ai.exam_count", len(req.Exams)),
	)
	defer span.End()

	prompt := BuildUserPrompt(req)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(SystemPrompt),
		openai.UserMessage(prompt),
	}
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	fields := p.callFields(ctx, "recommend_study_plan")
	if p.debugMode {
		p.logger.Debug("llm_api_request", append(fields,
			zap.Int("prompt_length", len(prompt)),
			zap.Int("message_count", len(messages)),
			zap.String("prompt_preview", preview(prompt)),
		)...)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		telemetry.Fail(span, err)
		p.logger.Warn("llm_api_error", append(fields,
			zap.Error(err),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)...)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to generate recommendations: %w", apiErr)
		}
		return "", fmt.Errorf("failed to generate recommendations: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		telemetry.Fail(span, ErrNoRecommendations)
		return "", ErrNoRecommendations
	}

	if p.debugMode {
		p.logger.Debug("llm_api_response", append(fields,
			zap.Int("response_length", len(content)),
			zap.String("response_preview", preview(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)...)
	}
	span.SetAttributes(attribute.Int("ai.response_length", len(content)))

	return content, nil
}

func newOpenAIFromConfig(cfg ProviderConfig) (AIProvider, error) {
	return NewOpenAIProviderWithLogger(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Logger, cfg.DebugMode), nil
}
