package ai

import (
	"context"

	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/request"
	"go.uber.org/zap"
)

// RedactedValue replaces the hidden middle of a credential
const RedactedValue = "[REDACTED]"

// MaskAPIKey keeps the first and last four characters of a key so operators can tell
// keys apart in logs. Keys of eight characters or fewer are hidden entirely.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// callFields are attached to every log line about one model call
func (p *OpenAIProvider) callFields(ctx context.Context, operation string) []zap.Field {
	return []zap.Field{
		zap.String("operation", operation),
		zap.String("model", p.model),
		zap.String("request_id", request.RequestIDFromContext(ctx)),
	}
}

// preview strips control characters from model traffic and caps it at the debug limit
func preview(s string) string {
	return logger.SanitizeDebugContent(s)
}
