package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota or credits are exhausted
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNoRecommendations indicates the gateway answered without any text
	ErrNoRecommendations = errors.New("no recommendations generated")
)

// User-facing messages for gateway failures
const (
	MessageRateLimited   = "Rate limit exceeded. Please try again in a moment."
	MessageQuotaExceeded = "AI credits exhausted. Please add credits to continue."
	MessageUnavailable   = "Failed to generate recommendations"
)

// ErrorClass groups gateway failures by how callers should react
type ErrorClass int

const (
	// ClassTransient covers network faults and 5xx answers; retry soon
	ClassTransient ErrorClass = iota
	// ClassRateLimited means the provider throttled us; retry after a minute or more
	ClassRateLimited
	// ClassQuota means credits ran out; an operator has to act
	ClassQuota
	// ClassEmpty means the model answered with no text
	ClassEmpty
)

// Retryable reports whether a background job should be tried again
func (c ErrorClass) Retryable() bool {
	return c == ClassTransient || c == ClassRateLimited
}

// Classify inspects typed errors first and falls back to the error text, since some
// transports only surface the status code in the message
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTransient
	}
	switch {
	case errors.Is(err, ErrNoRecommendations):
		return ClassEmpty
	case errors.Is(err, ErrQuotaExceeded):
		return ClassQuota
	case errors.Is(err, ErrRateLimited):
		return ClassRateLimited
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "insufficient_quota" {
		return ClassQuota
	}

	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, "insufficient_quota", "quota", "billing"):
		return ClassQuota
	case containsAny(text, "429", "rate limit", "too many requests"):
		return ClassRateLimited
	}
	return ClassTransient
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return err != nil && Classify(err) == ClassRateLimited
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	return err != nil && Classify(err) == ClassQuota
}

// StatusAndMessage maps a gateway error to the HTTP status and message shown to users
func StatusAndMessage(err error) (int, string) {
	if err == nil {
		return http.StatusBadGateway, MessageUnavailable
	}
	switch Classify(err) {
	case ClassQuota:
		return http.StatusPaymentRequired, MessageQuotaExceeded
	case ClassRateLimited:
		return http.StatusTooManyRequests, MessageRateLimited
	default:
		return http.StatusBadGateway, MessageUnavailable
	}
}

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap maps the API error onto ErrRateLimited or ErrQuotaExceeded
func (e *APIError) Unwrap() error {
	switch {
	case e.IsPermanent:
		return ErrQuotaExceeded
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// ExtractAPIError converts an SDK error into an APIError for 429 and 402 responses.
// Other errors return nil.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		if sdkErr.StatusCode != http.StatusTooManyRequests && sdkErr.StatusCode != http.StatusPaymentRequired {
			return nil
		}
		apiErr := newAPIError(sdkErr.StatusCode, sdkErr.Message, sdkErr.Type, sdkErr.Code)
		if sdkErr.Response != nil {
			if d, ok := parseRetryAfter(sdkErr.Response.Header.Get("Retry-After")); ok {
				apiErr.RetryAfter = &d
			}
		}
		return apiErr
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	var body struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	}
	start, end := strings.Index(errStr, "{"), strings.LastIndex(errStr, "}")
	if start != -1 && end > start && json.Unmarshal([]byte(errStr[start:end+1]), &body) == nil {
		return newAPIError(http.StatusTooManyRequests, body.Message, body.Type, body.Code)
	}
	return newAPIError(http.StatusTooManyRequests, errStr, "rate_limit_error", "")
}

func newAPIError(status int, message, typ, code string) *APIError {
	apiErr := &APIError{
		StatusCode:  status,
		Message:     message,
		Type:        typ,
		Code:        code,
		IsPermanent: status == http.StatusPaymentRequired || code == "insufficient_quota",
	}
	// Rate limits typically reset within a minute; quota needs operator action
	retryAfter := time.Minute
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
	return apiErr
}

// parseRetryAfter reads the delay-seconds form of Retry-After
func parseRetryAfter(v string) (time.Duration, bool) {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// retryPolicy is the doubling schedule for one error class
type retryPolicy struct {
	initial time.Duration
	max     time.Duration
}

var retryPolicies = map[ErrorClass]retryPolicy{
	ClassTransient:   {initial: 5 * time.Second, max: 5 * time.Minute},
	ClassRateLimited: {initial: time.Minute, max: 15 * time.Minute},
	ClassQuota:       {initial: time.Hour, max: 24 * time.Hour},
}

// maxBackoffSteps bounds the schedule walk; every policy has hit its cap long before
const maxBackoffSteps = 16

// GetRetryDelay returns the delay before retry number attempt (zero based). Delays
// double per attempt up to the class cap, and a longer server Retry-After wins for
// rate limits.
func GetRetryDelay(err error, attempt int) time.Duration {
	class := Classify(err)
	policy, ok := retryPolicies[class]
	if !ok {
		policy = retryPolicies[ClassTransient]
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.initial
	b.MaxInterval = policy.max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 0; i < min(max(attempt, 0), maxBackoffSteps); i++ {
		delay = b.NextBackOff()
	}

	if class == ClassRateLimited {
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
	}
	return delay
}
