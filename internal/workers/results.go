package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResultStatus is the lifecycle state of a recommendation job
type ResultStatus string

const (
	ResultStatusQueued    ResultStatus = "queued"
	ResultStatusCompleted ResultStatus = "completed"
	ResultStatusFailed    ResultStatus = "failed"
)

// DefaultResultTTL is how long job results stay readable
const DefaultResultTTL = 24 * time.Hour

// ErrResultNotFound is returned for unknown or expired job ids
var ErrResultNotFound = errors.New("job result not found")

// JobResult is what a client polls for after enqueueing a recommendation job.
// Exactly one of Recommendations and Error is set once the job finishes.
type JobResult struct {
	JobID           uuid.UUID    `json:"job_id"`
	Status          ResultStatus `json:"status"`
	Recommendations string       `json:"recommendations,omitempty"`
	Error           string       `json:"error,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ResultStore persists job results for the server to read back
type ResultStore interface {
	Save(ctx context.Context, result JobResult) error
	Get(ctx context.Context, jobID uuid.UUID) (*JobResult, error)
}

// RedisResultStore keeps results in Redis with a TTL so abandoned jobs clean themselves up
type RedisResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultStore = (*RedisResultStore)(nil)

// NewRedisResultStore creates a store; ttl <= 0 means DefaultResultTTL
func NewRedisResultStore(client *redis.Client, ttl time.Duration) *RedisResultStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &RedisResultStore{client: client, ttl: ttl}
}

func resultKey(jobID uuid.UUID) string {
	return "study-planner:recommendation:" + jobID.String()
}

// Save writes the result, refreshing its TTL
func (s *RedisResultStore) Save(ctx context.Context, result JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	if err := s.client.Set(ctx, resultKey(result.JobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job result: %w", err)
	}
	return nil
}

// Get reads a result; ErrResultNotFound when missing or expired
func (s *RedisResultStore) Get(ctx context.Context, jobID uuid.UUID) (*JobResult, error) {
	data, err := s.client.Get(ctx, resultKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job result: %w", err)
	}
	var result JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode job result: %w", err)
	}
	return &result, nil
}
