package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStudyRecommendation asks the worker to call the suggestion gateway
	JobTypeStudyRecommendation JobType = "study_recommendation"
)

// DefaultMaxRetries is the retry budget given to new jobs
const DefaultMaxRetries = 3

// Job is the unit of work carried through the broker
type Job struct {
	ID         uuid.UUID         `json:"id"`
	Type       JobType           `json:"type"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	NotBefore  *time.Time        `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time        `json:"not_after,omitempty"`  // nil = no expiration
	CreatedAt  time.Time         `json:"created_at"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
	Trace      map[string]string `json:"trace,omitempty"` // W3C trace context of the queuing request
}

// JobOption adjusts a job as it is created
type JobOption func(*Job)

// ExpiresIn drops the job if no worker picks it up within ttl of creation
func ExpiresIn(ttl time.Duration) JobOption {
	return func(j *Job) {
		at := j.CreatedAt.Add(ttl)
		j.NotAfter = &at
	}
}

// WithMaxRetries overrides DefaultMaxRetries
func WithMaxRetries(n int) JobOption {
	return func(j *Job) { j.MaxRetries = n }
}

// NewJob creates a job carrying payload encoded as JSON
func NewJob(jobType JobType, payload any, opts ...JobOption) (*Job, error) {
	job := &Job{
		ID:         uuid.New(),
		Type:       jobType,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job payload: %w", err)
		}
		job.Payload = raw
	}
	for _, opt := range opts {
		opt(job)
	}
	return job, nil
}

// DecodePayload unmarshals the job payload into v
func (j *Job) DecodePayload(v any) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job %s has no payload", j.ID)
	}
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("failed to decode payload of job %s: %w", j.ID, err)
	}
	return nil
}

// JobState says what a consumer should do with a job at a given instant
type JobState int

const (
	// JobDue can run now
	JobDue JobState = iota
	// JobWaiting is delayed by NotBefore and goes back to the broker
	JobWaiting
	// JobExpired passed NotAfter; the worker records it as failed
	JobExpired
)

func (s JobState) String() string {
	switch s {
	case JobDue:
		return "due"
	case JobWaiting:
		return "waiting"
	case JobExpired:
		return "expired"
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// StateAt classifies the job at now. Expiry wins over a pending delay.
func (j *Job) StateAt(now time.Time) JobState {
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return JobExpired
	}
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return JobWaiting
	}
	return JobDue
}

// CanRetry reports whether the retry budget has room left
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// RetryAfter spends one retry and delays the job by delay
func (j *Job) RetryAfter(delay time.Duration) {
	j.RetryCount++
	notBefore := time.Now().Add(delay)
	j.NotBefore = &notBefore
}
