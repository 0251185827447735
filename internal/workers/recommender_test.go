package workers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/google/uuid"
)

// mockAIProvider is a mock implementation of AIProvider
type mockAIProvider struct {
	recommendFunc func(ctx context.Context, req *ai.RecommendationRequest) (string, error)
}

func (m *mockAIProvider) RecommendStudyPlan(ctx context.Context, req *ai.RecommendationRequest) (string, error) {
	if m.recommendFunc != nil {
		return m.recommendFunc(ctx, req)
	}
	return "Study calculus first.", nil
}

var _ ai.AIProvider = (*mockAIProvider)(nil)

// mockMessage records how the worker settled a delivery
type mockMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job { return m.job }

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockJobQueue captures re-enqueued jobs
type mockJobQueue struct {
	mu         sync.Mutex
	enqueued   []*queue.Job
	enqueueErr error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan queue.MessageInterface, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

var _ queue.JobQueue = (*mockJobQueue)(nil)

func newRecommendationJob(t *testing.T) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeStudyRecommendation, &ai.RecommendationRequest{
		Tasks:                []ai.TaskInput{{Title: "Essay", Status: "pending"}},
		AvailableHoursPerDay: 2,
		Today:                "2025-03-10",
	})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	return job
}

func TestRecommender_ProcessJob_Success(t *testing.T) {
	t.Parallel()

	var gotReq *ai.RecommendationRequest
	provider := &mockAIProvider{recommendFunc: func(ctx context.Context, req *ai.RecommendationRequest) (string, error) {
		gotReq = req
		return "Plan for today", nil
	}}
	results := newMemoryResultStore()
	r := NewRecommender(provider, results, &mockJobQueue{}, nil)

	job := newRecommendationJob(t)
	msg := &mockMessage{job: job}
	if err := r.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	if !msg.acked || msg.nacked {
		t.Errorf("expected ack only, got acked=%v nacked=%v", msg.acked, msg.nacked)
	}
	if gotReq == nil || len(gotReq.Tasks) != 1 || gotReq.AvailableHoursPerDay != 2 {
		t.Errorf("provider got request %+v", gotReq)
	}
	result, err := results.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if result.Status != ResultStatusCompleted || result.Recommendations != "Plan for today" || result.Error != "" {
		t.Errorf("result = %+v", result)
	}
}

func TestRecommender_ProcessJob_Errors(t *testing.T) {
	t.Parallel()

	rateLimited := &ai.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
	quota := &ai.APIError{StatusCode: http.StatusPaymentRequired, Message: "no credits", IsPermanent: true}

	tests := []struct {
		name         string
		providerErr  error
		retryCount   int
		enqueueErr   error
		wantRequeued bool
		wantStatus   ResultStatus
		wantMessage  string
	}{
		{
			name:         "rate limit is retried later",
			providerErr:  rateLimited,
			wantRequeued: true,
		},
		{
			name:         "transient error is retried later",
			providerErr:  errors.New("connection reset"),
			wantRequeued: true,
		},
		{
			name:        "quota fails immediately",
			providerErr: quota,
			wantStatus:  ResultStatusFailed,
			wantMessage: ai.MessageQuotaExceeded,
		},
		{
			name:        "empty answer fails immediately",
			providerErr: ai.ErrNoRecommendations,
			wantStatus:  ResultStatusFailed,
			wantMessage: ai.MessageUnavailable,
		},
		{
			name:        "retries exhausted",
			providerErr: rateLimited,
			retryCount:  queue.DefaultMaxRetries,
			wantStatus:  ResultStatusFailed,
			wantMessage: ai.MessageRateLimited,
		},
		{
			name:        "re-enqueue failure",
			providerErr: errors.New("connection reset"),
			enqueueErr:  errors.New("broker down"),
			wantStatus:  ResultStatusFailed,
			wantMessage: ai.MessageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := &mockAIProvider{recommendFunc: func(context.Context, *ai.RecommendationRequest) (string, error) {
				return "", tt.providerErr
			}}
			results := newMemoryResultStore()
			jq := &mockJobQueue{enqueueErr: tt.enqueueErr}
			r := NewRecommender(provider, results, jq, nil)

			job := newRecommendationJob(t)
			job.RetryCount = tt.retryCount
			msg := &mockMessage{job: job}

			if err := r.ProcessJob(context.Background(), msg); err == nil {
				t.Fatal("expected error")
			}

			if tt.wantRequeued {
				if len(jq.enqueued) != 1 {
					t.Fatalf("expected job to be re-enqueued, got %d", len(jq.enqueued))
				}
				if jq.enqueued[0].RetryCount != tt.retryCount+1 || jq.enqueued[0].NotBefore == nil {
					t.Errorf("re-enqueued job = %+v", jq.enqueued[0])
				}
				if !msg.acked || msg.nacked {
					t.Errorf("expected original message acked, got acked=%v nacked=%v", msg.acked, msg.nacked)
				}
				if _, err := results.Get(context.Background(), job.ID); !errors.Is(err, ErrResultNotFound) {
					t.Errorf("expected no result yet, got err=%v", err)
				}
				return
			}

			if len(jq.enqueued) != 0 {
				t.Errorf("expected no re-enqueue, got %d", len(jq.enqueued))
			}
			if !msg.nacked || msg.requeued {
				t.Errorf("expected nack to DLQ, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
			}
			result, err := results.Get(context.Background(), job.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if result.Status != tt.wantStatus || result.Error != tt.wantMessage || result.Recommendations != "" {
				t.Errorf("result = %+v, want status %s message %q", result, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestRecommender_ProcessJob_BadPayload(t *testing.T) {
	t.Parallel()

	called := false
	provider := &mockAIProvider{recommendFunc: func(context.Context, *ai.RecommendationRequest) (string, error) {
		called = true
		return "x", nil
	}}
	r := NewRecommender(provider, newMemoryResultStore(), nil, nil)

	job := &queue.Job{ID: uuid.New(), Type: queue.JobTypeStudyRecommendation, MaxRetries: 0, Payload: []byte(`{"tasks":`)}
	msg := &mockMessage{job: job}
	if err := r.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("provider should not be called for an undecodable payload")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("expected nack to DLQ, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
}

func TestRecommender_ProcessJob_UnknownType(t *testing.T) {
	t.Parallel()

	r := NewRecommender(&mockAIProvider{}, newMemoryResultStore(), nil, nil)
	msg := &mockMessage{job: &queue.Job{ID: uuid.New(), Type: "mystery"}}

	if err := r.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error for unknown job type")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("expected nack without requeue, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
}

func TestRecommender_ProcessJob_Expired(t *testing.T) {
	t.Parallel()

	called := false
	provider := &mockAIProvider{recommendFunc: func(context.Context, *ai.RecommendationRequest) (string, error) {
		called = true
		return "x", nil
	}}
	results := newMemoryResultStore()
	r := NewRecommender(provider, results, nil, nil)

	job := newRecommendationJob(t)
	expired := time.Now().Add(-time.Minute)
	job.NotAfter = &expired
	msg := &mockMessage{job: job}

	if err := r.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if called {
		t.Error("provider should not be called for an expired job")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("expected nack to DLQ, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
	result, err := results.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if result.Status != ResultStatusFailed || result.Error != MessageJobExpired {
		t.Errorf("result = %+v", result)
	}
}

func TestRecommender_Run(t *testing.T) {
	t.Parallel()

	t.Run("drains until the channel closes", func(t *testing.T) {
		t.Parallel()

		results := newMemoryResultStore()
		r := NewRecommender(&mockAIProvider{}, results, &mockJobQueue{}, nil)

		deliveries := make(chan queue.MessageInterface, 2)
		consumeErrs := make(chan error, 1)
		first := &mockMessage{job: newRecommendationJob(t)}
		second := &mockMessage{job: newRecommendationJob(t)}
		deliveries <- first
		deliveries <- second
		consumeErrs <- errors.New("channel flow paused")
		close(deliveries)
		close(consumeErrs)

		err := r.Run(context.Background(), deliveries, consumeErrs)
		if !errors.Is(err, ErrDeliveriesClosed) {
			t.Fatalf("Run() error = %v, want ErrDeliveriesClosed", err)
		}
		if !first.acked || !second.acked {
			t.Errorf("expected both messages acked, got %v and %v", first.acked, second.acked)
		}
		if _, err := results.Get(context.Background(), second.job.ID); err != nil {
			t.Errorf("second result missing: %v", err)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		r := NewRecommender(&mockAIProvider{}, newMemoryResultStore(), &mockJobQueue{}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := r.Run(ctx, make(chan queue.MessageInterface), nil); err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	})
}
