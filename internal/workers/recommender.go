package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MessageJobExpired is the result error for jobs that outlived NotAfter
const MessageJobExpired = "The recommendation request expired before it could be processed. Please try again."

// ErrDeliveriesClosed is returned by Run when the broker stops delivering
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Recommender processes study recommendation jobs
type Recommender struct {
	aiProvider ai.AIProvider
	results    ResultStore
	jobQueue   queue.JobQueue // For re-enqueueing jobs with delays
	logger     *zap.Logger
}

// NewRecommender creates a new recommendation worker
func NewRecommender(aiProvider ai.AIProvider, results ResultStore, jobQueue queue.JobQueue, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		aiProvider: aiProvider,
		results:    results,
		jobQueue:   jobQueue,
		logger:     logger,
	}
}

// ProcessRecommendationJob calls the gateway for the job's request and stores the text
func (r *Recommender) ProcessRecommendationJob(ctx context.Context, job *queue.Job) error {
	ctx, span := telemetry.StartSpan(telemetry.Extract(ctx, job.Trace), "worker.study_recommendation",
		attribute.String("job.id", job.ID.String()),
		attribute.Int("job.retry_count", job.RetryCount),
	)
	defer span.End()

	var req ai.RecommendationRequest
	if err := job.DecodePayload(&req); err != nil {
		telemetry.Fail(span, err)
		return err
	}

	text, err := r.aiProvider.RecommendStudyPlan(ctx, &req)
	if err != nil {
		telemetry.Fail(span, err)
		return err
	}

	if err := r.results.Save(ctx, JobResult{
		JobID:           job.ID,
		Status:          ResultStatusCompleted,
		Recommendations: text,
		UpdatedAt:       time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}

	r.logger.Info("recommendation_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("task_count", len(req.Tasks)),
		zap.Int("exam_count", len(req.Exams)),
		zap.Int("response_length", len(text)),
	)
	return nil
}

// ProcessJob processes a job based on its type and settles the message
func (r *Recommender) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.StateAt(time.Now()) {
	case queue.JobExpired:
		r.expire(ctx, msg, job)
		return nil
	case queue.JobWaiting:
		if nackErr := msg.Nack(true); nackErr != nil {
			r.logger.Warn("job_requeue_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeStudyRecommendation:
		if err := r.ProcessRecommendationJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			r.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError decides between a delayed retry and a terminal failure.
// Quota exhaustion and empty answers fail at once; the caller sees the message in the job result.
func (r *Recommender) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	}
	if ai.IsQuotaError(err) {
		fields = append(fields, zap.Bool("quota_exhausted", true))
	}

	if ai.Classify(err).Retryable() && job.CanRetry() && r.jobQueue != nil {
		delay := ai.GetRetryDelay(err, job.RetryCount)
		job.RetryAfter(delay)
		enqueueErr := r.jobQueue.Enqueue(ctx, job)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				r.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}
			r.logger.Warn("recommendation_job_retry_scheduled", append(fields, zap.Duration("delay", delay))...)
			return fmt.Errorf("recommendation failed (will retry in %v): %w", delay, err)
		}
		r.logger.Error("job_reenqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
	}

	_, message := ai.StatusAndMessage(err)
	if saveErr := r.results.Save(ctx, JobResult{
		JobID:     job.ID,
		Status:    ResultStatusFailed,
		Error:     message,
		UpdatedAt: time.Now(),
	}); saveErr != nil {
		r.logger.Error("job_result_save_failed", zap.String("job_id", job.ID.String()), zap.Error(saveErr))
	}

	// Terminal failures go to the DLQ for inspection
	if nackErr := msg.Nack(false); nackErr != nil {
		r.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	r.logger.Error("recommendation_job_failed", fields...)
	return fmt.Errorf("recommendation failed: %w", err)
}

// expire records an expired job as failed and dead-letters it without calling the gateway
func (r *Recommender) expire(ctx context.Context, msg queue.MessageInterface, job *queue.Job) {
	if err := r.results.Save(ctx, JobResult{
		JobID:     job.ID,
		Status:    ResultStatusFailed,
		Error:     MessageJobExpired,
		UpdatedAt: time.Now(),
	}); err != nil {
		r.logger.Error("job_result_save_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	if err := msg.Nack(false); err != nil {
		r.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	r.logger.Info("job_expired", zap.String("job_id", job.ID.String()))
}

// Run processes deliveries one at a time until ctx ends, which returns nil, or the
// delivery channel closes. Consumer errors are logged and do not stop the loop.
func (r *Recommender) Run(ctx context.Context, deliveries <-chan queue.MessageInterface, consumeErrs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-consumeErrs:
			if !ok {
				consumeErrs = nil
				continue
			}
			r.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			if err := r.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				r.logger.Error("failed_to_process_job",
					zap.Error(err),
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
				)
			}
		}
	}
}
