package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benvon/study-planner/internal/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultQueueName is the default queue name
	DefaultQueueName = "study_planner_jobs"
	// DefaultDLQName is the default dead letter queue name
	DefaultDLQName = "study_planner_jobs_dlq"
	// DefaultExchangeName is the default exchange name
	DefaultExchangeName = "study_planner"
	// DefaultDelayedExchangeName is the default delayed exchange name (requires plugin)
	DefaultDelayedExchangeName = "study_planner_delayed"
	// DefaultRetryQueueName holds delayed jobs when the delayed exchange is missing
	DefaultRetryQueueName = "study_planner_jobs_retry"

	jobsRoutingKey  = "jobs"
	dlqRoutingKey   = "dlq"
	retryRoutingKey = "retry"

	// maxPurgeBatch bounds a single purge pass
	maxPurgeBatch = 10000
)

// RabbitMQQueue implements JobQueue and DLQPurger using RabbitMQ
type RabbitMQQueue struct {
	conn                *amqp.Connection
	mu                  sync.Mutex // guards channel
	channel             *amqp.Channel
	queueName           string
	dlqName             string
	retryQueueName      string
	exchangeName        string
	delayedExchangeName string
	delayedAvailable    bool
	logger              *zap.Logger
}

var (
	_ JobQueue  = (*RabbitMQQueue)(nil)
	_ DLQPurger = (*RabbitMQQueue)(nil)
)

// NewRabbitMQQueue connects to the broker and declares the exchanges and queues
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:                conn,
		channel:             ch,
		queueName:           DefaultQueueName,
		dlqName:             DefaultDLQName,
		retryQueueName:      DefaultRetryQueueName,
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
		logger:              logger,
	}

	if err := q.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return q, nil
}

// setup declares the broker topology: jobs, retry and DLQ queues on a direct exchange,
// plus the delayed exchange when the rabbitmq_delayed_message_exchange plugin is loaded.
// Retry messages carry a per-message TTL and dead-letter back onto the jobs queue.
func (q *RabbitMQQueue) setup() error {
	q.delayedAvailable = q.declareDelayedExchange()

	jobArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": jobsRoutingKey,
	}
	steps := []struct {
		what string
		run  func(ch *amqp.Channel) error
	}{
		{"declare exchange", func(ch *amqp.Channel) error {
			return ch.ExchangeDeclare(q.exchangeName, amqp.ExchangeDirect, true, false, false, false, nil)
		}},
		{"declare DLQ", func(ch *amqp.Channel) error {
			_, err := ch.QueueDeclare(q.dlqName, true, false, false, false, nil)
			return err
		}},
		{"bind DLQ", func(ch *amqp.Channel) error {
			return ch.QueueBind(q.dlqName, dlqRoutingKey, q.exchangeName, false, nil)
		}},
		{"declare queue", func(ch *amqp.Channel) error {
			_, err := ch.QueueDeclare(q.queueName, true, false, false, false, jobArgs)
			return err
		}},
		{"bind queue", func(ch *amqp.Channel) error {
			return ch.QueueBind(q.queueName, jobsRoutingKey, q.exchangeName, false, nil)
		}},
		{"declare retry queue", func(ch *amqp.Channel) error {
			_, err := ch.QueueDeclare(q.retryQueueName, true, false, false, false, retryArgs)
			return err
		}},
		{"bind retry queue", func(ch *amqp.Channel) error {
			return ch.QueueBind(q.retryQueueName, retryRoutingKey, q.exchangeName, false, nil)
		}},
	}
	if q.delayedAvailable {
		steps = append(steps, struct {
			what string
			run  func(ch *amqp.Channel) error
		}{"bind queue to delayed exchange", func(ch *amqp.Channel) error {
			return ch.QueueBind(q.queueName, jobsRoutingKey, q.delayedExchangeName, false, nil)
		}})
	}

	for _, step := range steps {
		if err := step.run(q.channel); err != nil {
			return fmt.Errorf("failed to %s: %w", step.what, err)
		}
	}
	return nil
}

// declareDelayedExchange reports whether the delayed exchange exists. A refused
// declare closes the channel, so a fresh one replaces it.
func (q *RabbitMQQueue) declareDelayedExchange() bool {
	err := q.channel.ExchangeDeclare(q.delayedExchangeName, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": amqp.ExchangeDirect})
	if err == nil {
		return true
	}
	q.logger.Warn("delayed_exchange_unavailable", zap.Error(err))
	if q.channel.IsClosed() {
		if ch, openErr := q.conn.Channel(); openErr == nil {
			q.channel = ch
		} else {
			q.logger.Error("channel_reopen_failed", zap.Error(openErr))
		}
	}
	return false
}

// Enqueue publishes a job. Jobs that are not yet due wait on the broker until NotBefore.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	// Retries keep the trace of the request that created the job
	if job.Trace == nil {
		job.Trace = telemetry.Inject(ctx)
	}
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	exchangeName, routingKey, publishing := q.publishing(job, jobJSON, time.Now())

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Debug("job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("routing_key", routingKey),
		zap.Int("retry_count", job.RetryCount),
	)
	return nil
}

// publishing builds the message for job and picks its route. A waiting job goes through
// the delayed exchange when the plugin is loaded, otherwise into the retry queue with an
// expiration equal to the remaining delay. NotAfter is never turned into a broker TTL:
// expired jobs must reach a worker so the failure is recorded.
func (q *RabbitMQQueue) publishing(job *Job, body []byte, now time.Time) (string, string, amqp.Publishing) {
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    now,
		Type:         string(job.Type),
	}
	if job.StateAt(now) != JobWaiting {
		return q.exchangeName, jobsRoutingKey, publishing
	}

	delay := max(job.NotBefore.Sub(now).Milliseconds(), 1)
	if q.delayedAvailable {
		publishing.Headers = amqp.Table{"x-delay": delay}
		return q.delayedExchangeName, jobsRoutingKey, publishing
	}
	publishing.Expiration = strconv.FormatInt(delay, 10)
	return q.exchangeName, retryRoutingKey, publishing
}

// park sends a delivery that arrived before its NotBefore back through the delay route.
// A job that cannot be republished is dead-lettered instead of requeued in place.
func (q *RabbitMQQueue) park(ctx context.Context, job *Job, delivery amqp.Delivery) {
	if err := q.Enqueue(ctx, job); err != nil {
		q.logger.Error("job_park_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		_ = delivery.Nack(false, false)
		return
	}
	_ = delivery.Ack(false)
}

// Consume delivers messages on a dedicated channel until ctx is cancelled
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}

	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan MessageInterface, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() { _ = consumeCh.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- errors.New("delivery channel closed")
					return
				}

				var job Job
				if err := json.Unmarshal(delivery.Body, &job); err != nil {
					// Malformed messages go straight to the DLQ
					_ = delivery.Nack(false, false)
					q.logger.Warn("job_unmarshal_failed", zap.Error(err))
					continue
				}

				// Expired jobs still reach the worker so it can record the outcome
				if job.StateAt(time.Now()) == JobWaiting {
					q.park(ctx, &job, delivery)
					continue
				}

				msg := newMessage(&job, delivery)

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// PurgeOlderThan drops DLQ messages published before now-retention. Messages are read in
// publish order, so the pass stops at the first message still inside the window.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open purge channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	cutoff := time.Now().Add(-retention)
	purged := 0
	for purged < maxPurgeBatch {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		delivery, ok, err := ch.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			break
		}
		if !publishedBefore(delivery, cutoff) {
			if err := delivery.Nack(false, true); err != nil {
				return purged, fmt.Errorf("failed to requeue DLQ message: %w", err)
			}
			break
		}
		if err := delivery.Ack(false); err != nil {
			return purged, fmt.Errorf("failed to ack DLQ message: %w", err)
		}
		purged++
	}
	return purged, nil
}

// publishedBefore falls back to the job's CreatedAt for messages without a timestamp
func publishedBefore(d amqp.Delivery, cutoff time.Time) bool {
	ts := d.Timestamp
	if ts.IsZero() {
		var job Job
		if err := json.Unmarshal(d.Body, &job); err != nil {
			// Unreadable messages have no value in the DLQ
			return true
		}
		ts = job.CreatedAt
	}
	return ts.Before(cutoff)
}

// HealthCheck reports whether the connection and publish channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.channel == nil || q.channel.IsClosed() {
		return errors.New("rabbitmq channel closed")
	}
	return nil
}

// Close closes the publish channel and the connection
func (q *RabbitMQQueue) Close() error {
	var err error
	q.mu.Lock()
	if q.channel != nil && !q.channel.IsClosed() {
		err = multierr.Append(err, q.channel.Close())
	}
	q.mu.Unlock()
	if q.conn != nil && !q.conn.IsClosed() {
		err = multierr.Append(err, q.conn.Close())
	}
	return err
}
