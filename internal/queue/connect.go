package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultConnectTimeout bounds how long Connect keeps retrying a broker that is still starting
const DefaultConnectTimeout = 2 * time.Minute

// Connect dials the broker with exponential backoff until it answers, maxElapsed passes
// or ctx is done. A malformed URL fails at once.
func Connect(ctx context.Context, amqpURL string, maxElapsed time.Duration, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := amqp.ParseURI(amqpURL); err != nil {
		return nil, fmt.Errorf("invalid RabbitMQ URL: %w", err)
	}
	if maxElapsed <= 0 {
		maxElapsed = DefaultConnectTimeout
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = maxElapsed

	var q *RabbitMQQueue
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		q, err = NewRabbitMQQueue(amqpURL, logger)
		return err
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempt, err)
	}
	logger.Info("connected_to_rabbitmq", zap.Int("attempts", attempt))
	return q, nil
}
