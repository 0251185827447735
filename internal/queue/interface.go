package queue

import (
	"context"
	"time"
)

// MessageInterface is one delivered job. Workers settle it exactly once, either
// acknowledging it or handing it back to the broker.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue moves recommendation jobs between the API server and workers.
type JobQueue interface {
	// Enqueue publishes job. A NotBefore in the future holds it back until then.
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams deliveries until ctx ends. At most prefetchCount of them are
	// outstanding at a time.
	Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error)

	Close() error

	// HealthCheck fails when the broker connection or channel has gone away.
	HealthCheck(ctx context.Context) error
}

// DLQPurger drops dead letters published more than retention ago and reports how
// many it removed.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
