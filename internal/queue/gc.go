package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is how often the API sweeps the dead-letter queue
	DefaultSweepInterval = time.Hour
	// DefaultDLQRetention is how long failed jobs stay inspectable
	DefaultDLQRetention = 24 * time.Hour
	// sweepPassTimeout bounds a single sweep so a slow broker cannot stall the loop
	sweepPassTimeout = 2 * time.Minute
)

// DLQSweeper drops dead-lettered jobs once they outlive the retention window
type DLQSweeper struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	purged    atomic.Int64
}

// NewDLQSweeper creates a sweeper. Non-positive durations select the defaults; a nil
// logger discards output.
func NewDLQSweeper(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *DLQSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if retention <= 0 {
		retention = DefaultDLQRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DLQSweeper{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start sweeps once straight away, then every interval until ctx is cancelled.
// Sweep failures are logged and do not stop the loop.
func (s *DLQSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("dlq_sweep_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce purges expired dead letters until the queue holds none, returning the count
func (s *DLQSweeper) RunOnce(ctx context.Context) (int, error) {
	if s.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepPassTimeout)
	defer cancel()

	total := 0
	for {
		n, err := s.purger.PurgeOlderThan(ctx, s.retention)
		total += n
		if err != nil {
			s.record(total)
			return total, fmt.Errorf("DLQ purge: %w", err)
		}
		// A short batch means the backlog is gone
		if n < maxPurgeBatch {
			break
		}
	}
	s.record(total)
	return total, nil
}

// Purged returns the number of dead letters dropped since the sweeper was created
func (s *DLQSweeper) Purged() int64 {
	return s.purged.Load()
}

func (s *DLQSweeper) record(n int) {
	if n == 0 {
		return
	}
	s.purged.Add(int64(n))
	s.logger.Info("dlq_swept",
		zap.Int("count", n),
		zap.Int64("total", s.purged.Load()),
		zap.Duration("retention", s.retention),
	)
}
