package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// purgerFunc opens a DLQ purger and returns its close function
type purgerFunc func(ctx context.Context, cfg *config.Config) (queue.DLQPurger, func() error, error)

func openRabbitPurger(ctx context.Context, cfg *config.Config) (queue.DLQPurger, func() error, error) {
	if cfg.RabbitMQURL == "" {
		return nil, nil, fmt.Errorf("RABBITMQ_URL is not set")
	}
	q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, nil)
	if err != nil {
		return nil, nil, err
	}
	return q, q.Close, nil
}

// NewDLQCmd creates the dlq command
func NewDLQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Manage the recommendation dead-letter queue",
	}
	cmd.AddCommand(newDLQPurgeCmd(openRabbitPurger))
	return cmd
}

func newDLQPurgeCmd(open purgerFunc) *cobra.Command {
	var (
		olderThan time.Duration
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop dead-lettered jobs older than --older-than",
		Long:  "Runs one sweep of the dead-letter queue, the same pass the API server runs hourly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			purger, closePurger, err := open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() { _ = closePurger() }()

			n, err := queue.NewDLQSweeper(purger, 0, olderThan, nil).RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("purged %d before failing: %w", n, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s purged %d dead-lettered job(s) older than %s\n",
				color.GreenString("✓"), n, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", queue.DefaultDLQRetention, "Retention window; older dead letters are dropped")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Time allowed for the sweep")

	return cmd
}
