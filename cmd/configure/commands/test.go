package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benvon/study-planner/internal/cache"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test backend connectivity",
		Long:  "Connect to every configured backend (Redis, PostgreSQL, RabbitMQ) and the selected settings store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := 0
			check := func(name string, enabled bool, fn func(context.Context) error) {
				if !enabled {
					_, _ = fmt.Fprintf(out, "%s %s not configured\n", color.HiBlackString("-"), name)
					return
				}
				if !report(out, name, fn(ctx)) {
					failed++
				}
			}

			check("redis", cfg.RedisURL != "", func(ctx context.Context) error {
				rc, err := cache.NewRedis(ctx, cfg.RedisURL)
				if err != nil {
					return err
				}
				return rc.Close()
			})
			check("database", cfg.DatabaseURL != "", func(ctx context.Context) error {
				db, err := database.New(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				return db.HealthCheck(ctx)
			})
			check("rabbitmq", cfg.RabbitMQURL != "", func(ctx context.Context) error {
				q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, nil)
				if err != nil {
					return err
				}
				defer func() { _ = q.Close() }()
				return q.HealthCheck(ctx)
			})
			check("settings ("+cfg.SettingsBackend+")", true, func(ctx context.Context) error {
				store, closeStore, err := openSettings(ctx, cfg)
				if err != nil {
					return err
				}
				defer func() { _ = closeStore() }()
				_, err = store.Load(ctx)
				return err
			})

			if failed > 0 {
				return fmt.Errorf("%d backend check(s) failed", failed)
			}
			_, _ = fmt.Fprintln(out, color.GreenString("\n✓ All configured backends are reachable"))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Overall time allowed for the checks")

	return cmd
}

func report(w io.Writer, name string, err error) bool {
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", color.RedString("✗"), name, err)
		return false
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), name)
	return true
}
