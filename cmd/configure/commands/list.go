package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List effective configuration",
		Long:  "List the configuration the server and worker would load from the current environment. Secrets and credentials are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("Setting"), bold.Sprint("Value"))
			tbl.AddRow("server port", cfg.ServerPort)
			tbl.AddRow("allowed origins", strings.Join(cfg.AllowedOrigins(), ", "))
			tbl.AddRow("rate limit", cfg.RateLimit)
			tbl.AddRow("settings backend", cfg.SettingsBackend)
			if cfg.SettingsBackend == config.SettingsBackendFile {
				tbl.AddRow("settings path", cfg.SettingsPath)
			}
			tbl.AddRow("default hours per day", cfg.DefaultHoursPerDay)
			tbl.AddRow("ai provider", cfg.AIProvider)
			tbl.AddRow("ai model", orUnset(cfg.AIModel))
			tbl.AddRow("openai key", configured(cfg.OpenAIKey != ""))
			tbl.AddRow("redis", maskURL(cfg.RedisURL))
			tbl.AddRow("database", maskURL(cfg.DatabaseURL))
			tbl.AddRow("rabbitmq", maskURL(cfg.RabbitMQURL))
			tbl.AddRow("log format", cfg.LogFormat)
			tbl.AddRow("otel", configured(cfg.OTELEnabled))

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	return cmd
}

func maskURL(raw string) string {
	if raw == "" {
		return orUnset(raw)
	}
	return logger.SanitizeURL(raw)
}

func orUnset(s string) string {
	if s == "" {
		return color.HiBlackString("(not set)")
	}
	return s
}

func configured(ok bool) string {
	if ok {
		return color.GreenString("configured")
	}
	return color.HiBlackString("disabled")
}
