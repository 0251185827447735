package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/settings"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// NewTimerCmd creates the timer settings command with show, set and reset subcommands.
func NewTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Manage focus timer settings",
		Long:  "Show or update the persisted focus timer settings in the backend selected by SETTINGS_BACKEND.",
	}
	cmd.AddCommand(newTimerShowCmd())
	cmd.AddCommand(newTimerSetCmd())
	cmd.AddCommand(newTimerResetCmd())
	return cmd
}

// withSettings loads config, opens the settings store and runs fn against it
func withSettings(cmd *cobra.Command, fn func(ctx context.Context, store settings.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	store, closeStore, err := openSettings(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close settings backend: %v\n", err)
		}
	}()
	return fn(ctx, store)
}

func newTimerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current timer settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(ctx context.Context, store settings.Store) error {
				s, err := store.Load(ctx)
				if err != nil {
					return fmt.Errorf("load timer settings: %w", err)
				}
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newTimerSetCmd() *cobra.Command {
	var work, shortBreak, longBreak, sessions int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update timer settings",
		Long: `Update one or more timer settings. Unset flags keep their stored value.
Allowed ranges: work 5-60, break 1-15, long break 5-30 minutes, sessions 2-6.`,
		Example: `  study-planner-configure timer set --work 50 --break 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("work") && !flags.Changed("break") && !flags.Changed("long-break") && !flags.Changed("sessions") {
				return fmt.Errorf("at least one of --work, --break, --long-break or --sessions is required")
			}
			return withSettings(cmd, func(ctx context.Context, store settings.Store) error {
				s, err := store.Load(ctx)
				if err != nil {
					return fmt.Errorf("load timer settings: %w", err)
				}
				if flags.Changed("work") {
					s.WorkDuration = work
				}
				if flags.Changed("break") {
					s.BreakDuration = shortBreak
				}
				if flags.Changed("long-break") {
					s.LongBreakDuration = longBreak
				}
				if flags.Changed("sessions") {
					s.SessionsBeforeLongBreak = sessions
				}
				if err := store.Save(ctx, s); err != nil {
					return fmt.Errorf("save timer settings: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Timer settings updated"))
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&work, "work", 0, "Work interval in minutes")
	cmd.Flags().IntVar(&shortBreak, "break", 0, "Short break in minutes")
	cmd.Flags().IntVar(&longBreak, "long-break", 0, "Long break in minutes")
	cmd.Flags().IntVar(&sessions, "sessions", 0, "Work sessions before a long break")
	return cmd
}

func newTimerResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove stored timer settings so the defaults apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(ctx context.Context, store settings.Store) error {
				if err := store.Clear(ctx); err != nil {
					return fmt.Errorf("clear timer settings: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Timer settings reset to defaults"))
				printSettings(cmd.OutOrStdout(), models.DefaultTimerSettings())
				return nil
			})
		},
	}
}

func printSettings(w io.Writer, s models.TimerSettings) {
	bold := color.New(color.Bold)
	defaults := models.DefaultTimerSettings()

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Setting"), bold.Sprint("Value"), bold.Sprint("Default"))
	rows := []struct {
		name     string
		value    int
		fallback int
	}{
		{"work (min)", s.WorkDuration, defaults.WorkDuration},
		{"break (min)", s.BreakDuration, defaults.BreakDuration},
		{"long break (min)", s.LongBreakDuration, defaults.LongBreakDuration},
		{"sessions before long break", s.SessionsBeforeLongBreak, defaults.SessionsBeforeLongBreak},
	}
	for _, row := range rows {
		value := strconv.Itoa(row.value)
		if row.value != row.fallback {
			value = color.YellowString(value)
		}
		tbl.AddRow(row.name, value, row.fallback)
	}
	tbl.RightAlign(1)

	_, _ = fmt.Fprintln(w, tbl)
}
