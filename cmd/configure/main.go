package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/benvon/study-planner/cmd/configure/commands"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "study-planner-configure",
		Short: "Inspect and manage study planner configuration",
		Long: "Shows the effective configuration, edits the persisted focus timer settings, " +
			"checks backend connectivity and maintains the recommendation dead-letter queue.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		commands.NewListCmd(),
		commands.NewTimerCmd(),
		commands.NewTestCmd(),
		commands.NewDLQCmd(),
		commands.NewVersionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		stop()
		os.Exit(1)
	}
}
