package commands

import (
	"fmt"

	"github.com/benvon/study-planner/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd prints the build metadata
func NewVersionCmd() *cobra.Command {
	shortened := false
	output := "json"
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Example: `
study-planner-configure version -o yaml
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q (expected json or yaml)", output)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.Render(shortened, output))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")

	return cmd
}
