package cmd

import (
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [target]",
	Short: "Scan the working tree and upload the reports as results-<target>",
	Long: `Scan the working tree and upload the reports as results-<target>.
The target defaults to the target input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		return run(cmd.Context(), modeAnalyze, target)
	},
}
