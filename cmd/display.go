package cmd

import (
	"github.com/spf13/cobra"
)

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Compare results-old with results-new and update the pull request comment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), modeDisplay, "")
	},
}
