package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lacework/code-security-action/internal/config"
)

var (
	flagFailOnError bool
	flagActionPath  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "code-security-action",
	Short: "Run Lacework code security scans in GitHub Actions",
	Long: `code-security-action wraps the lacework CLI for pull request workflows.

With the target input set it runs the requested scans (sca, sast) and stores
the reports as the artifact results-<target>. Without a target it compares the
"old" and "new" reports and keeps a single comment on the pull request up to
date with the issues the change introduces.

Inputs are read from INPUT_* environment variables, as set by the runner.

Examples:
  # Scan the checked out code as the "new" target
  INPUT_TARGET=new INPUT_TOOLS=sca,sast code-security-action

  # Compare old and new, then comment on the pull request
  INPUT_TOKEN=$GITHUB_TOKEN code-security-action display`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), modeAuto, "")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Failures of a phase exit 0 unless --fail-on-error is set or credentials are
// missing; usage errors exit 2.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var f *failure
	if !errors.As(err, &f) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	fmt.Fprintln(os.Stderr, "Error:", f.err)
	// missing credentials are fatal regardless of --fail-on-error
	if flagFailOnError || errors.Is(f.err, config.ErrMissingEnv) {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagFailOnError, "fail-on-error", false, "Exit with status 1 when a phase fails")
	rootCmd.PersistentFlags().StringVar(&flagActionPath, "action-path", "", "Directory containing action.yml (default: $GITHUB_ACTION_PATH)")

	rootCmd.AddCommand(analyzeCmd, displayCmd, postCmd)
}

// failure is an error that has already been logged and reported
type failure struct {
	err error
}

func (f *failure) Error() string {
	return f.err.Error()
}

func (f *failure) Unwrap() error {
	return f.err
}
