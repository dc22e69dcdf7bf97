package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CommandRunner runs an external program to completion
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %s failed with status %d", e.Command, e.ExitCode)
}

// ExecRunner streams the child's output straight to the step log
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// NewExecRunner creates a runner that inherits the process stdout/stderr
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes name with args and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Dir = r.Dir

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Command: name, ExitCode: ee.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}
