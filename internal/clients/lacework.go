package clients

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/config"
)

const laceworkBinary = "lacework"

// LaceworkCLI invokes the lacework CLI with the account credentials injected
type LaceworkCLI struct {
	runner CommandRunner
	creds  config.Credentials
	log    *zap.SugaredLogger
	binary string
}

// NewLaceworkCLI creates a new CLI invoker
func NewLaceworkCLI(runner CommandRunner, creds config.Credentials, log *zap.SugaredLogger) *LaceworkCLI {
	return &LaceworkCLI{
		runner: runner,
		creds:  creds,
		log:    log,
		binary: laceworkBinary,
	}
}

// Run calls the CLI and waits for it. A non-zero exit is returned as *ExitError;
// deciding whether that is fatal is up to the caller.
func (c *LaceworkCLI) Run(ctx context.Context, args ...string) error {
	expanded := c.expandArgs(args)
	c.log.Infof("Calling %s %s", c.binary, strings.Join(c.redact(expanded), " "))
	return c.runner.Run(ctx, c.binary, expanded...)
}

func (c *LaceworkCLI) expandArgs(args []string) []string {
	expanded := []string{
		"--noninteractive",
		"--account", c.creds.Account,
		"--api_key", c.creds.APIKey,
		"--api_secret", c.creds.APISecret,
	}
	return append(expanded, args...)
}

// redact hides the key and secret from logged command lines
func (c *LaceworkCLI) redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		if out[i-1] == "--api_key" || out[i-1] == "--api_secret" {
			out[i] = "***"
		}
	}
	return out
}
