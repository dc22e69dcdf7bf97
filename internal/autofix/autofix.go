// Package autofix turns the CLI's fix suggestions into pull requests, one
// branch per suggested upgrade.
package autofix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/parsers"
	"github.com/lacework/code-security-action/internal/telemetry"
)

const (
	branchPrefix = "codesec/sca/"
	gitUser      = "Lacework Code Security"
	gitEmail     = "support@lacework.net"
)

// CLI runs a lacework subcommand
type CLI interface {
	Run(ctx context.Context, args ...string) error
}

// CommandRunner runs an external program, git in this package
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// PullAPI finds, opens and updates pull requests
type PullAPI interface {
	FindOpenPull(ctx context.Context, branch string) (int, bool, error)
	CreatePull(ctx context.Context, head, base, title, body string) (int, error)
	UpdatePull(ctx context.Context, number int, title, body string) error
}

// Fixer publishes fix suggestions as pull requests against the current branch
type Fixer struct {
	cli     CLI
	git     CommandRunner
	api     PullAPI
	branch  string
	workDir string
	telem   *telemetry.Collector
	log     *zap.SugaredLogger
}

// New creates a fixer that branches off, and returns to, branch
func New(cli CLI, git CommandRunner, api PullAPI, branch, workDir string, telem *telemetry.Collector, log *zap.SugaredLogger) *Fixer {
	if workDir == "" {
		workDir = "."
	}
	return &Fixer{
		cli:     cli,
		git:     git,
		api:     api,
		branch:  branch,
		workDir: workDir,
		telem:   telem,
		log:     log,
	}
}

// CreatePRs opens or refreshes one pull request per fix suggestion in jsonFile.
// A failing suggestion is logged and does not stop the others.
func (f *Fixer) CreatePRs(ctx context.Context, jsonFile string) error {
	started := time.Now()
	defer f.telem.AddDuration("autofix", started)

	report, err := parsers.ParseLWJSONFile(jsonFile)
	if err != nil {
		return err
	}
	if len(report.FixSuggestions) == 0 {
		f.log.Info("No fix suggestions were found")
		return nil
	}
	if f.branch == "" {
		return fmt.Errorf("cannot open fix pull requests: current branch is unknown")
	}

	if err := f.gitRun(ctx, "config", "--global", "user.name", gitUser); err != nil {
		return err
	}
	if err := f.gitRun(ctx, "config", "--global", "user.email", gitEmail); err != nil {
		return err
	}

	for _, fix := range report.FixSuggestions {
		if err := f.createPR(ctx, jsonFile, fix); err != nil {
			f.log.Warnf("Fix %s was not published: %v", fix.FixID, err)
			f.telem.AddError("autofix", err)
		}
	}
	return nil
}

func (f *Fixer) createPR(ctx context.Context, jsonFile string, fix models.FixSuggestion) (err error) {
	summaryPath := filepath.Join(f.workDir, models.PatchSummary)
	if err := f.cli.Run(ctx, "sca", "patch", ".", "--sbom", jsonFile, "--fix-id", fix.FixID, "-o", summaryPath); err != nil {
		return fmt.Errorf("sca patch failed: %w", err)
	}

	data, err := os.ReadFile(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to read patch summary: %w", err)
	}
	summary, err := parsers.ParsePatchSummary(string(data))
	if err != nil {
		return err
	}

	branch := branchPrefix + f.branch + "/" + summary.BranchSuffix()
	if err := f.gitRun(ctx, "checkout", "-B", branch); err != nil {
		return err
	}
	defer func() {
		if cerr := f.gitRun(ctx, "checkout", f.branch); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, file := range summary.Files {
		if err := f.gitRun(ctx, "add", file); err != nil {
			return err
		}
	}
	if err := f.gitRun(ctx, "commit", "-m", "Fix for: "+branch+"."); err != nil {
		return err
	}
	if err := f.gitRun(ctx, "push", "origin", branch, "--force"); err != nil {
		return err
	}

	return f.publish(ctx, branch, summary)
}

func (f *Fixer) publish(ctx context.Context, branch string, summary *parsers.PatchSummary) error {
	started := time.Now()
	defer f.telem.AddDuration("autofix.api", started)

	number, found, err := f.api.FindOpenPull(ctx, branch)
	if err != nil {
		return err
	}
	if found {
		if err := f.api.UpdatePull(ctx, number, summary.Title, summary.Body); err != nil {
			return err
		}
		f.log.Infof("Updated pull request #%d for %s", number, branch)
		f.telem.Increment("prs.updated")
		f.telem.Increment("prs.total")
		return nil
	}

	number, err = f.api.CreatePull(ctx, branch, f.branch, summary.Title, summary.Body)
	if err != nil {
		return err
	}
	f.log.Infof("Opened pull request #%d for %s", number, branch)
	f.telem.Increment("prs.created")
	f.telem.Increment("prs.total")
	return nil
}

func (f *Fixer) gitRun(ctx context.Context, args ...string) error {
	if err := f.git.Run(ctx, "git", args...); err != nil {
		return fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return nil
}
