package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/actions"
	"github.com/lacework/code-security-action/internal/artifact"
	"github.com/lacework/code-security-action/internal/comments"
	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/parsers"
	"github.com/lacework/code-security-action/internal/reporter"
	"github.com/lacework/code-security-action/internal/telemetry"
)

// CLI runs a lacework subcommand
type CLI interface {
	Run(ctx context.Context, args ...string) error
}

// Workflow is the part of the runner protocol the phases write to
type Workflow interface {
	SetOutput(name, value string)
	Group(title string)
	EndGroup()
	Errorf(format string, args ...any)
}

// GitHubAPI covers the pull request calls made during the display phase
type GitHubAPI interface {
	comments.API
	comments.ReviewAPI
}

// KeyDownloader fetches the organisation's trusted signing keys
type KeyDownloader interface {
	Download(ctx context.Context) error
}

// FixPublisher opens pull requests for the fix suggestions of an lw-json report
type FixPublisher interface {
	CreatePRs(ctx context.Context, jsonFile string) error
}

// Deps are the collaborators of a Scanner. GitHub, Keys and Fixer may be nil.
type Deps struct {
	CLI       CLI
	Workflow  Workflow
	Store     artifact.Store
	Context   *actions.Context
	Telemetry *telemetry.Collector
	Logger    *zap.SugaredLogger

	GitHub GitHubAPI
	Keys   KeyDownloader
	Fixer  FixPublisher

	// Account and SubAccount build the console link of the PR comment
	Account    string
	SubAccount string

	// WorkDir is where reports are written, "." by default
	WorkDir string
	// Out receives the printed scan results, os.Stdout by default
	Out io.Writer
}

// Scanner runs the analysis and display phases of the action
type Scanner struct {
	cfg     *models.Config
	cli     CLI
	wf      Workflow
	store   artifact.Store
	ghctx   *actions.Context
	telem   *telemetry.Collector
	log     *zap.SugaredLogger
	github  GitHubAPI
	keys    KeyDownloader
	fixer   FixPublisher
	printer reporter.Reporter

	account    string
	subAccount string
	workDir    string
	out        io.Writer
}

// New creates a new Scanner with the given configuration
func New(cfg *models.Config, deps Deps) *Scanner {
	s := &Scanner{
		cfg:        cfg,
		cli:        deps.CLI,
		wf:         deps.Workflow,
		store:      deps.Store,
		ghctx:      deps.Context,
		telem:      deps.Telemetry,
		log:        deps.Logger,
		github:     deps.GitHub,
		keys:       deps.Keys,
		fixer:      deps.Fixer,
		account:    deps.Account,
		subAccount: deps.SubAccount,
		workDir:    deps.WorkDir,
		out:        deps.Out,
	}
	if s.workDir == "" {
		s.workDir = "."
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.telem == nil {
		s.telem = telemetry.NewCollector()
	}
	if s.ghctx == nil {
		s.ghctx = &actions.Context{}
	}

	format := "terminal"
	if cfg.Debug {
		format = "json"
	}
	s.printer = reporter.Get(format)
	return s
}

func (s *Scanner) path(name string) string {
	return filepath.Join(s.workDir, name)
}

// Analyze runs the requested scans and uploads their reports as the artifact
// of the configured target. Scan failures are logged and returned together
// once the remaining tools have run.
func (s *Scanner) Analyze(ctx context.Context) error {
	target := s.cfg.Target
	s.log.Infof("Analyzing %s", target)

	if s.cfg.Dynamic && s.keys != nil {
		if err := s.keys.Download(ctx); err != nil {
			s.log.Warnf("Failed to download trusted keys: %v", err)
		}
	}

	var reports []models.ScanReport
	var scanErrs []error

	if s.cfg.HasTool(models.ToolSCA) {
		report := s.path(models.SCAReport)
		ok, err := s.runScan(ctx, models.ToolSCA, report, SCAArgs(s.cfg, report), s.path(models.SCAJSON))
		if err != nil {
			scanErrs = append(scanErrs, err)
		}
		if ok {
			reports = append(reports, models.ScanReport{Tool: models.ToolSCA, Path: report})
			if s.cfg.Autofix {
				s.publishFixes(ctx)
			}
		}
	}

	if s.cfg.HasTool(models.ToolSAST) {
		report := s.path(models.SASTReport)
		ok, err := s.runScan(ctx, models.ToolSAST, report, SASTArgs(s.cfg, report))
		if err != nil {
			scanErrs = append(scanErrs, err)
		}
		if ok {
			reports = append(reports, models.ScanReport{Tool: models.ToolSAST, Path: report})
		}
	}

	name := s.cfg.ArtifactName(target)
	s.wf.Group("Uploading artifact " + name)
	var toUpload []string
	for _, r := range reports {
		s.log.Infof("Uploading %s report %s", r.Tool, filepath.Base(r.Path))
		toUpload = append(toUpload, r.Path)
	}
	err := s.store.Upload(ctx, name, toUpload)
	s.wf.EndGroup()
	if err != nil {
		s.telem.AddError("upload", err)
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	s.wf.SetOutput(target+"-completed", "true")
	return errors.Join(scanErrs...)
}

// runScan invokes one scan and prints its report. It reports whether a report
// was produced, which can happen even when the CLI exits non-zero. Outputs of
// an earlier run are removed first so only this scan's files are reported.
func (s *Scanner) runScan(ctx context.Context, tool, report string, args []string, extra ...string) (bool, error) {
	for _, f := range append([]string{report}, extra...) {
		if err := removeStale(f); err != nil {
			s.telem.AddError(tool, err)
			return false, fmt.Errorf("%s scan skipped: %w", tool, err)
		}
	}

	started := time.Now()
	err := s.cli.Run(ctx, args...)
	s.telem.AddDuration(tool, started)
	if err != nil {
		s.log.Errorf("%s scan failed: %v", strings.ToUpper(tool), err)
		s.wf.Errorf("%s scan failed: %v", strings.ToUpper(tool), err)
		s.telem.AddError(tool, err)
		err = fmt.Errorf("%s scan failed: %w", tool, err)
	}

	if !fileExists(report) {
		s.log.Warnf("%s did not produce %s", strings.ToUpper(tool), filepath.Base(report))
		return false, err
	}

	if perr := s.printResults(tool, report); perr != nil {
		s.log.Warnf("Failed to print %s results: %v", tool, perr)
	}
	return true, err
}

func (s *Scanner) printResults(tool, path string) error {
	report, err := reporter.LoadSARIF(path)
	if err != nil {
		return err
	}

	s.wf.Group("Results for " + tool)
	defer s.wf.EndGroup()

	out, err := s.printer.Report(tool, report)
	if err != nil {
		return err
	}
	_, err = s.out.Write(out)
	return err
}

func (s *Scanner) publishFixes(ctx context.Context) {
	if s.fixer == nil {
		return
	}
	jsonFile := s.path(models.SCAJSON)
	if !fileExists(jsonFile) {
		s.log.Warnf("Autofix is enabled but %s was not written", models.SCAJSON)
		return
	}
	if err := s.fixer.CreatePRs(ctx, jsonFile); err != nil {
		s.log.Warnf("Failed to open fix pull requests: %v", err)
		s.telem.AddError("autofix", err)
	}
}

// Display compares the old and new reports and updates the PR comment
func (s *Scanner) Display(ctx context.Context) error {
	s.log.Info("Displaying results")

	oldDir, err := s.download(ctx, "old")
	if err != nil {
		return err
	}
	newDir, err := s.download(ctx, "new")
	if err != nil {
		return err
	}

	var results []models.ComparisonResult
	// complete stays true only if every requested tool was compared
	complete := true
	for _, tool := range []string{models.ToolSCA, models.ToolSAST} {
		oldReport := filepath.Join(oldDir, models.ReportFile(tool))
		newReport := filepath.Join(newDir, models.ReportFile(tool))

		oldOK, newOK := fileExists(oldReport), fileExists(newReport)
		if !oldOK || !newOK {
			if s.cfg.HasTool(tool) {
				complete = false
			}
			if oldOK || newOK || s.cfg.HasTool(tool) {
				s.log.Warnf("Skipping %s comparison: both the old and new reports are required", tool)
			}
			continue
		}

		res, err := s.CompareResults(ctx, tool, oldReport, newReport)
		if err != nil {
			complete = false
			s.log.Errorf("%v", err)
			s.wf.Errorf("%v", err)
			s.telem.AddError("compare-"+tool, err)
			continue
		}
		results = append(results, res)
	}

	switch {
	case hasIssues(results):
		if s.cfg.Token != "" {
			s.postIssues(ctx, results)
		}
	case !complete:
		s.log.Warn("Not every requested comparison ran, leaving the pull request comment unchanged")
	default:
		s.resolveComment(ctx)
	}

	s.wf.SetOutput("display-completed", "true")
	return nil
}

func (s *Scanner) download(ctx context.Context, target string) (string, error) {
	name := s.cfg.ArtifactName(target)
	s.wf.Group("Downloading artifact " + name)
	defer s.wf.EndGroup()

	dir, err := s.store.Download(ctx, name, s.workDir)
	if errors.Is(err, artifact.ErrNotFound) {
		// Missing reports are reported per tool
		s.log.Warnf("Artifact %s was not found", name)
		return s.path(name), nil
	}
	if err != nil {
		s.telem.AddError("download", err)
		return "", fmt.Errorf("failed to download %s: %w", name, err)
	}
	return dir, nil
}

func (s *Scanner) manager() *comments.Manager {
	if s.github == nil || s.ghctx.PullRequest == nil {
		return nil
	}
	hash := comments.StepHash(s.ghctx.Workflow, s.ghctx.Job)
	return comments.NewManager(s.github, s.ghctx.PullRequest.Number, hash, s.log)
}

func (s *Scanner) postIssues(ctx context.Context, results []models.ComparisonResult) {
	s.log.Info("Posting comment to GitHub PR as there were new issues introduced")

	link := reporter.UILink(s.account, s.subAccount, s.ghctx.Owner, s.ghctx.Repo, s.ghctx.DefaultBranch, s.ghctx.BaseRef)
	message := reporter.BuildMessage(results, s.cfg.Footer, link)
	fmt.Fprintln(s.out, message)

	mgr := s.manager()
	if mgr == nil {
		s.log.Info("Not running in a pull request, the comment was not posted")
		return
	}

	comment, err := mgr.Post(ctx, message)
	if err != nil {
		s.log.Errorf("Failed to post comment: %v", err)
		s.telem.AddError("comment", err)
		return
	}
	s.telem.AddField("comments.posted", "true")
	if comment.URL != "" {
		s.wf.SetOutput("posted-comment", comment.URL)
	}

	if s.cfg.Autofix {
		s.postReviewComments(ctx, results)
	}
}

func (s *Scanner) postReviewComments(ctx context.Context, results []models.ComparisonResult) {
	var entries []models.VulnerabilityEntry
	for _, res := range results {
		entries = append(entries, parsers.ParseVulnerabilities(res.Markdown)...)
	}
	groups := parsers.GroupByLocation(entries)
	if len(groups) == 0 {
		return
	}

	pr := s.ghctx.PullRequest
	commit := pr.HeadSHA
	if commit == "" {
		commit = s.ghctx.SHA
	}

	reviewer := comments.NewReviewer(s.github, pr.Number, commit, reporter.ReviewCommentBody, s.log)
	stats, err := reviewer.Post(ctx, groups)
	if err != nil {
		s.log.Errorf("Failed to post review comments: %v", err)
		s.telem.AddError("review-comments", err)
		return
	}
	for _, e := range stats.Errors {
		s.telem.AddError("review-comment", e)
	}
	s.telem.AddField("comments.review.posted", fmt.Sprint(stats.Posted))
	s.telem.AddField("comments.review.skipped", fmt.Sprint(stats.Skipped))
	s.log.Infof("Posted %d review comments (%d skipped, %d failed)", stats.Posted, stats.Skipped, stats.Failed)
}

func (s *Scanner) resolveComment(ctx context.Context) {
	mgr := s.manager()
	if mgr == nil {
		return
	}
	found, err := mgr.Resolve(ctx, reporter.ResolvedMessage)
	if err != nil {
		s.log.Errorf("Failed to resolve comment: %v", err)
		s.telem.AddError("comment", err)
		return
	}
	if found {
		s.telem.AddField("comments.resolved", "true")
	}
}

func hasIssues(results []models.ComparisonResult) bool {
	for _, r := range results {
		if r.HasIssues() {
			return true
		}
	}
	return false
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove previous %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
