package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/actions"
	"github.com/lacework/code-security-action/internal/artifact"
	"github.com/lacework/code-security-action/internal/autofix"
	"github.com/lacework/code-security-action/internal/cache"
	"github.com/lacework/code-security-action/internal/clients"
	"github.com/lacework/code-security-action/internal/config"
	"github.com/lacework/code-security-action/internal/keys"
	"github.com/lacework/code-security-action/internal/logging"
	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/scanner"
	"github.com/lacework/code-security-action/internal/telemetry"
)

const appName = "lacework-code-security"

type mode int

const (
	// modeAuto picks the phase from the target input
	modeAuto mode = iota
	modeAnalyze
	modeDisplay
)

// app holds everything a phase needs, resolved once per process
type app struct {
	rt    *actions.Runtime
	cfg   *models.Config
	log   *zap.SugaredLogger
	creds config.Credentials
	cli   *clients.LaceworkCLI
	telem *telemetry.Collector
	ghctx *actions.Context
}

// newRuntime binds the runner environment, using action.yml for input defaults
func newRuntime() *actions.Runtime {
	probe := actions.New()
	dir := flagActionPath
	if dir == "" {
		dir = probe.Getenv("GITHUB_ACTION_PATH")
	}
	if dir == "" {
		return probe
	}
	meta, err := config.LoadMetadata(filepath.Join(dir, "action.yml"))
	if err != nil {
		return probe
	}
	return actions.New(actions.WithDefaults(meta.Defaults()))
}

func newApp(m mode, target string) (*app, error) {
	rt := newRuntime()
	cfg := config.Load(rt)
	cfg.FailOnError = flagFailOnError
	switch m {
	case modeAnalyze:
		if target != "" {
			cfg.Target = target
		}
		if cfg.Target == "" {
			return nil, errors.New("analyze needs a target, either as argument or as the target input")
		}
	case modeDisplay:
		cfg.Target = ""
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	creds, err := config.LoadCredentials(rt.Getenv, config.DefaultProfilePath())
	if err != nil {
		log.Error(err)
		rt.Errorf("%v", err)
		return nil, err
	}
	rt.AddMask(creds.APIKey)
	rt.AddMask(creds.APISecret)
	rt.AddMask(cfg.Token)

	ghctx, err := rt.Context()
	if err != nil {
		log.Error(err)
		return nil, err
	}

	a := &app{
		rt:    rt,
		cfg:   cfg,
		log:   log,
		creds: creds,
		cli:   clients.NewLaceworkCLI(clients.NewExecRunner(), creds, log),
		telem: newCollector(rt, ghctx),
		ghctx: ghctx,
	}
	a.telem.AddField("tools", strings.Join(cfg.Tools, ","))
	return a, nil
}

// newCollector starts a collector with the fields every report carries
func newCollector(rt *actions.Runtime, ghctx *actions.Context) *telemetry.Collector {
	telem := telemetry.NewCollector()
	telem.SetStart(rt.Getenv("LACEWORK_START_TIME"))
	version := rt.Getenv("LACEWORK_ACTION_REF")
	if version == "" {
		version = "unknown"
	}
	telem.AddField("version", version)
	telem.AddField("url", ghctx.RunURL())
	telem.AddField("repository", ghctx.Repository)
	return telem
}

// run executes one phase. Errors are logged and reported before they reach
// Execute, which only decides the exit status.
func run(ctx context.Context, m mode, target string) error {
	a, err := newApp(m, target)
	if err != nil {
		return &failure{err: err}
	}
	defer a.log.Sync() //nolint:errcheck

	phase := "analysis"
	if a.cfg.IsDisplay() {
		phase = "display"
	}
	a.telem.AddField("phase", phase)
	defer a.telem.Flush(ctx, a.cli, a.log, func() {
		a.rt.SetEnv(telemetry.ReportedEnv, "true")
	})

	s, err := a.newScanner(ctx)
	if err != nil {
		return a.fail(phase, err)
	}

	if a.cfg.IsDisplay() {
		err = s.Display(ctx)
	} else {
		err = s.Analyze(ctx)
	}
	if err != nil {
		return a.fail(phase, err)
	}
	return nil
}

func (a *app) fail(phase string, err error) error {
	a.log.Errorf("%s failed: %v", phase, err)
	a.rt.Errorf("%v", err)
	a.telem.AddError(phase, err)
	return &failure{err: err}
}

func (a *app) newScanner(ctx context.Context) (*scanner.Scanner, error) {
	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	deps := scanner.Deps{
		CLI:        a.cli,
		Workflow:   a.rt,
		Store:      store,
		Context:    a.ghctx,
		Telemetry:  a.telem,
		Logger:     a.log,
		Account:    a.creds.Account,
		SubAccount: a.rt.Getenv("LW_SUBACCOUNT_NAME"),
	}

	if a.cfg.Token == "" {
		a.log.Debug("No token was given, GitHub API features are disabled")
		return scanner.New(a.cfg, deps), nil
	}

	gh, err := clients.NewGitHub(a.cfg.Token, a.ghctx.APIURL, a.ghctx.Owner, a.ghctx.Repo, a.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	deps.GitHub = gh

	if a.cfg.Dynamic {
		deps.Keys = a.newKeyDownloader(gh)
	}
	if a.cfg.Autofix && !a.cfg.IsDisplay() {
		deps.Fixer = autofix.New(a.cli, clients.NewExecRunner(), gh, a.ghctx.CurrentBranch(), ".", a.telem, a.log)
	}

	return scanner.New(a.cfg, deps), nil
}

func (a *app) newStore(ctx context.Context) (artifact.Store, error) {
	ac := config.LoadArtifactConfig(a.rt.Getenv)
	if err := ac.Validate(a.rt.Getenv("GITHUB_ACTIONS") == "true"); err != nil {
		return nil, err
	}

	runID := "local"
	if a.ghctx.RunID != 0 {
		runID = strconv.FormatInt(a.ghctx.RunID, 10)
	}

	if ac.UseMinio() {
		a.log.Debugf("Using artifact bucket %s at %s", ac.Bucket, ac.Endpoint)
		return artifact.NewMinioStore(ctx, ac.Endpoint, ac.Region, ac.Bucket, ac.AccessKey, ac.SecretKey, ac.UseSSL, runID)
	}
	a.log.Debugf("Using artifact directory %s", ac.Dir)
	return artifact.NewLocalStore(ac.Dir, runID), nil
}

func (a *app) newKeyDownloader(gh *clients.GitHub) *keys.Downloader {
	org := a.rt.Getenv("GITHUB_REPOSITORY_OWNER")
	if org == "" {
		org = a.ghctx.Owner
	}

	var c *cache.Cache
	if dir, err := cache.DefaultDir(a.rt.Getenv, appName); err == nil {
		if c, err = cache.New(dir, cache.DefaultTTL); err != nil {
			a.log.Debugf("Key cache disabled: %v", err)
			c = nil
		}
	}

	return keys.NewDownloader(gh, c, org, keys.Dir, a.telem, a.log)
}
