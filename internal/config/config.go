package config

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lacework/code-security-action/internal/actions"
	"github.com/lacework/code-security-action/internal/models"
)

// Load builds the run configuration from the step inputs
func Load(rt *actions.Runtime) *models.Config {
	cfg := models.DefaultConfig()

	cfg.Target = rt.Input("target")
	if tools := splitAndTrim(rt.Input("tools")); len(tools) > 0 {
		cfg.Tools = tools
	}
	cfg.Jar = rt.Input("jar")
	cfg.Classes = rt.InputOrDefault("classes", cfg.Classes)
	cfg.Sources = rt.InputOrDefault("sources", cfg.Sources)
	cfg.Classpath = rt.Input("classpath")
	cfg.EvalIndirectDependencies = rt.Input("eval-indirect-dependencies")
	cfg.Debug = rt.Debug()
	cfg.Autofix = rt.BoolInput("autofix")
	cfg.Dynamic = rt.BoolInput("dynamic")
	cfg.Token = rt.Input("token")
	cfg.Footer = rt.Input("footer")
	cfg.ArtifactPrefix = rt.Input("artifact-prefix")

	if v := rt.Getenv("LACEWORK_API_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}

	// The legacy jar input only mattered when classes was not given
	if cfg.Jar != "" && rt.Input("classes") == "" {
		cfg.Classes = cfg.Jar
	}

	return cfg
}

// ErrNoArtifactBackend means reports could not leave the job that produced them
var ErrNoArtifactBackend = errors.New("no artifact backend reaches other jobs: set LACEWORK_ARTIFACT_DIR to a staged or shared directory, or LACEWORK_ARTIFACT_ENDPOINT")

// ArtifactConfig selects and configures the artifact backend
type ArtifactConfig struct {
	// Dir is the directory used by the local backend
	Dir string

	// DirSet is true when Dir was configured rather than defaulted. Only a
	// configured directory is staged by action.yml or shared between jobs.
	DirSet bool

	// S3-compatible backend, used when Endpoint is set
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// UseMinio reports whether the S3-compatible backend is configured
func (c ArtifactConfig) UseMinio() bool {
	return c.Endpoint != ""
}

// LoadArtifactConfig reads LACEWORK_ARTIFACT_* from the environment
func LoadArtifactConfig(getenv func(string) string) ArtifactConfig {
	cfg := ArtifactConfig{
		Dir:       getenv("LACEWORK_ARTIFACT_DIR"),
		Endpoint:  getenv("LACEWORK_ARTIFACT_ENDPOINT"),
		Bucket:    getenv("LACEWORK_ARTIFACT_BUCKET"),
		Region:    getenv("LACEWORK_ARTIFACT_REGION"),
		AccessKey: getenv("LACEWORK_ARTIFACT_ACCESS_KEY"),
		SecretKey: getenv("LACEWORK_ARTIFACT_SECRET_KEY"),
		UseSSL:    strings.ToLower(getenv("LACEWORK_ARTIFACT_USE_SSL")) != "false",
	}
	cfg.DirSet = cfg.Dir != ""
	if !cfg.DirSet {
		tmp := getenv("RUNNER_TEMP")
		if tmp == "" {
			tmp = "."
		}
		cfg.Dir = filepath.Join(tmp, "lacework-artifacts")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "code-security-artifacts"
	}
	return cfg
}

// Validate rejects the defaulted local directory on a CI runner, where each
// job starts with an empty temp directory, often on another machine.
func (c ArtifactConfig) Validate(ci bool) error {
	if ci && !c.UseMinio() && !c.DirSet {
		return ErrNoArtifactBackend
	}
	return nil
}

func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(strings.ToLower(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
