package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/lacework/code-security-action/internal/actions"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestLoad(t *testing.T) {
	rt := actions.New(actions.WithGetenv(envFunc(map[string]string{
		"INPUT_TARGET":                     "new",
		"INPUT_TOOLS":                      "SCA, sast",
		"INPUT_JAR":                        "app.jar",
		"INPUT_EVAL-INDIRECT-DEPENDENCIES": "false",
		"INPUT_AUTOFIX":                    "TRUE",
		"INPUT_ARTIFACT-PREFIX":            "java",
		"LACEWORK_API_TIMEOUT":             "5",
	})), actions.WithWriter(&bytes.Buffer{}))

	cfg := Load(rt)

	if cfg.Target != "new" || cfg.IsDisplay() {
		t.Errorf("Target = %q", cfg.Target)
	}
	if !slices.Equal(cfg.Tools, []string{"sca", "sast"}) {
		t.Errorf("Tools = %v", cfg.Tools)
	}
	if cfg.Classes != "app.jar" {
		t.Errorf("Classes = %q, want the jar input", cfg.Classes)
	}
	if cfg.Sources != "." {
		t.Errorf("Sources = %q, want .", cfg.Sources)
	}
	if !cfg.EvalDirectOnly() {
		t.Error("EvalDirectOnly() = false")
	}
	if !cfg.Autofix || cfg.Dynamic || cfg.Debug {
		t.Errorf("Autofix/Dynamic/Debug = %v/%v/%v", cfg.Autofix, cfg.Dynamic, cfg.Debug)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if got := cfg.ArtifactName("old"); got != "java-results-old" {
		t.Errorf("ArtifactName(old) = %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	rt := actions.New(actions.WithGetenv(envFunc(nil)), actions.WithWriter(&bytes.Buffer{}))
	cfg := Load(rt)

	if !cfg.IsDisplay() {
		t.Error("empty target should select the display phase")
	}
	if !slices.Equal(cfg.Tools, []string{"sca"}) {
		t.Errorf("Tools = %v, want [sca]", cfg.Tools)
	}
	if cfg.ArtifactName("new") != "results-new" {
		t.Errorf("ArtifactName(new) = %q", cfg.ArtifactName("new"))
	}
}

func TestLoadArtifactConfig(t *testing.T) {
	cfg := LoadArtifactConfig(envFunc(map[string]string{"RUNNER_TEMP": "/tmp/runner"}))
	if cfg.UseMinio() {
		t.Error("UseMinio() without an endpoint")
	}
	if cfg.Dir != filepath.Join("/tmp/runner", "lacework-artifacts") {
		t.Errorf("Dir = %q", cfg.Dir)
	}

	cfg = LoadArtifactConfig(envFunc(map[string]string{
		"LACEWORK_ARTIFACT_ENDPOINT": "minio:9000",
		"LACEWORK_ARTIFACT_USE_SSL":  "False",
	}))
	if !cfg.UseMinio() || cfg.UseSSL || cfg.Bucket != "code-security-artifacts" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestArtifactConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		ci      bool
		wantErr bool
	}{
		{"local run with default dir", map[string]string{}, false, false},
		{"runner with default dir", map[string]string{"RUNNER_TEMP": "/tmp/runner"}, true, true},
		{"runner with staged dir", map[string]string{"LACEWORK_ARTIFACT_DIR": "/tmp/runner/lacework-artifacts"}, true, false},
		{"runner with bucket", map[string]string{"LACEWORK_ARTIFACT_ENDPOINT": "minio:9000"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadArtifactConfig(envFunc(tt.env)).Validate(tt.ci)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNoArtifactBackend) {
				t.Errorf("error = %v, want ErrNoArtifactBackend", err)
			}
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".lacework.toml")
	content := `[default]
account = "acme"
api_key = "KEY_DEFAULT"
api_secret = "SECRET_DEFAULT"

[ci]
account = "acme-ci"
api_key = "KEY_CI"
api_secret = "SECRET_CI"
`
	if err := os.WriteFile(profile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		env     map[string]string
		path    string
		want    Credentials
		wantErr string
	}{
		{
			name: "environment only",
			env:  map[string]string{"LW_ACCOUNT_NAME": "a", "LW_API_KEY": "k", "LW_API_SECRET": "s"},
			path: profile,
			want: Credentials{Account: "a", APIKey: "k", APISecret: "s"},
		},
		{
			name: "default profile fills the gaps",
			env:  map[string]string{"LW_ACCOUNT_NAME": "env-account"},
			path: profile,
			want: Credentials{Account: "env-account", APIKey: "KEY_DEFAULT", APISecret: "SECRET_DEFAULT"},
		},
		{
			name: "named profile",
			env:  map[string]string{"LW_PROFILE": "ci"},
			path: profile,
			want: Credentials{Account: "acme-ci", APIKey: "KEY_CI", APISecret: "SECRET_CI"},
		},
		{
			name:    "no fallback",
			env:     map[string]string{"LW_ACCOUNT_NAME": "a", "LW_API_KEY": "k"},
			path:    "",
			wantErr: "LW_API_SECRET",
		},
		{
			name:    "missing profile file",
			env:     map[string]string{},
			path:    filepath.Join(t.TempDir(), "absent.toml"),
			wantErr: "LW_ACCOUNT_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadCredentials(envFunc(tt.env), tt.path)
			if tt.wantErr != "" {
				if !errors.Is(err, ErrMissingEnv) {
					t.Fatalf("error = %v, want ErrMissingEnv", err)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.wantErr)) {
					t.Errorf("error = %v, want it to name %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadCredentials() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadCredentials() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "action.yml")
	content := `name: lacework-code-security
inputs:
  tools:
    description: tools to run
    default: sca
  token:
    description: GitHub token
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	defaults := meta.Defaults()
	if defaults["tools"] != "sca" {
		t.Errorf("defaults = %v", defaults)
	}
	if _, ok := defaults["token"]; ok {
		t.Error("inputs without a default must not appear")
	}
}
