package actions

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestDebug(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		runnerDebug string
		want        bool
	}{
		{name: "neither", input: "", runnerDebug: "", want: false},
		{name: "input only", input: "true", runnerDebug: "", want: true},
		{name: "runner only", input: "false", runnerDebug: "1", want: true},
		{name: "both", input: "TRUE", runnerDebug: "1", want: true},
		{name: "input not true", input: "yes", runnerDebug: "0", want: false},
		{name: "mixed case input", input: "True", runnerDebug: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New(
				WithGetenv(envFunc(map[string]string{
					"INPUT_DEBUG":  tt.input,
					"RUNNER_DEBUG": tt.runnerDebug,
				})),
				WithWriter(&bytes.Buffer{}),
			)
			if got := rt.Debug(); got != tt.want {
				t.Errorf("Debug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInputDefaults(t *testing.T) {
	rt := New(
		WithGetenv(envFunc(map[string]string{"INPUT_TOOLS": "sca,sast"})),
		WithDefaults(map[string]string{"tools": "sca", "classes": "."}),
		WithWriter(&bytes.Buffer{}),
	)

	if got := rt.Input("tools"); got != "sca,sast" {
		t.Errorf("Input(tools) = %q, want the runner value", got)
	}
	if got := rt.Input("classes"); got != "." {
		t.Errorf("Input(classes) = %q, want the default", got)
	}
	if got := rt.InputOrDefault("sources", "src"); got != "src" {
		t.Errorf("InputOrDefault(sources) = %q, want src", got)
	}
}

func TestSetOutputWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output")
	if err := os.WriteFile(out, nil, 0644); err != nil {
		t.Fatal(err)
	}

	rt := New(
		WithGetenv(envFunc(map[string]string{"GITHUB_OUTPUT": out})),
		WithWriter(&bytes.Buffer{}),
	)
	rt.SetOutput("new-completed", "true")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("new-completed")) || !bytes.Contains(data, []byte("true")) {
		t.Errorf("output file = %q", data)
	}
}

func TestSplitRepository(t *testing.T) {
	owner, repo := SplitRepository("lacework/code-security-action")
	if owner != "lacework" || repo != "code-security-action" {
		t.Errorf("SplitRepository() = %q, %q", owner, repo)
	}
}

func TestContextLinks(t *testing.T) {
	c := &Context{
		Repository: "o/r",
		Owner:      "o",
		Repo:       "r",
		ServerURL:  "https://github.com",
		SHA:        "abc",
		RunID:      42,
		RefName:    "main",
	}
	if got := c.RunURL(); got != "https://github.com/o/r/actions/runs/42" {
		t.Errorf("RunURL() = %q", got)
	}
	if got := c.BlobLinkTemplate(); got != "https://github.com/o/r/blob/abc/$FILENAME#L$LINENUMBER" {
		t.Errorf("BlobLinkTemplate() = %q", got)
	}
	if got := c.CurrentBranch(); got != "main" {
		t.Errorf("CurrentBranch() = %q, want main", got)
	}
	c.HeadRef = "feature"
	if got := c.CurrentBranch(); got != "feature" {
		t.Errorf("CurrentBranch() = %q, want feature", got)
	}
}

func TestContextReadsPullRequestEvent(t *testing.T) {
	event := filepath.Join(t.TempDir(), "event.json")
	payload := `{"number":5,"pull_request":{"number":5,"head":{"sha":"h1","ref":"feat"},"base":{"ref":"main"}},"repository":{"default_branch":"main"}}`
	if err := os.WriteFile(event, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	rt := New(WithGetenv(envFunc(map[string]string{
		"GITHUB_EVENT_PATH": event,
		"GITHUB_REPOSITORY": "o/r",
		"GITHUB_WORKFLOW":   "CI",
		"GITHUB_JOB":        "display",
	})), WithWriter(&bytes.Buffer{}))

	c, err := rt.Context()
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if c.Owner != "o" || c.Repo != "r" {
		t.Errorf("repository = %s/%s", c.Owner, c.Repo)
	}
	if c.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q", c.DefaultBranch)
	}
	if c.PullRequest == nil || c.PullRequest.Number != 5 || c.PullRequest.HeadSHA != "h1" || c.PullRequest.BaseRef != "main" {
		t.Errorf("PullRequest = %+v", c.PullRequest)
	}
}
