package actions

import (
	"io"
	"os"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

// Runtime wraps the workflow-command surface of a GitHub Actions step:
// inputs, outputs, environment files and log groups.
type Runtime struct {
	action   *githubactions.Action
	getenv   func(string) string
	writer   io.Writer
	defaults map[string]string
}

// Option configures a Runtime
type Option func(*Runtime)

// WithGetenv replaces the environment lookup, mainly for tests
func WithGetenv(fn func(string) string) Option {
	return func(r *Runtime) { r.getenv = fn }
}

// WithWriter redirects workflow commands
func WithWriter(w io.Writer) Option {
	return func(r *Runtime) { r.writer = w }
}

// WithDefaults sets fallback values for inputs the runner did not provide
func WithDefaults(defaults map[string]string) Option {
	return func(r *Runtime) { r.defaults = defaults }
}

// New creates a Runtime bound to the process environment unless overridden
func New(opts ...Option) *Runtime {
	r := &Runtime{
		getenv: os.Getenv,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.action = githubactions.New(
		githubactions.WithGetenv(r.getenv),
		githubactions.WithWriter(r.writer),
	)
	return r
}

// Input returns the trimmed input value, or its default when unset
func (r *Runtime) Input(name string) string {
	if v := r.action.GetInput(name); v != "" {
		return v
	}
	return r.defaults[name]
}

// InputOrDefault returns the input when non-empty, otherwise def
func (r *Runtime) InputOrDefault(name, def string) string {
	if v := r.Input(name); v != "" {
		return v
	}
	return def
}

// BoolInput is true only for a case-insensitive "true"
func (r *Runtime) BoolInput(name string) bool {
	return strings.ToLower(r.Input(name)) == "true"
}

// RunnerDebug reports whether step debug logging is enabled on the runner
func (r *Runtime) RunnerDebug() bool {
	return r.getenv("RUNNER_DEBUG") == "1"
}

// Debug is true when either the debug input or runner debug logging is on
func (r *Runtime) Debug() bool {
	return r.BoolInput("debug") || r.RunnerDebug()
}

// Getenv reads an environment variable through the configured lookup
func (r *Runtime) Getenv(name string) string {
	return r.getenv(name)
}

// SetOutput sets a step output
func (r *Runtime) SetOutput(name, value string) {
	r.action.SetOutput(name, value)
}

// SetEnv exports a variable to later steps of the job through $GITHUB_ENV
func (r *Runtime) SetEnv(name, value string) {
	r.action.SetEnv(name, value)
}

// Group starts a collapsible log group
func (r *Runtime) Group(title string) {
	r.action.Group(title)
}

// EndGroup closes the current log group
func (r *Runtime) EndGroup() {
	r.action.EndGroup()
}

// Errorf emits an error annotation on the workflow run
func (r *Runtime) Errorf(format string, args ...any) {
	r.action.Errorf(format, args...)
}

// AddMask hides a value from the job log
func (r *Runtime) AddMask(value string) {
	if value != "" {
		r.action.AddMask(value)
	}
}
