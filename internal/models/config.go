package models

import (
	"strings"
	"time"
)

// Tool names accepted by the tools input
const (
	ToolSCA  = "sca"
	ToolSAST = "sast"
)

// Config holds the resolved action inputs for a single run
type Config struct {
	// Target names the analysis phase ("old", "new", ...). Empty means display phase.
	Target string

	// Tools to run, lower-cased ("sca", "sast")
	Tools []string

	// SAST inputs
	Jar       string
	Classes   string
	Sources   string
	Classpath string

	// EvalIndirectDependencies is the raw input value; only "false" changes behavior
	EvalIndirectDependencies string

	// Behavior settings
	Debug   bool
	Autofix bool
	Dynamic bool

	// GitHub settings
	Token  string
	Footer string

	// ArtifactPrefix is prepended to artifact names when set
	ArtifactPrefix string

	// FailOnError exits non-zero on failures instead of the soft-fail default
	FailOnError bool

	// API settings
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tools:   []string{ToolSCA},
		Classes: ".",
		Sources: ".",
		Timeout: 60 * time.Second,
	}
}

// IsDisplay reports whether this run compares results instead of producing them.
func (c *Config) IsDisplay() bool {
	return c.Target == ""
}

// HasTool returns true if the named tool was requested
func (c *Config) HasTool(tool string) bool {
	for _, t := range c.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// EvalDirectOnly is true only when indirect dependency evaluation was explicitly disabled.
func (c *Config) EvalDirectOnly() bool {
	return strings.ToLower(c.EvalIndirectDependencies) == "false"
}

// ArtifactName returns the artifact name used for the given target
func (c *Config) ArtifactName(target string) string {
	name := "results-" + target
	if c.ArtifactPrefix != "" {
		name = c.ArtifactPrefix + "-" + name
	}
	return name
}
