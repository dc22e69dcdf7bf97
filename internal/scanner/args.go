package scanner

import "github.com/lacework/code-security-action/internal/models"

// SCAArgs builds the CLI arguments of a dependency scan writing to output
func SCAArgs(cfg *models.Config, output string) []string {
	formats := "sarif"
	if cfg.Autofix {
		formats = "sarif,lw-json"
	}
	args := []string{
		"sca", "git", ".",
		"--save-results",
		"-o", output,
		"--formats", formats,
		"--deployment", "ci",
	}
	if cfg.Autofix {
		args = append(args, "--fix-suggestions")
	}
	if cfg.EvalDirectOnly() {
		args = append(args, "--eval-direct-only")
	}
	if cfg.Debug {
		args = append(args, "--debug")
	}
	return args
}

// SASTArgs builds the CLI arguments of a code scan writing to output
func SASTArgs(cfg *models.Config, output string) []string {
	args := []string{
		"sast", "scan",
		"--save-results",
		"--classes", orDefault(cfg.Classes, "."),
		"--sources", orDefault(cfg.Sources, "."),
	}
	if cfg.Classpath != "" {
		args = append(args, "--classpath", cfg.Classpath)
	}
	args = append(args, "-o", output, "--deployment", "ci")
	if cfg.Debug {
		args = append(args, "--debug")
	}
	return args
}

// CompareArgs builds the CLI arguments of "<tool> compare"
func CompareArgs(cfg *models.Config, tool, oldReport, newReport, markdown, link string) []string {
	args := []string{
		tool, "compare",
		"--old", oldReport,
		"--new", newReport,
		"--markdown", markdown,
		"--link", link,
		"--markdown-variant", "GitHub",
		"--deployment", "ci",
	}
	if cfg.Debug {
		args = append(args, "--debug")
	}
	return args
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
