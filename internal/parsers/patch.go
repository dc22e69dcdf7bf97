package parsers

import (
	"errors"
	"strings"
)

const (
	modifiedFilesHeading = "## Files that have been modified:"
	explanationHeading   = "## Explanation: why is this SmartFix recommended?"
)

// PatchSummary is the markdown written by "sca patch"
type PatchSummary struct {
	Title string
	// Bump is the "<package> ... " part of "bump <package> to <version>"
	Bump  string
	Files []string
	Body  string
}

// ParsePatchSummary extracts the PR title, bump target and modified files
func ParsePatchSummary(text string) (*PatchSummary, error) {
	first, _, _ := strings.Cut(text, "\n")
	title := strings.TrimSpace(strings.TrimLeft(first, "# "))
	if title == "" {
		return nil, errors.New("patch summary has no title")
	}

	_, afterBump, ok := strings.Cut(title, "bump ")
	if !ok {
		return nil, errors.New("patch summary title has no bump target")
	}
	bump, _, _ := strings.Cut(afterBump, " to")

	summary := &PatchSummary{
		Title: title,
		Bump:  bump,
		Body:  text,
	}

	start := strings.Index(text, modifiedFilesHeading)
	if start == -1 {
		return summary, nil
	}
	section := text[start+len(modifiedFilesHeading):]
	if end := strings.Index(section, explanationHeading); end != -1 {
		section = section[:end]
	} else {
		return summary, nil
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-* ")
		line = strings.Trim(line, "`")
		if line != "" {
			summary.Files = append(summary.Files, line)
		}
	}

	return summary, nil
}

// BranchSuffix turns the bump target into something usable in a branch name
func (p *PatchSummary) BranchSuffix() string {
	s := strings.NewReplacer(" ", "_", ":", "-").Replace(p.Bump)
	return strings.TrimSuffix(s, ".")
}
