package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lacework/code-security-action/internal/models"
)

// CompareResults asks the CLI for a markdown summary of what newReport adds
// over oldReport. The markdown is returned verbatim, or empty when the CLI did
// not write one.
func (s *Scanner) CompareResults(ctx context.Context, tool, oldReport, newReport string) (models.ComparisonResult, error) {
	result := models.ComparisonResult{Tool: tool}
	markdown := s.path(tool + ".md")

	s.wf.Group("Comparing " + tool + " results")
	defer s.wf.EndGroup()

	args := CompareArgs(s.cfg, tool, oldReport, newReport, markdown, s.ghctx.BlobLinkTemplate())
	if err := s.cli.Run(ctx, args...); err != nil {
		return result, fmt.Errorf("%s compare failed: %w", tool, err)
	}

	data, err := os.ReadFile(markdown)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debugf("No %s comparison markdown was written", tool)
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", filepath.Base(markdown), err)
	}

	result.Markdown = string(data)
	return result, nil
}
