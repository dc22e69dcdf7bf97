package comments

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/parsers"
)

// ReviewAPI is the subset of the GitHub pulls API used for review comments
type ReviewAPI interface {
	ListPullFiles(ctx context.Context, number int) ([]models.PullFile, error)
	CreateReviewComment(ctx context.Context, number int, rc models.ReviewComment) error
}

// ReviewStats summarises one round of review comments
type ReviewStats struct {
	Posted  int
	Skipped int
	Failed  int
	Errors  []error
}

// Reviewer posts one review comment per (file, line) location
type Reviewer struct {
	api      ReviewAPI
	number   int
	commitID string
	render   func([]models.VulnerabilityEntry) string
	log      *zap.SugaredLogger
}

// NewReviewer creates a reviewer for PR number at the given head commit.
// render turns the entries of one location into a comment body.
func NewReviewer(api ReviewAPI, number int, commitID string, render func([]models.VulnerabilityEntry) string, log *zap.SugaredLogger) *Reviewer {
	return &Reviewer{api: api, number: number, commitID: commitID, render: render, log: log}
}

// Post comments on every group whose line is part of the PR diff. A failed
// comment is recorded and the remaining groups are still attempted.
func (r *Reviewer) Post(ctx context.Context, groups []parsers.LocationGroup) (ReviewStats, error) {
	var stats ReviewStats
	if len(groups) == 0 {
		return stats, nil
	}

	files, err := r.api.ListPullFiles(ctx, r.number)
	if err != nil {
		return stats, fmt.Errorf("failed to list files of PR #%d: %w", r.number, err)
	}
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Filename] = f.Patch
	}

	for _, g := range groups {
		patch, ok := patches[g.Location.FilePath]
		if !ok {
			r.log.Debugf("%s is not modified by the PR, skipping", g.Location.FilePath)
			stats.Skipped++
			continue
		}
		position, ok := parsers.CalculatePosition(patch, g.Location.Line)
		if !ok {
			r.log.Debugf("%s is outside the PR diff, skipping", g.Location)
			stats.Skipped++
			continue
		}

		rc := models.ReviewComment{
			CommitID: r.commitID,
			Path:     g.Location.FilePath,
			Position: position,
			Body:     r.render(g.Entries),
		}
		if err := r.api.CreateReviewComment(ctx, r.number, rc); err != nil {
			r.log.Warnf("Failed to comment on %s: %v", g.Location, err)
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Errorf("%s: %w", g.Location, err))
			continue
		}
		stats.Posted++
	}

	return stats, nil
}
