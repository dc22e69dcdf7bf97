// Package comments keeps a single tracking comment per workflow step on a pull
// request and posts per-line review comments.
package comments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/models"
)

const (
	namespace = "lacework-code-analysis"

	// pages of 100 comments searched before giving up on finding the tracking comment
	maxPages = 5
	perPage  = 100
)

const zeroWidthSpace = "\u200b"

var issueRef = regexp.MustCompile(`#\d+`)

// API is the subset of the GitHub issues API the manager needs
type API interface {
	ListComments(ctx context.Context, number, page, perPage int) ([]models.Comment, error)
	CreateComment(ctx context.Context, number int, body string) (models.Comment, error)
	UpdateComment(ctx context.Context, id int64, body string) (models.Comment, error)
}

// StepHash identifies a workflow step. It is stable across runs of the same
// workflow and job.
func StepHash(workflow, job string) string {
	sum := sha256.Sum256([]byte(namespace + workflow + job))
	return hex.EncodeToString(sum[:])
}

// Marker is the hidden line appended to every comment the action writes
func Marker(hash string) string {
	return fmt.Sprintf("<!--- %s: %s --->", namespace, hash)
}

// EscapeIssueRefs stops GitHub from linking "#123" tokens to unrelated issues by
// inserting a zero-width space after the '#'. Only tokens delimited by
// whitespace or the ends of the text are touched.
func EscapeIssueRefs(text string) string {
	matches := issueRef.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && !isSpace(text[start-1]) {
			continue
		}
		if end < len(text) && !isSpace(text[end]) {
			continue
		}
		sb.WriteString(text[last : start+1])
		sb.WriteString(zeroWidthSpace)
		last = start + 1
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// Manager finds and mutates the tracking comment of one pull request
type Manager struct {
	api    API
	number int
	hash   string
	log    *zap.SugaredLogger
}

// NewManager creates a manager for the comment identified by hash on PR number
func NewManager(api API, number int, hash string, log *zap.SugaredLogger) *Manager {
	return &Manager{api: api, number: number, hash: hash, log: log}
}

// FindTrackingComment returns the first comment carrying the step hash
func (m *Manager) FindTrackingComment(ctx context.Context) (*models.Comment, error) {
	for page := 1; page <= maxPages; page++ {
		comments, err := m.api.ListComments(ctx, m.number, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments on PR #%d: %w", m.number, err)
		}
		for i := range comments {
			if strings.Contains(comments[i].Body, m.hash) {
				return &comments[i], nil
			}
		}
		if len(comments) < perPage {
			break
		}
	}
	return nil, nil
}

// Post writes message to the tracking comment, creating it on the first run
func (m *Manager) Post(ctx context.Context, message string) (models.Comment, error) {
	body := EscapeIssueRefs(message) + "\n\n" + Marker(m.hash)

	existing, err := m.FindTrackingComment(ctx)
	if err != nil {
		return models.Comment{}, err
	}

	if existing != nil {
		m.log.Infof("Updating existing comment %d", existing.ID)
		c, err := m.api.UpdateComment(ctx, existing.ID, body)
		if err != nil {
			return models.Comment{}, fmt.Errorf("failed to update comment %d: %w", existing.ID, err)
		}
		return c, nil
	}

	m.log.Infof("Creating a new comment on PR #%d", m.number)
	c, err := m.api.CreateComment(ctx, m.number, body)
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to create comment on PR #%d: %w", m.number, err)
	}
	return c, nil
}

// Resolve overwrites an existing tracking comment with message. It reports
// whether a comment was found.
func (m *Manager) Resolve(ctx context.Context, message string) (bool, error) {
	existing, err := m.FindTrackingComment(ctx)
	if err != nil {
		return false, err
	}
	if existing == nil {
		m.log.Debug("No tracking comment to resolve")
		return false, nil
	}

	body := message + "\n\n" + Marker(m.hash)
	if _, err := m.api.UpdateComment(ctx, existing.ID, body); err != nil {
		return true, fmt.Errorf("failed to resolve comment %d: %w", existing.ID, err)
	}
	m.log.Infof("Marked comment %d as resolved", existing.ID)
	return true, nil
}
