package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/lacework/code-security-action/internal/models"
)

const defaultPerPage = 100

// GitHub handles requests to the GitHub REST API for a single repository
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHub creates a client authenticated with token. baseURL overrides the
// API endpoint (GitHub Enterprise, tests) and may be empty.
func NewGitHub(token, baseURL, owner, repo string, timeout time.Duration) (*GitHub, error) {
	client := github.NewClient(&http.Client{Timeout: timeout}).WithAuthToken(token)

	if baseURL != "" && baseURL != "https://api.github.com" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	return &GitHub{client: client, owner: owner, repo: repo}, nil
}

// ListComments fetches one page of issue comments on a pull request
func (g *GitHub) ListComments(ctx context.Context, number, page, perPage int) ([]models.Comment, error) {
	comments, _, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, number, &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	result := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		result = append(result, toComment(c))
	}
	return result, nil
}

// CreateComment posts a new issue comment on a pull request
func (g *GitHub) CreateComment(ctx context.Context, number int, body string) (models.Comment, error) {
	c, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	return toComment(c), nil
}

// UpdateComment replaces the body of an existing issue comment
func (g *GitHub) UpdateComment(ctx context.Context, id int64, body string) (models.Comment, error) {
	c, _, err := g.client.Issues.EditComment(ctx, g.owner, g.repo, id, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	return toComment(c), nil
}

// ListPullFiles returns every file touched by a pull request
func (g *GitHub) ListPullFiles(ctx context.Context, number int) ([]models.PullFile, error) {
	var files []models.PullFile
	opts := &github.ListOptions{PerPage: defaultPerPage}
	for {
		page, resp, err := g.client.PullRequests.ListFiles(ctx, g.owner, g.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull request files: %w", err)
		}
		for _, f := range page {
			files = append(files, models.PullFile{
				Filename: f.GetFilename(),
				Patch:    f.GetPatch(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// CreateReviewComment posts a comment on a line of the pull request diff
func (g *GitHub) CreateReviewComment(ctx context.Context, number int, rc models.ReviewComment) error {
	_, _, err := g.client.PullRequests.CreateComment(ctx, g.owner, g.repo, number, &github.PullRequestComment{
		CommitID: github.String(rc.CommitID),
		Path:     github.String(rc.Path),
		Position: github.Int(rc.Position),
		Body:     github.String(rc.Body),
	})
	if err != nil {
		return fmt.Errorf("failed to create review comment on %s: %w", rc.Path, err)
	}
	return nil
}

// FindOpenPull returns the number of the open pull request whose head is branch
func (g *GitHub) FindOpenPull(ctx context.Context, branch string) (int, bool, error) {
	pulls, _, err := g.client.PullRequests.List(ctx, g.owner, g.repo, &github.PullRequestListOptions{
		State: "open",
		Head:  g.owner + ":" + branch,
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to list pull requests: %w", err)
	}
	for _, pr := range pulls {
		if pr.GetHead().GetRef() == branch {
			return pr.GetNumber(), true, nil
		}
	}
	return 0, false, nil
}

// CreatePull opens a pull request from head into base
func (g *GitHub) CreatePull(ctx context.Context, head, base, title, body string) (int, error) {
	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create pull request: %w", err)
	}
	return pr.GetNumber(), nil
}

// UpdatePull replaces the title and body of a pull request
func (g *GitHub) UpdatePull(ctx context.Context, number int, title, body string) error {
	_, _, err := g.client.PullRequests.Edit(ctx, g.owner, g.repo, number, &github.PullRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}
	return nil
}

// ListOrgMembers returns the logins of every member of org
func (g *GitHub) ListOrgMembers(ctx context.Context, org string) ([]string, error) {
	var members []string
	for page := 1; ; page++ {
		users, _, err := g.client.Organizations.ListMembers(ctx, org, &github.ListMembersOptions{
			ListOptions: github.ListOptions{Page: page, PerPage: defaultPerPage},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", org, err)
		}
		for _, u := range users {
			members = append(members, u.GetLogin())
		}
		if len(users) < defaultPerPage {
			break
		}
	}
	return members, nil
}

// ListSigningKeys returns every GPG key published by user
func (g *GitHub) ListSigningKeys(ctx context.Context, user string) ([]models.SigningKey, error) {
	var keys []models.SigningKey
	for page := 1; ; page++ {
		gpgKeys, _, err := g.client.Users.ListGPGKeys(ctx, user, &github.ListOptions{Page: page, PerPage: defaultPerPage})
		if err != nil {
			return nil, fmt.Errorf("failed to list GPG keys of %s: %w", user, err)
		}
		for _, k := range gpgKeys {
			key := models.SigningKey{
				KeyID:   k.GetKeyID(),
				RawKey:  k.GetRawKey(),
				CanSign: k.GetCanSign(),
			}
			if k.ExpiresAt != nil {
				t := k.ExpiresAt.Time
				key.ExpiresAt = &t
			}
			keys = append(keys, key)
		}
		if len(gpgKeys) < defaultPerPage {
			break
		}
	}
	return keys, nil
}

func toComment(c *github.IssueComment) models.Comment {
	return models.Comment{
		ID:   c.GetID(),
		Body: c.GetBody(),
		URL:  c.GetHTMLURL(),
	}
}
