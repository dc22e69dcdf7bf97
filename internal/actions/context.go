package actions

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"
)

// Context describes the workflow run the step belongs to
type Context struct {
	Workflow   string
	Job        string
	Repository string
	Owner      string
	Repo       string
	ServerURL  string
	APIURL     string
	SHA        string
	HeadRef    string
	BaseRef    string
	RefName    string
	RunID      int64

	// DefaultBranch comes from the event payload and may be empty
	DefaultBranch string
	// PullRequest is nil when the run was not triggered by a pull request
	PullRequest *PullRequest
}

// PullRequest is the part of the triggering pull request the action needs
type PullRequest struct {
	Number  int
	HeadSHA string
	HeadRef string
	BaseRef string
}

// RunURL returns the link to the current workflow run
func (c *Context) RunURL() string {
	return fmt.Sprintf("%s/%s/actions/runs/%d", c.ServerURL, c.Repository, c.RunID)
}

// BlobLinkTemplate returns the deep-link template the CLI fills with file and line
func (c *Context) BlobLinkTemplate() string {
	return fmt.Sprintf("%s/%s/%s/blob/%s/$FILENAME#L$LINENUMBER", c.ServerURL, c.Owner, c.Repo, c.SHA)
}

// CurrentBranch is the PR head branch, or the pushed ref name
func (c *Context) CurrentBranch() string {
	if c.HeadRef != "" {
		return c.HeadRef
	}
	return c.RefName
}

// Context reads the run context and, if present, the pull request event payload.
func (r *Runtime) Context() (*Context, error) {
	gh, err := r.action.Context()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow context: %w", err)
	}

	ctx := &Context{
		Workflow:   gh.Workflow,
		Job:        gh.Job,
		Repository: gh.Repository,
		ServerURL:  gh.ServerURL,
		APIURL:     gh.APIURL,
		SHA:        gh.SHA,
		HeadRef:    gh.HeadRef,
		BaseRef:    gh.BaseRef,
		RefName:    gh.RefName,
		RunID:      gh.RunID,
	}
	ctx.Owner, ctx.Repo = SplitRepository(gh.Repository)

	if gh.EventPath != "" {
		event, err := readEvent(gh.EventPath)
		if err != nil {
			return nil, err
		}
		ctx.DefaultBranch = event.GetRepo().GetDefaultBranch()
		if pr := event.GetPullRequest(); pr != nil {
			ctx.PullRequest = &PullRequest{
				Number:  pr.GetNumber(),
				HeadSHA: pr.GetHead().GetSHA(),
				HeadRef: pr.GetHead().GetRef(),
				BaseRef: pr.GetBase().GetRef(),
			}
		}
	}

	return ctx, nil
}

func readEvent(path string) (*github.PullRequestEvent, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &github.PullRequestEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	var event github.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	return &event, nil
}

// SplitRepository splits "owner/name" at the first slash
func SplitRepository(full string) (string, string) {
	owner, repo, _ := strings.Cut(full, "/")
	return owner, repo
}
