package reporter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lacework/code-security-action/internal/models"
)

const (
	// IssuesHeader opens every comment that reports new issues
	IssuesHeader = "Lacework Code Security found potential new issues in this PR."
	// ResolvedMessage replaces the tracking comment once no new issues remain
	ResolvedMessage = "Lacework Code Security did not find any new issues in this PR. Previously reported issues have been resolved."
)

// BuildMessage assembles the tracking comment body from the comparison results.
// Results without markdown are left out; footer and uiLink are optional.
func BuildMessage(results []models.ComparisonResult, footer, uiLink string) string {
	var sb strings.Builder
	sb.WriteString(IssuesHeader)
	for _, res := range results {
		if res.HasIssues() {
			sb.WriteString(res.Markdown)
		}
	}
	if uiLink != "" {
		sb.WriteString(fmt.Sprintf("\n\n[View the full results in Lacework](%s)", uiLink))
	}
	if footer != "" {
		sb.WriteString("\n\n" + footer)
	}
	return sb.String()
}

// UILink returns the Lacework console URL for the repository. The link is only
// meaningful when the PR targets the default branch, otherwise "" is returned.
func UILink(account, subAccount, owner, repo, defaultBranch, baseRef string) string {
	if defaultBranch == "" || baseRef != defaultBranch {
		return ""
	}
	account = strings.TrimSuffix(account, ".lacework.net")

	link := fmt.Sprintf(
		"https://%s.lacework.net/ui/investigation/codesec/applications/repositories/%s/%s",
		account,
		url.PathEscape("github.com/"+owner+"/"+repo),
		defaultBranch,
	)
	if subAccount != "" {
		link += "?accountName=" + subAccount
	}
	return link
}

// ReviewCommentBody renders the entries reported at one file line as a single
// review comment
func ReviewCommentBody(entries []models.VulnerabilityEntry) string {
	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		if entry.URL != "" {
			sb.WriteString(fmt.Sprintf("**[%s](%s)**", entry.Name, entry.URL))
		} else {
			sb.WriteString(fmt.Sprintf("**%s**", entry.Name))
		}
		sb.WriteString(fmt.Sprintf(" (%s)", entry.Kind))

		switch {
		case entry.SmartFixVersion != "":
			sb.WriteString(fmt.Sprintf("\n\nSmartFix: upgrade to version `%s`", entry.SmartFixVersion))
		case entry.SmartFixText != "":
			sb.WriteString("\n\nSmartFix: " + entry.SmartFixText)
		}

		if entry.Details != "" {
			sb.WriteString("\n\n<details>\n<summary>More details</summary>\n\n")
			sb.WriteString(entry.Details)
			sb.WriteString("\n</details>")
		}
	}
	return sb.String()
}
