package reporter

import (
	"strings"
	"testing"

	"github.com/lacework/code-security-action/internal/models"
)

func TestBuildMessage(t *testing.T) {
	results := []models.ComparisonResult{
		{Tool: "sca", Markdown: "\n\nSCA issues"},
		{Tool: "sast", Markdown: ""},
	}

	got := BuildMessage(results, "Questions? Ask #security", "")
	want := IssuesHeader + "\n\nSCA issues\n\nQuestions? Ask #security"
	if got != want {
		t.Errorf("BuildMessage() = %q, want %q", got, want)
	}

	withLink := BuildMessage(results, "", "https://acme.lacework.net/ui")
	if !strings.Contains(withLink, "(https://acme.lacework.net/ui)") {
		t.Errorf("BuildMessage() = %q, want the console link", withLink)
	}
}

func TestUILink(t *testing.T) {
	tests := []struct {
		name    string
		account string
		sub     string
		base    string
		want    string
	}{
		{
			name:    "default branch",
			account: "acme.lacework.net",
			base:    "main",
			want:    "https://acme.lacework.net/ui/investigation/codesec/applications/repositories/github.com%2Fo%2Fr/main",
		},
		{
			name:    "sub-account",
			account: "acme",
			sub:     "prod",
			base:    "main",
			want:    "https://acme.lacework.net/ui/investigation/codesec/applications/repositories/github.com%2Fo%2Fr/main?accountName=prod",
		},
		{name: "other base branch", account: "acme", base: "release", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UILink(tt.account, tt.sub, "o", "r", "main", tt.base); got != tt.want {
				t.Errorf("UILink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReviewCommentBody(t *testing.T) {
	body := ReviewCommentBody([]models.VulnerabilityEntry{
		{Name: "CVE-2021-1", Kind: models.KindCVE, URL: "https://x/1", SmartFixVersion: "1.2.3"},
		{Name: "CWE-89", Kind: models.KindCWE, Details: "tainted input"},
	})

	for _, want := range []string{
		"**[CVE-2021-1](https://x/1)** (CVE)",
		"upgrade to version `1.2.3`",
		"**CWE-89** (CWE)",
		"<summary>More details</summary>",
		"tainted input",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
