package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/lacework/code-security-action/internal/models"
)

var (
	// bulletPattern matches a top-level list item and captures its text
	bulletPattern = regexp.MustCompile(`^[*-] +(.+)$`)

	// urlPattern matches a parenthesised https link
	urlPattern = regexp.MustCompile(`\((https://[^()\s]+)\)`)

	// lineAnchorPattern matches the #L<n> (or #L<n>-L<m>) suffix of a blob link
	lineAnchorPattern = regexp.MustCompile(`#L(\d+)(?:-L\d+)?$`)

	// filePathPattern matches the leading "[path:" of a location link
	filePathPattern = regexp.MustCompile(`\[([^\]:]+):`)

	// smartFixPattern matches "SmartFix: <version> <text>"
	smartFixPattern = regexp.MustCompile(`^SmartFix:\s*(.*)$`)

	// dottedVersionPattern matches versions semver rejects but package
	// registries publish, like 2.12.7.1 or 5.3.18.RELEASE
	dottedVersionPattern = regexp.MustCompile(`^\d+(\.\d+)+([.-][0-9A-Za-z]+)*$`)
)

// ParseVulnerabilities scrapes the issue list of a comparison summary. Lines
// that do not look like an issue are ignored.
func ParseVulnerabilities(markdown string) []models.VulnerabilityEntry {
	var (
		entries   []models.VulnerabilityEntry
		current   *models.VulnerabilityEntry
		inDetails bool
		details   []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Details = strings.TrimSpace(strings.Join(details, "\n"))
		entries = append(entries, *current)
		current = nil
		details = nil
		inDetails = false
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if inDetails {
			switch {
			case strings.HasPrefix(trimmed, "</details>"):
				inDetails = false
			case strings.HasPrefix(trimmed, "<summary>"):
			default:
				details = append(details, trimmed)
			}
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			flush()
			if entry, ok := parseIssueLine(m[1]); ok {
				current = &entry
			}
			continue
		}

		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "<details>"):
			inDetails = true
		case smartFixPattern.MatchString(trimmed):
			parseSmartFix(current, smartFixPattern.FindStringSubmatch(trimmed)[1])
		}
	}
	flush()

	return entries
}

func parseIssueLine(text string) (models.VulnerabilityEntry, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return models.VulnerabilityEntry{}, false
	}

	entry := models.VulnerabilityEntry{
		Name: fields[0],
		Kind: models.KindCWE,
	}
	if strings.HasPrefix(entry.Name, "CVE") {
		entry.Kind = models.KindCVE
	}

	if urls := urlPattern.FindAllStringSubmatch(text, -1); len(urls) > 0 {
		entry.URL = urls[len(urls)-1][1]
		if m := lineAnchorPattern.FindStringSubmatch(entry.URL); m != nil {
			entry.Line, _ = strconv.Atoi(m[1])
		}
	}

	if m := filePathPattern.FindStringSubmatch(text); m != nil {
		entry.FilePath = strings.TrimSpace(m[1])
	}

	return entry, true
}

func parseSmartFix(entry *models.VulnerabilityEntry, text string) {
	entry.SmartFixText = strings.TrimSpace(text)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	version := strings.TrimPrefix(fields[0], "v")
	if semver.IsValid("v"+version) || dottedVersionPattern.MatchString(version) {
		entry.SmartFixVersion = version
	}
}

// LocationGroup is every entry reported on one line of one file
type LocationGroup struct {
	Location models.Location
	Entries  []models.VulnerabilityEntry
}

// GroupByLocation batches entries by (file, line) in first-seen order.
// Entries without a usable location are dropped.
func GroupByLocation(entries []models.VulnerabilityEntry) []LocationGroup {
	var groups []LocationGroup
	index := make(map[models.Location]int)

	for _, e := range entries {
		if !e.HasLocation() {
			continue
		}
		loc := models.Location{FilePath: e.FilePath, Line: e.Line}
		if i, ok := index[loc]; ok {
			groups[i].Entries = append(groups[i].Entries, e)
			continue
		}
		index[loc] = len(groups)
		groups = append(groups, LocationGroup{Location: loc, Entries: []models.VulnerabilityEntry{e}})
	}

	return groups
}
