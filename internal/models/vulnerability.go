package models

import "fmt"

// VulnerabilityKind distinguishes dependency CVEs from code weaknesses
type VulnerabilityKind string

const (
	KindCVE VulnerabilityKind = "CVE"
	KindCWE VulnerabilityKind = "CWE"
)

// VulnerabilityEntry is one issue scraped from a comparison summary
type VulnerabilityEntry struct {
	Name     string
	Kind     VulnerabilityKind
	URL      string
	Line     int
	FilePath string
	Details  string

	// SmartFixVersion is set when the summary carried a valid fix version
	SmartFixVersion string
	// SmartFixText is the full "SmartFix:" line without the prefix
	SmartFixText string
}

// HasLocation returns true if the entry can be attached to a diff line
func (v VulnerabilityEntry) HasLocation() bool {
	return v.FilePath != "" && v.Line > 0
}

// Location identifies a single line in a file
type Location struct {
	FilePath string
	Line     int
}

// String returns a human-readable representation
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.FilePath, l.Line)
}
