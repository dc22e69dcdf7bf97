package models

// Report file names produced by the analysis phase
const (
	SCAReport    = "sca.sarif"
	SASTReport   = "sast.sarif"
	SCAJSON      = "sca.lw-json"
	PatchSummary = "patchSummary.md"
)

// ScanReport is a report file written by a CLI invocation
type ScanReport struct {
	Tool string
	Path string
}

// ComparisonResult is the markdown summary produced by "<tool> compare"
type ComparisonResult struct {
	Tool     string
	Markdown string
}

// HasIssues returns true if the comparison introduced anything worth reporting
func (r ComparisonResult) HasIssues() bool {
	return len(r.Markdown) > 0
}

// ReportFile returns the SARIF report name for a tool
func ReportFile(tool string) string {
	switch tool {
	case ToolSAST:
		return SASTReport
	default:
		return SCAReport
	}
}
