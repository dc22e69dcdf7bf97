package reporter

import "github.com/owenrumney/go-sarif/v2/sarif"

// Reporter is the interface for job-log renderings of a SARIF report
type Reporter interface {
	// Report generates output for the results the given tool produced
	Report(tool string, report *sarif.Report) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	default:
		return &TerminalReporter{}
	}
}
