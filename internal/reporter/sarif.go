package reporter

import (
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// LoadSARIF reads a SARIF report written by the CLI
func LoadSARIF(path string) (*sarif.Report, error) {
	report, err := sarif.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SARIF report %s: %w", path, err)
	}
	return report, nil
}

// ResultCount returns the number of results across all runs
func ResultCount(report *sarif.Report) int {
	total := 0
	for _, run := range report.Runs {
		total += len(run.Results)
	}
	return total
}

// resultLocation returns the file and start line of a result's first location
func resultLocation(res *sarif.Result) (string, int) {
	if res == nil || len(res.Locations) == 0 {
		return "", 0
	}
	loc := res.Locations[0].PhysicalLocation
	if loc == nil {
		return "", 0
	}
	uri := ""
	if loc.ArtifactLocation != nil && loc.ArtifactLocation.URI != nil {
		uri = strings.TrimPrefix(*loc.ArtifactLocation.URI, "file://")
	}
	line := 0
	if loc.Region != nil && loc.Region.StartLine != nil {
		line = *loc.Region.StartLine
	}
	return uri, line
}

func resultMessage(res *sarif.Result) string {
	if res.Message.Text != nil {
		return *res.Message.Text
	}
	if res.Message.Markdown != nil {
		return *res.Message.Markdown
	}
	return "No information available on alert"
}

func driverName(run *sarif.Run, fallback string) string {
	if run.Tool.Driver != nil && run.Tool.Driver.Name != "" {
		return run.Tool.Driver.Name
	}
	return fallback
}
