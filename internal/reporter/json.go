package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// JSONReporter dumps every result as indented JSON, as debug output
type JSONReporter struct{}

// Report generates JSON output for the given report
func (r *JSONReporter) Report(tool string, report *sarif.Report) ([]byte, error) {
	if ResultCount(report) == 0 {
		return []byte(fmt.Sprintf("No %s issues were found\n", strings.ToUpper(tool))), nil
	}

	var sb strings.Builder
	for _, run := range report.Runs {
		if len(run.Results) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("Found %d results using %s\n", len(run.Results), driverName(run, tool)))
		for _, res := range run.Results {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return nil, err
			}
			sb.Write(data)
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}
