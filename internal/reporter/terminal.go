package reporter

import (
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// TerminalReporter outputs results in a human-readable log format
type TerminalReporter struct{}

// Report generates log output for the given report
func (r *TerminalReporter) Report(tool string, report *sarif.Report) ([]byte, error) {
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
			rule := "unknown-rule"
			if res.RuleID != nil {
				rule = *res.RuleID
			}
			level := "warning"
			if res.Level != nil {
				level = *res.Level
			}

			sb.WriteString(fmt.Sprintf("  [%s] %s", level, rule))
			if uri, line := resultLocation(res); uri != "" {
				sb.WriteString(" " + uri)
				if line > 0 {
					sb.WriteString(fmt.Sprintf(":%d", line))
				}
			}
			sb.WriteString("\n")

			// Keep the log readable for long SAST descriptions
			msg := strings.TrimSpace(resultMessage(res))
			if first, _, found := strings.Cut(msg, "\n"); found {
				msg = first + " ..."
			}
			if len(msg) > 200 {
				msg = msg[:197] + "..."
			}
			sb.WriteString("      " + msg + "\n")
		}
	}

	return []byte(sb.String()), nil
}
