package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderPattern matches "@@ -a,b +c,d @@" and captures c
var hunkHeaderPattern = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// CalculatePosition maps an absolute line of the new file to its position in
// patch, counting the first line of the patch as position 1. It returns false
// when the line is not a context or added line of any hunk.
func CalculatePosition(patch string, line int) (int, bool) {
	if patch == "" || line <= 0 {
		return 0, false
	}

	fileLine := 0
	for i, text := range strings.Split(patch, "\n") {
		position := i + 1

		if m := hunkHeaderPattern.FindStringSubmatch(text); m != nil {
			start, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, false
			}
			fileLine = start - 1
			continue
		}

		// removed lines and "\ No newline at end of file" do not exist in the new file
		if strings.HasPrefix(text, "-") || strings.HasPrefix(text, `\`) {
			continue
		}

		fileLine++
		if fileLine == line {
			return position, true
		}
	}

	return 0, false
}
