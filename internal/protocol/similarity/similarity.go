package similarity

import (
	"regexp"
	"strconv"
)

// Label is the field name the device prints in front of its score.
const Label = "similarity"

var pattern = regexp.MustCompile(`(?i)` + Label + `\s*=\s*(\d+(?:\.\d+)?)`)

// Extract returns the first `similarity = <number>` value in line.
// A line without the field is a normal outcome, reported as ok == false.
func Extract(line string) (float64, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
