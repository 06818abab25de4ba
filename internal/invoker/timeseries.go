package invoker

import (
	"regexp"
	"strconv"
	"strings"
)

// TimeSeriesPoint is one momentary/short-term loudness reading from the
// tool's periodic "t: ... M: ... S: ... I: ..." diagnostic lines; the
// integrated ("I:") value on those lines is not captured.
type TimeSeriesPoint struct {
	T float64 // seconds
	M float64 // momentary loudness, LUFS
	S float64 // short-term loudness, LUFS
}

var timeSeriesLine = regexp.MustCompile(
	`(?i)t:\s*([-+]?[0-9.]+)\s+M:\s*([-+]?[0-9.]+)\s+S:\s*([-+]?[0-9.]+)`)

// ParseTimeSeries extracts the ordered momentary/short-term loudness samples
// from stderr. The tool is expected to emit readings with monotonically
// non-decreasing t; out-of-order lines are dropped rather than reordered,
// since a regression in t indicates a restarted measurement pass.
func ParseTimeSeries(stderr string) []TimeSeriesPoint {
	var points []TimeSeriesPoint
	lastT := -1.0

	for _, line := range splitLines(stderr) {
		m := timeSeriesLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t, okT := parseFloat(m[1])
		mom, okM := parseFloat(m[2])
		st, okS := parseFloat(m[3])
		if !okT || !okM || !okS {
			continue
		}
		if t < lastT {
			continue
		}
		lastT = t
		points = append(points, TimeSeriesPoint{T: t, M: mom, S: st})
	}
	return points
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
