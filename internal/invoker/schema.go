package invoker

import "regexp"

// MetricSchema describes a single "key: value" line pattern expected in a
// measurement tool's diagnostic output. Pattern must have exactly one
// capturing group holding the numeric value.
type MetricSchema struct {
	Key     string
	Pattern *regexp.Regexp
}

// DefaultSchema is the consolidated table of metric line patterns recognized
// across every analyzer that reads loudness/peak/clipping diagnostics from
// the measurement tool's stderr. Patterns are compiled once at package init
// and exercised against fixture strings in schema_test.go.
var DefaultSchema = []MetricSchema{
	{Key: "input_i", Pattern: regexp.MustCompile(`(?i)Integrated loudness:\s*([-+]?[0-9.]+)\s*LUFS`)},
	{Key: "input_lra", Pattern: regexp.MustCompile(`(?i)Loudness range:\s*([-+]?[0-9.]+)\s*LU\b`)},
	{Key: "input_tp", Pattern: regexp.MustCompile(`(?i)True peak:\s*([-+]?[0-9.]+)\s*dBTP`)},
	{Key: "sample_peak", Pattern: regexp.MustCompile(`(?i)Sample peak:\s*([-+]?[0-9.]+)\s*dBFS`)},
	{Key: "rms_level", Pattern: regexp.MustCompile(`(?i)RMS level:\s*([-+]?[0-9.]+)\s*dBFS`)},
	{Key: "flat_factor", Pattern: regexp.MustCompile(`(?i)Flat factor:\s*([-+]?[0-9.]+)`)},
	{Key: "crest_factor", Pattern: regexp.MustCompile(`(?i)Crest factor:\s*([-+]?[0-9.]+)\s*dB`)},
	{Key: "peak_count", Pattern: regexp.MustCompile(`(?i)Peak count:\s*([0-9]+)`)},
	{Key: "channel_l_peak", Pattern: regexp.MustCompile(`(?i)Channel 1 peak:\s*([-+]?[0-9.]+)\s*dBFS`)},
	{Key: "channel_r_peak", Pattern: regexp.MustCompile(`(?i)Channel 2 peak:\s*([-+]?[0-9.]+)\s*dBFS`)},
}

// ParseMetrics extracts numeric values from stderr according to schema. A
// key whose pattern never matches any line maps to a nil value, never a
// default, so callers can distinguish "absent" from "zero".
func ParseMetrics(stderr string, schema []MetricSchema) map[string]*float64 {
	out := make(map[string]*float64, len(schema))
	for _, entry := range schema {
		out[entry.Key] = nil
	}

	for _, line := range splitLines(stderr) {
		for _, entry := range schema {
			if out[entry.Key] != nil {
				continue
			}
			m := entry.Pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if v, ok := parseFloat(m[1]); ok {
				out[entry.Key] = &v
			}
		}
	}
	return out
}
