package invoker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/tphakala/audioqa/internal/errors"
)

// LoudnormStats is the trailing JSON object the loudnorm filter prints to
// stderr when invoked with print_format=json, after a measurement pass.
type LoudnormStats struct {
	InputI         float64
	InputTP        float64
	InputLRA       float64
	InputThresh    float64
	OutputI        float64
	OutputTP       float64
	OutputLRA      float64
	OutputThresh   float64
	NormalizationType string
	TargetOffset   float64
}

// loudnormJSONBlock matches the single trailing JSON object the loudnorm
// filter emits; it is not itself parsed here, only located.
var loudnormJSONBlock = regexp.MustCompile(`(?s)\{[^{}]*"input_i"[^{}]*\}`)

// ParseLoudnormJSON locates the loudnorm filter's trailing JSON block in
// stderr and decodes its numeric fields. The filter emits every numeric
// field as a JSON string (e.g. "input_i": "-23.10"), so each value is read
// with GetString and parsed rather than GetFloat64.
func ParseLoudnormJSON(stderr string) (*LoudnormStats, error) {
	block := loudnormJSONBlock.FindString(stderr)
	if block == "" {
		return nil, errors.Newf("no loudnorm JSON block found in stderr").
			Component("invoker").
			Category(errors.CategoryMeasurement).
			Context("operation", "parse_loudnorm_json").
			Build()
	}

	obj, err := jason.NewObjectFromBytes([]byte(block))
	if err != nil {
		return nil, errors.New(err).
			Component("invoker").
			Category(errors.CategoryMeasurement).
			Context("operation", "jason_decode").
			Build()
	}

	stats := &LoudnormStats{}
	fields := []struct {
		key string
		dst *float64
	}{
		{"input_i", &stats.InputI},
		{"input_tp", &stats.InputTP},
		{"input_lra", &stats.InputLRA},
		{"input_thresh", &stats.InputThresh},
		{"output_i", &stats.OutputI},
		{"output_tp", &stats.OutputTP},
		{"output_lra", &stats.OutputLRA},
		{"output_thresh", &stats.OutputThresh},
		{"target_offset", &stats.TargetOffset},
	}

	for _, f := range fields {
		raw, err := obj.GetString(f.key)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		*f.dst = v
	}

	if normType, err := obj.GetString("normalization_type"); err == nil {
		stats.NormalizationType = normType
	}

	return stats, nil
}
