package analyzer

import (
	"context"
	"fmt"

	"github.com/tphakala/audioqa/internal/invoker"
)

// bandDefinition names one band-pass region by center/width, derived from a
// low/high edge pair.
type bandDefinition struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// clubStressBands are the five band-pass regions the Club System Stress
// analyzer measures.
var clubStressBands = []bandDefinition{
	{Name: "sub_bass", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 120},
	{Name: "low_mid", LowHz: 120, HighHz: 250},
	{Name: "mid", LowHz: 250, HighHz: 2000},
	{Name: "high", LowHz: 2000, HighHz: 20000},
}

// spectralOctaveBands are the ten ISO-266 octave bands the Spectral Balance
// analyzer measures, expressed as band-pass edges around each center.
var spectralOctaveBands = buildOctaveBandDefinitions(octaveBandCenters)

func buildOctaveBandDefinitions(centers []float64) []bandDefinition {
	out := make([]bandDefinition, len(centers))
	for i, c := range centers {
		// one-octave-wide band: edges at c/sqrt(2) and c*sqrt(2)
		out[i] = bandDefinition{
			Name:   fmt.Sprintf("%gHz", c),
			LowHz:  c / 1.4142135623730951,
			HighHz: c * 1.4142135623730951,
		}
	}
	return out
}

// measureBand runs the external tool through a single band-pass filter and
// returns that band's linear RMS, linear peak, and crest factor in dB. A
// measurement the tool doesn't report comes back as zero, matching the
// neutral, non-panicking degradation the rest of the analyzer suite uses
// when a metric is unavailable.
func measureBand(ctx context.Context, inv *invoker.Invoker, path string, band bandDefinition) (rmsLinear, peakLinear, crestDB float64, err error) {
	centerHz := (band.LowHz + band.HighHz) / 2
	widthHz := band.HighHz - band.LowHz
	filter := fmt.Sprintf("bandpass=f=%g:width_type=h:w=%g,astats=metadata=1:reset=1", centerHz, widthHz)

	result, runErr := inv.Run(ctx, []string{"-i", path, "-af", filter, "-f", "null", "-"}, 0)
	if runErr != nil {
		return 0, 0, 0, runErr
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	if metrics["rms_level"] != nil {
		rmsLinear = linearFromDB(*metrics["rms_level"])
	}
	if metrics["sample_peak"] != nil {
		peakLinear = linearFromDB(*metrics["sample_peak"])
	}
	if metrics["crest_factor"] != nil {
		crestDB = *metrics["crest_factor"]
	}
	return rmsLinear, peakLinear, crestDB, nil
}

// measureBands runs measureBand across every entry in defs, in order,
// stopping at the first error.
func measureBands(ctx context.Context, inv *invoker.Invoker, path string, defs []bandDefinition) ([]Band, error) {
	bands := make([]Band, len(defs))
	for i, def := range defs {
		rms, peak, crest, err := measureBand(ctx, inv, path, def)
		if err != nil {
			return nil, err
		}
		bands[i] = Band{Name: def.Name, LowHz: def.LowHz, HighHz: def.HighHz, RMS: rms, Peak: peak, CrestDB: crest}
	}
	return bands, nil
}
