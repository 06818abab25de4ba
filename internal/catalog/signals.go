package catalog

import "github.com/tphakala/audioqa/internal/model"

// measurement pulls a single named Measurements entry out of an analyzer's
// report and coerces it to float64. It returns ok=false for a missing
// analyzer, an ERROR report, a missing key, or a value of the wrong type,
// any of which means the signal must stay unmeasured rather than default
// to zero.
func measurement(reports map[string]model.AnalyzerReport, analyzer, key string) (float64, bool) {
	report, ok := reports[analyzer]
	if !ok || report.Status == "ERROR" {
		return 0, false
	}
	v, ok := report.Measurements[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func ptrMeasurement(reports map[string]model.AnalyzerReport, analyzer, key string) *float64 {
	if v, ok := measurement(reports, analyzer, key); ok {
		return &v
	}
	return nil
}

// BuildSignals derives the subset of model.Signals the eight-analyzer suite
// can actually support from its reports, leaving every field the suite has
// no proxy measurement for (transient density, vinyl noise, reverb decay,
// high-frequency rolloff, distortion, mix balance) nil.
//
// club_stress's sub-bass energy ratio stands in for SubBassEnergy directly;
// gain_reduction's mean compression score (0-100, higher means more
// compressed) is inverted into a 0-1 DynamicRange proxy; channel_topology's
// stereo_width is only present on STEREO-classified reports, so mono or
// multichannel assets leave StereoWidth nil rather than reporting a false
// zero.
func BuildSignals(reports map[string]model.AnalyzerReport) model.Signals {
	var signals model.Signals

	signals.SubBassEnergy = ptrMeasurement(reports, "club_system_stress", "sub_bass_ratio")

	if compression, ok := measurement(reports, "gain_reduction_distribution", "mean_compression"); ok {
		dynamicRange := 1 - compression/100
		signals.DynamicRange = &dynamicRange
	}

	signals.StereoWidth = ptrMeasurement(reports, "channel_topology", "stereo_width")

	return signals
}
