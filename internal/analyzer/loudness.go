package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// LoudnessStatus is the five-bucket classification of integrated loudness
// against a platform target, tolerant to +/-1 LU.
type LoudnessStatus string

const (
	LoudnessMuchTooQuiet LoudnessStatus = "MUCH_TOO_QUIET"
	LoudnessTooQuiet     LoudnessStatus = "TOO_QUIET"
	LoudnessOnTarget     LoudnessStatus = "ON_TARGET"
	LoudnessTooLoud      LoudnessStatus = "TOO_LOUD"
	LoudnessMuchTooLoud  LoudnessStatus = "MUCH_TOO_LOUD"
)

// LoudnessMetrics is what LoudnessAnalyzer.Classify consumes: already
// extracted, possibly-absent measurements.
type LoudnessMetrics struct {
	IntegratedLUFS *float64
	MomentarySeries []float64 // <=100 samples
	ShortTermSeries []float64 // <=100 samples
	LoudnessRangeLU *float64
	SamplePeakDBFS  *float64
	TruePeakDBTP    *float64
	Platform        string // key into PlatformTargets; defaults to spotify
}

// LoudnessAnalyzer runs a BS.1770/EBU-R128-style loudness measurement.
type LoudnessAnalyzer struct {
	invoker *invoker.Invoker
}

// NewLoudnessAnalyzer builds a LoudnessAnalyzer bound to inv.
func NewLoudnessAnalyzer(inv *invoker.Invoker) *LoudnessAnalyzer {
	return &LoudnessAnalyzer{invoker: inv}
}

func (a *LoudnessAnalyzer) Name() string { return "loudness" }

// Classify buckets integrated loudness against the target platform's table
// entry and recommends a gain change and whether a post-gain limiter is
// required.
func (a *LoudnessAnalyzer) Classify(m LoudnessMetrics) model.AnalyzerReport {
	if m.IntegratedLUFS == nil {
		return neutralReport(string(LoudnessOnTarget), "integrated loudness unavailable")
	}

	target := targetFor(m.Platform)
	status := ladderForLoudness(target).Classify(*m.IntegratedLUFS)

	gainChange := target - *m.IntegratedLUFS
	limiterRequired := false
	if m.TruePeakDBTP != nil {
		projectedPeak := *m.TruePeakDBTP + gainChange
		limiterRequired = projectedPeak > -1.0
	}

	measurements := map[string]any{
		"integrated_lufs": *m.IntegratedLUFS,
		"platform_target": target,
		"gain_change_db":  gainChange,
		"limiter_required": limiterRequired,
	}
	if m.LoudnessRangeLU != nil {
		measurements["loudness_range_lu"] = *m.LoudnessRangeLU
	}
	if m.SamplePeakDBFS != nil {
		measurements["sample_peak_dbfs"] = *m.SamplePeakDBFS
	}
	if m.TruePeakDBTP != nil {
		measurements["true_peak_dbtp"] = *m.TruePeakDBTP
	}
	if len(m.MomentarySeries) > 0 {
		measurements["momentary_min"], measurements["momentary_max"], measurements["momentary_mean"] = minMaxMean(m.MomentarySeries)
	}
	if len(m.ShortTermSeries) > 0 {
		measurements["short_term_min"], measurements["short_term_max"], measurements["short_term_mean"] = minMaxMean(m.ShortTermSeries)
	}

	return model.AnalyzerReport{
		Status:       string(status),
		Measurements: measurements,
		Description:  fmt.Sprintf("integrated loudness %.1f LUFS vs %s target %.1f LUFS", *m.IntegratedLUFS, platformName(m.Platform), target),
		Recommendations: recommendationsForLoudness(status, gainChange, limiterRequired),
		Confidence:   1,
	}
}

func (a *LoudnessAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path,
		"-af", "loudnorm=print_format=json",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(LoudnessOnTarget), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	series := invoker.ParseTimeSeries(result.Stderr)

	m := LoudnessMetrics{
		IntegratedLUFS:  metrics["input_i"],
		LoudnessRangeLU: metrics["input_lra"],
		SamplePeakDBFS:  metrics["sample_peak"],
		TruePeakDBTP:    metrics["input_tp"],
	}
	// Keep at most seriesCapacity evenly spaced points of each series.
	stride := (len(series) + seriesCapacity - 1) / seriesCapacity
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < len(series); i += stride {
		m.MomentarySeries = append(m.MomentarySeries, series[i].M)
		m.ShortTermSeries = append(m.ShortTermSeries, series[i].S)
	}

	report := a.Classify(m)
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *LoudnessAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}

func targetFor(platform string) float64 {
	for _, t := range PlatformTargets {
		if t.Name == platform {
			return t.Target
		}
	}
	return PlatformTargets[0].Target
}

func platformName(platform string) string {
	if platform == "" {
		return PlatformTargets[0].Name
	}
	return platform
}

// severeLoudnessOffset is the distance from target, in LU, beyond the
// +/-LoudnessTolerance on-target band at which a master is bucketed
// MUCH_TOO_QUIET/MUCH_TOO_LOUD instead of TOO_QUIET/TOO_LOUD. A hot master
// at target+6 LU (e.g. -8 LUFS against a -14 Spotify target) is still
// merely TOO_LOUD, not MUCH_TOO_LOUD.
const severeLoudnessOffset = 8.0

func ladderForLoudness(target float64) Ladder[LoudnessStatus] {
	return NewLadder(LoudnessMuchTooLoud,
		Rung[LoudnessStatus]{Threshold: target - severeLoudnessOffset, Status: LoudnessMuchTooQuiet},
		Rung[LoudnessStatus]{Threshold: target - LoudnessTolerance, Status: LoudnessTooQuiet},
		Rung[LoudnessStatus]{Threshold: target + LoudnessTolerance, Status: LoudnessOnTarget},
		Rung[LoudnessStatus]{Threshold: target + severeLoudnessOffset, Status: LoudnessTooLoud},
	)
}

func recommendationsForLoudness(status LoudnessStatus, gainChange float64, limiterRequired bool) []string {
	var recs []string
	switch status {
	case LoudnessOnTarget:
		recs = append(recs, "loudness is within tolerance of the platform target")
	case LoudnessTooLoud, LoudnessMuchTooLoud:
		recs = append(recs, fmt.Sprintf("significantly above target: apply %.1f dB gain to reach the platform target", gainChange))
	default:
		recs = append(recs, fmt.Sprintf("significantly below target: apply %.1f dB gain to reach the platform target", gainChange))
	}
	if limiterRequired {
		recs = append(recs, "apply a true-peak limiter after gain change to avoid intersample overs")
	}
	return recs
}

func minMaxMean(series []float64) (min, max, mean float64) {
	if len(series) == 0 {
		return 0, 0, 0
	}
	min, max = series[0], series[0]
	for _, v := range series {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, meanFloat64(series)
}
