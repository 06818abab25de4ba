package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// replayGainReference is the ReplayGain reference level in LUFS-equivalent
// dB that track gain is computed against.
const replayGainReference = -18.0

// appleSoundCheckReference is the 1000-unit reference Sound Check scales
// around.
const appleSoundCheckReference = 1000.0

// PlatformLoudnessPrediction is one platform's predicted effective playback
// loudness and the adjustment it will apply to reach it.
type PlatformLoudnessPrediction struct {
	Platform          string
	Target            float64
	Normalization     NormalizationType
	EffectiveLoudness float64
	AppliedAdjustment float64
}

// ReplayGainMetrics is what ReplayGainAnalyzer.Classify consumes.
type ReplayGainMetrics struct {
	IntegratedLUFS *float64
	TruePeakDBTP   *float64
	Platforms      []string // platform names to predict against; empty means all of PlatformTargets
}

// ReplayGainAnalyzer predicts ReplayGain track gain, an Apple Sound Check
// value, and per-platform effective playback loudness from already-measured
// integrated loudness and true peak.
type ReplayGainAnalyzer struct {
	invoker *invoker.Invoker
}

func NewReplayGainAnalyzer(inv *invoker.Invoker) *ReplayGainAnalyzer {
	return &ReplayGainAnalyzer{invoker: inv}
}

func (a *ReplayGainAnalyzer) Name() string { return "replaygain_prediction" }

func (a *ReplayGainAnalyzer) Classify(m ReplayGainMetrics) model.AnalyzerReport {
	if m.IntegratedLUFS == nil {
		return neutralReport("UNKNOWN", "integrated loudness unavailable")
	}

	trackGain := replayGainReference - *m.IntegratedLUFS
	if m.TruePeakDBTP != nil {
		projectedPeak := *m.TruePeakDBTP + trackGain
		if projectedPeak > 0 {
			trackGain -= projectedPeak
		}
	}

	soundCheck := appleSoundCheckReference * linearFromDB(-trackGain)

	platforms := platformsOrDefault(m.Platforms)
	predictions := make([]PlatformLoudnessPrediction, 0, len(platforms))
	for _, name := range platforms {
		predictions = append(predictions, predictForPlatform(name, *m.IntegratedLUFS))
	}

	sweetSpot, totalAdjustment := loudnessSweetSpot(predictions)

	measurements := map[string]any{
		"track_gain_db":        trackGain,
		"apple_sound_check":    soundCheck,
		"platform_predictions": predictions,
		"sweet_spot_lufs":      sweetSpot,
		"sweet_spot_total_adjustment_db": totalAdjustment,
	}

	return model.AnalyzerReport{
		Status:          "COMPUTED",
		Score:           ptr(trackGain),
		Measurements:    measurements,
		Description:     fmt.Sprintf("ReplayGain track gain %.2f dB, sweet spot %.1f LUFS across %d platforms", trackGain, sweetSpot, len(platforms)),
		Recommendations: recommendationsForReplayGain(trackGain, sweetSpot, *m.IntegratedLUFS),
		Confidence:      1,
	}
}

func recommendationsForReplayGain(trackGain, sweetSpot, integratedLUFS float64) []string {
	recs := []string{fmt.Sprintf("tag ReplayGain track gain of %.2f dB so playback normalizes consistently across players", trackGain)}
	if delta := absFloat(integratedLUFS - sweetSpot); delta > 1.0 {
		recs = append(recs, fmt.Sprintf("mastering at %.1f LUFS would minimize total per-platform loudness adjustment", sweetSpot))
	}
	return recs
}

func platformsOrDefault(names []string) []string {
	if len(names) > 0 {
		return names
	}
	out := make([]string, len(PlatformTargets))
	for i, t := range PlatformTargets {
		out[i] = t.Name
	}
	return out
}

func predictForPlatform(name string, integratedLUFS float64) PlatformLoudnessPrediction {
	target := targetFor(name)
	normalization := normalizationFor(name)

	var effective, adjustment float64
	switch normalization {
	case NormalizationDownOnly:
		if integratedLUFS > target {
			adjustment = target - integratedLUFS
			effective = target
		} else {
			adjustment = 0
			effective = integratedLUFS
		}
	default: // UP_AND_DOWN
		adjustment = target - integratedLUFS
		effective = target
	}

	return PlatformLoudnessPrediction{
		Platform:          name,
		Target:            target,
		Normalization:      normalization,
		EffectiveLoudness: effective,
		AppliedAdjustment: adjustment,
	}
}

func normalizationFor(platform string) NormalizationType {
	for _, t := range PlatformTargets {
		if t.Name == platform {
			return t.Normalization
		}
	}
	return NormalizationUpAndDown
}

// loudnessSweetSpot finds the source integrated loudness, sampled in 0.1 LU
// steps across the span of the given predictions' targets, that minimizes
// the sum of absolute adjustments each platform would have to apply.
func loudnessSweetSpot(predictions []PlatformLoudnessPrediction) (sweetSpot, totalAdjustment float64) {
	if len(predictions) == 0 {
		return 0, 0
	}

	low, high := predictions[0].Target, predictions[0].Target
	for _, p := range predictions {
		if p.Target < low {
			low = p.Target
		}
		if p.Target > high {
			high = p.Target
		}
	}

	bestCost := -1.0
	for candidate := low; candidate <= high+1e-9; candidate += 0.1 {
		cost := 0.0
		for _, p := range predictions {
			pred := predictForPlatform(p.Platform, candidate)
			cost += absFloat(pred.AppliedAdjustment)
		}
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			sweetSpot = candidate
		}
	}
	return sweetSpot, bestCost
}

func (a *ReplayGainAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "loudnorm=print_format=json",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport("UNKNOWN", "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	report := a.Classify(ReplayGainMetrics{
		IntegratedLUFS: metrics["input_i"],
		TruePeakDBTP:   metrics["input_tp"],
	})
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *ReplayGainAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
