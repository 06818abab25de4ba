package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// ClippingSource classifies where clipping most likely originated.
type ClippingSource string

const (
	ClippingNone        ClippingSource = "NONE"
	ClippingSoft        ClippingSource = "SOFT_CLIP"
	ClippingUpstream    ClippingSource = "UPSTREAM"
	ClippingDownstream  ClippingSource = "DOWNSTREAM"
	ClippingMixed       ClippingSource = "MIXED"
	ClippingUndetermined ClippingSource = "UNDETERMINED"
)

// ClippingSeverity buckets clip density as a percentage of clipped samples.
type ClippingSeverity string

const (
	ClippingSeverityNone     ClippingSeverity = "NONE"
	ClippingSeverityLow      ClippingSeverity = "LOW"
	ClippingSeverityModerate ClippingSeverity = "MODERATE"
	ClippingSeverityHigh     ClippingSeverity = "HIGH"
	ClippingSeverityExtreme  ClippingSeverity = "EXTREME"
)

var severityLadder = NewLadder(ClippingSeverityExtreme,
	Rung[ClippingSeverity]{Threshold: 0.01, Status: ClippingSeverityNone},
	Rung[ClippingSeverity]{Threshold: 0.1, Status: ClippingSeverityLow},
	Rung[ClippingSeverity]{Threshold: 1.0, Status: ClippingSeverityModerate},
	Rung[ClippingSeverity]{Threshold: 5.0, Status: ClippingSeverityHigh},
)

// ClippingMetrics is what ClippingAnalyzer.Classify consumes. Timeline holds
// a windowed peak-level series in sequential order; the classifier splits
// it into thirds (temporalSource) to assess temporal distribution.
type ClippingMetrics struct {
	SamplePeakDBFS *float64
	ChannelPeaks   []float64
	FlatFactor     *float64
	CrestFactorDB  *float64
	ClipDensityPct float64 // percent of samples at or near digital ceiling
	Timeline       []float64
}

// ClippingAnalyzer parses sample peak, per-channel peaks, flat factor,
// crest factor and a windowed timeline, classifying clipping source and
// severity.
type ClippingAnalyzer struct {
	invoker *invoker.Invoker
}

func NewClippingAnalyzer(inv *invoker.Invoker) *ClippingAnalyzer {
	return &ClippingAnalyzer{invoker: inv}
}

func (a *ClippingAnalyzer) Name() string { return "clipping_propagation" }

func (a *ClippingAnalyzer) Classify(m ClippingMetrics) model.AnalyzerReport {
	if m.SamplePeakDBFS == nil || m.FlatFactor == nil {
		return neutralReport(string(ClippingNone), "sample peak or flat factor unavailable")
	}

	const ceiling = -0.1 // dBFS, effectively "pegged to 0 dBFS"
	peggedToCeiling := *m.SamplePeakDBFS >= ceiling
	hardClipping := peggedToCeiling || *m.FlatFactor > 0.3

	var source ClippingSource
	switch {
	case *m.SamplePeakDBFS < -6.0 && *m.FlatFactor < 0.01:
		source = ClippingNone
	case !hardClipping && *m.FlatFactor >= 0.01:
		source = ClippingSoft
	case hardClipping:
		source = temporalSource(m.Timeline)
	default:
		source = ClippingNone
	}

	severity := severityLadder.Classify(m.ClipDensityPct)

	measurements := map[string]any{
		"sample_peak_dbfs": *m.SamplePeakDBFS,
		"flat_factor":      *m.FlatFactor,
		"clip_density_pct": m.ClipDensityPct,
	}
	if m.CrestFactorDB != nil {
		measurements["crest_factor_db"] = *m.CrestFactorDB
	}
	if len(m.ChannelPeaks) > 0 {
		measurements["channel_peaks_dbfs"] = m.ChannelPeaks
	}

	return model.AnalyzerReport{
		Status:          fmt.Sprintf("%s/%s", source, severity),
		Measurements:    measurements,
		Description:     fmt.Sprintf("clipping source %s, severity %s (density %.2f%%)", source, severity, m.ClipDensityPct),
		Recommendations: recommendationsForClipping(source, severity),
		Confidence:      1,
	}
}

func recommendationsForClipping(source ClippingSource, severity ClippingSeverity) []string {
	if severity == ClippingSeverityNone {
		return []string{"no clipping detected"}
	}
	var recs []string
	switch source {
	case ClippingUpstream:
		recs = append(recs, "clipping is baked into the source, re-source from an unclipped master if available")
	case ClippingDownstream:
		recs = append(recs, "clipping is introduced downstream, check mastering and delivery gain staging")
	case ClippingMixed, ClippingUndetermined:
		recs = append(recs, "clipping origin is inconclusive, inspect the waveform around the flagged regions")
	default:
		recs = append(recs, "soft clipping detected, verify limiter or saturation settings")
	}
	if severity == ClippingSeverityHigh || severity == ClippingSeverityExtreme {
		recs = append(recs, "clip density is high enough to warrant rejecting or re-mastering this file")
	}
	return recs
}

// temporalSource buckets a windowed peak-level timeline into thirds and
// decides where clipping energy concentrates: even across thirds is
// UPSTREAM (baked into the source), concentrated in the last third is
// DOWNSTREAM (introduced by a later mastering/delivery stage), scattered
// is MIXED, concentrated in the first third is UNDETERMINED.
func temporalSource(timeline []float64) ClippingSource {
	if len(timeline) < 3 {
		return ClippingUndetermined
	}

	n := len(timeline)
	third := n / 3
	first := sumFloat64(timeline[:third])
	middle := sumFloat64(timeline[third : 2*third])
	last := sumFloat64(timeline[2*third:])
	total := first + middle + last
	if total == 0 {
		return ClippingUndetermined
	}

	firstShare, middleShare, lastShare := first/total, middle/total, last/total
	const evenTolerance = 0.12 // +/- around an even 1/3 split

	switch {
	case lastShare > firstShare+evenTolerance && lastShare > middleShare+evenTolerance:
		return ClippingDownstream
	case firstShare > middleShare+evenTolerance && firstShare > lastShare+evenTolerance:
		return ClippingUndetermined
	case absFloat(firstShare-1.0/3) < evenTolerance && absFloat(middleShare-1.0/3) < evenTolerance && absFloat(lastShare-1.0/3) < evenTolerance:
		return ClippingUpstream
	default:
		return ClippingMixed
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (a *ClippingAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "astats=metadata=1:reset=1",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(ClippingNone), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	m := ClippingMetrics{
		SamplePeakDBFS: metrics["sample_peak"],
		FlatFactor:     metrics["flat_factor"],
		CrestFactorDB:  metrics["crest_factor"],
	}
	if metrics["channel_l_peak"] != nil {
		m.ChannelPeaks = append(m.ChannelPeaks, *metrics["channel_l_peak"])
	}
	if metrics["channel_r_peak"] != nil {
		m.ChannelPeaks = append(m.ChannelPeaks, *metrics["channel_r_peak"])
	}

	report := a.Classify(m)
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *ClippingAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
