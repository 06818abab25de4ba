package analyzer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// SpectralBalanceStatus buckets the overall RMS deviation from a reference
// curve across the ten octave bands.
type SpectralBalanceStatus string

const (
	SpectralBalanceBalanced    SpectralBalanceStatus = "BALANCED"
	SpectralBalanceSlight      SpectralBalanceStatus = "SLIGHT"
	SpectralBalanceModerate    SpectralBalanceStatus = "MODERATE"
	SpectralBalanceSignificant SpectralBalanceStatus = "SIGNIFICANT"
	SpectralBalanceExtreme     SpectralBalanceStatus = "EXTREME"
)

var spectralBalanceLadder = NewLadder(SpectralBalanceExtreme,
	Rung[SpectralBalanceStatus]{Threshold: 2, Status: SpectralBalanceBalanced},
	Rung[SpectralBalanceStatus]{Threshold: 4, Status: SpectralBalanceSlight},
	Rung[SpectralBalanceStatus]{Threshold: 6, Status: SpectralBalanceModerate},
	Rung[SpectralBalanceStatus]{Threshold: 10, Status: SpectralBalanceSignificant},
)

// ImbalanceRegion names the coarse region whose mean deviation dominates.
type ImbalanceRegion string

const (
	ImbalanceNone    ImbalanceRegion = "NONE"
	ImbalanceLow     ImbalanceRegion = "LOW"
	ImbalanceLowMid  ImbalanceRegion = "LOW_MID"
	ImbalanceMid     ImbalanceRegion = "MID"
	ImbalanceHighMid ImbalanceRegion = "HIGH_MID"
	ImbalanceHigh    ImbalanceRegion = "HIGH"
)

// OctaveBand is one ISO-266 octave band's measured RMS in dB.
type OctaveBand struct {
	CenterHz float64
	RMSDB    float64
}

// octaveBandCenters lists the ten ISO-266 centers from 31.5 Hz to 16 kHz.
var octaveBandCenters = []float64{31.5, 63, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// ReferenceCurve maps each of the ten octave bands to its reference RMS, in
// the same relative (zero-mean) units as the measured bands.
type ReferenceCurve struct {
	Name   string
	Values [10]float64
}

// FlatReferenceCurve is a perceptually flat zero-mean reference.
var FlatReferenceCurve = ReferenceCurve{Name: "flat"}

// PinkNoiseReferenceCurve approximates a pink-noise-normalized perceptual
// target: flat across the two lowest bands, then falling 1 dB per octave
// from 63 Hz up to 16 kHz, before zero-meaning.
var PinkNoiseReferenceCurve = ReferenceCurve{
	Name:   "pink",
	Values: zeroMeanCurve([10]float64{3, 3, 2, 1, 0, -1, -2, -3, -4, -5}),
}

func zeroMeanCurve(raw [10]float64) [10]float64 {
	var sum float64
	for _, v := range raw {
		sum += v
	}
	mean := sum / float64(len(raw))
	var out [10]float64
	for i, v := range raw {
		out[i] = v - mean
	}
	return out
}

// SpectralBalanceMetrics is what SpectralBalanceAnalyzer.Classify consumes.
type SpectralBalanceMetrics struct {
	Bands     []OctaveBand // exactly 10, in ascending center-frequency order
	Reference ReferenceCurve
}

// SpectralBalanceAnalyzer measures RMS across ten octave bands and compares
// against a reference curve to classify spectral balance.
type SpectralBalanceAnalyzer struct {
	invoker *invoker.Invoker
}

func NewSpectralBalanceAnalyzer(inv *invoker.Invoker) *SpectralBalanceAnalyzer {
	return &SpectralBalanceAnalyzer{invoker: inv}
}

func (a *SpectralBalanceAnalyzer) Name() string { return "spectral_balance" }

func (a *SpectralBalanceAnalyzer) Classify(m SpectralBalanceMetrics) model.AnalyzerReport {
	if len(m.Bands) != 10 {
		return neutralReport(string(SpectralBalanceBalanced), "band energy unavailable")
	}

	measured := make([]float64, 10)
	for i, b := range m.Bands {
		measured[i] = b.RMSDB
	}
	normalized := zeroMeanSlice(measured)

	reference := m.Reference
	if reference.Name == "" {
		reference = FlatReferenceCurve
	}

	deviations := make([]float64, 10)
	for i := range deviations {
		deviations[i] = normalized[i] - reference.Values[i]
	}

	rmsDeviation := rmsOf(deviations)
	tilt := linearRegressionSlope(deviations)
	status := spectralBalanceLadder.Classify(rmsDeviation)
	region, regionDeviation := dominantRegion(deviations)

	measurements := map[string]any{
		"rms_deviation_db": rmsDeviation,
		"spectral_tilt":    tilt,
		"reference_curve":  reference.Name,
		"band_deviations":  deviations,
	}
	if region != ImbalanceNone {
		measurements["imbalance_region"] = string(region)
		measurements["imbalance_region_deviation_db"] = regionDeviation
	}

	desc := fmt.Sprintf("spectral balance %s (RMS deviation %.1f dB, tilt %.2f)", status, rmsDeviation, tilt)
	if region != ImbalanceNone {
		desc = fmt.Sprintf("%s, dominant imbalance in %s (%.1f dB)", desc, region, regionDeviation)
	}

	return model.AnalyzerReport{
		Status:          string(status),
		Score:           ptr(rmsDeviation),
		Measurements:    measurements,
		Description:     desc,
		Recommendations: recommendationsForSpectralBalance(status, region, tilt),
		Confidence:      1,
	}
}

func recommendationsForSpectralBalance(status SpectralBalanceStatus, region ImbalanceRegion, tilt float64) []string {
	if status == SpectralBalanceBalanced || status == SpectralBalanceSlight {
		return []string{"spectral balance is close to the reference curve"}
	}
	rec := "tonal balance deviates noticeably from the reference curve, consider EQ correction"
	if region != ImbalanceNone {
		rec = fmt.Sprintf("tonal balance deviates noticeably, concentrated in the %s region, consider a corrective EQ pass there", region)
	}
	recs := []string{rec}
	if tilt > 0.5 {
		recs = append(recs, "spectral tilt skews bright, check for excessive high-shelf boost")
	} else if tilt < -0.5 {
		recs = append(recs, "spectral tilt skews dark, check for excessive low-end buildup or high-end loss")
	}
	return recs
}

// dominantRegion groups the ten bands into five two-band regions (LOW,
// LOW_MID, MID, HIGH_MID, HIGH), returning the region whose mean absolute
// deviation is largest, provided it exceeds 3 dB.
func dominantRegion(deviations []float64) (ImbalanceRegion, float64) {
	regions := []struct {
		name  ImbalanceRegion
		start int
		end   int
	}{
		{ImbalanceLow, 0, 2},
		{ImbalanceLowMid, 2, 4},
		{ImbalanceMid, 4, 6},
		{ImbalanceHighMid, 6, 8},
		{ImbalanceHigh, 8, 10},
	}

	var worstRegion ImbalanceRegion = ImbalanceNone
	var worstMean float64
	for _, r := range regions {
		mean := meanFloat64(absSlice(deviations[r.start:r.end]))
		if mean > worstMean {
			worstMean = mean
			worstRegion = r.name
		}
	}
	if worstMean <= 3 {
		return ImbalanceNone, worstMean
	}
	return worstRegion, worstMean
}

func absSlice(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = absFloat(v)
	}
	return out
}

func zeroMeanSlice(values []float64) []float64 {
	mean := meanFloat64(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - mean
	}
	return out
}

func rmsOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// linearRegressionSlope fits a line to values indexed 0..n-1 and returns its
// slope: the "spectral tilt" in dB per band step.
func linearRegressionSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func (a *SpectralBalanceAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()

	measured, err := measureBands(ctx, a.invoker, asset.Path, spectralOctaveBands)
	if err != nil {
		report := neutralReport(string(SpectralBalanceBalanced), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	bands := make([]OctaveBand, len(measured))
	for i, b := range measured {
		bands[i] = OctaveBand{CenterHz: octaveBandCenters[i], RMSDB: linearToDB(b.RMS)}
	}

	report := a.Classify(SpectralBalanceMetrics{Bands: bands, Reference: FlatReferenceCurve})
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *SpectralBalanceAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
