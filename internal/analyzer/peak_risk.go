package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// PeakRiskStatus classifies intersample peak overshoot risk.
type PeakRiskStatus string

const (
	PeakRiskSafe     PeakRiskStatus = "SAFE"
	PeakRiskMarginal PeakRiskStatus = "MARGINAL"
	PeakRiskExceeds  PeakRiskStatus = "EXCEEDS"
	PeakRiskCritical PeakRiskStatus = "CRITICAL"
)

// CodecOvershoot is a per-codec add-on applied when projecting post-codec
// intersample peak overshoot.
type CodecOvershoot struct {
	Codec   string
	AddonDB float64
}

// CodecOvershootTable lists the per-codec overshoot add-ons used to project
// post-codec intersample peaks from a measured true peak.
var CodecOvershootTable = []CodecOvershoot{
	{Codec: "mp3_128", AddonDB: 0.8},
	{Codec: "mp3_320", AddonDB: 0.4},
	{Codec: "aac_256", AddonDB: 0.2},
	{Codec: "aac_128", AddonDB: 0.5},
	{Codec: "opus_160", AddonDB: 0.1},
}

// PeakRiskMetrics is what PeakRiskAnalyzer.Classify consumes.
type PeakRiskMetrics struct {
	SamplePeakDBFS *float64
	TruePeakDBTP   *float64
	ProjectCodec   string // key into CodecOvershootTable, optional
}

// PeakRiskAnalyzer measures sample peak and true peak independently and
// classifies intersample peak (clipping after DAC reconstruction) risk.
type PeakRiskAnalyzer struct {
	invoker *invoker.Invoker
}

func NewPeakRiskAnalyzer(inv *invoker.Invoker) *PeakRiskAnalyzer {
	return &PeakRiskAnalyzer{invoker: inv}
}

func (a *PeakRiskAnalyzer) Name() string { return "intersample_peak_risk" }

func (a *PeakRiskAnalyzer) Classify(m PeakRiskMetrics) model.AnalyzerReport {
	if m.SamplePeakDBFS == nil || m.TruePeakDBTP == nil {
		return neutralReport(string(PeakRiskSafe), "sample peak or true peak unavailable")
	}

	overshoot := *m.TruePeakDBTP - *m.SamplePeakDBFS
	if overshoot < 0 {
		overshoot = 0
	}
	truePeak := *m.TruePeakDBTP

	status := classifyPeakRisk(overshoot, truePeak)

	measurements := map[string]any{
		"sample_peak_dbfs": *m.SamplePeakDBFS,
		"true_peak_dbtp":   truePeak,
		"overshoot_db":     overshoot,
	}

	if m.ProjectCodec != "" {
		for _, c := range CodecOvershootTable {
			if c.Codec == m.ProjectCodec {
				measurements["projected_post_codec_peak_dbtp"] = truePeak + c.AddonDB
				break
			}
		}
	}

	return model.AnalyzerReport{
		Status:          string(status),
		Measurements:    measurements,
		Description:     fmt.Sprintf("true peak %.2f dBTP, overshoot %.2f dB over sample peak", truePeak, overshoot),
		Recommendations: recommendationsForPeakRisk(status),
		Confidence:      1,
	}
}

func recommendationsForPeakRisk(status PeakRiskStatus) []string {
	switch status {
	case PeakRiskSafe:
		return []string{"intersample peak headroom is safe, no limiting required"}
	case PeakRiskMarginal:
		return []string{"apply a true-peak limiter at -1.0 dBTP as a precaution against intersample overs"}
	default:
		return []string{"apply a true-peak limiter at -1.0 dBTP limiter to eliminate intersample overs before distribution"}
	}
}

func classifyPeakRisk(overshoot, truePeak float64) PeakRiskStatus {
	switch {
	case truePeak > 0 || (truePeak > -1.0 && overshoot > 1.5):
		return PeakRiskCritical
	case overshoot > 0.8:
		return PeakRiskExceeds
	case overshoot < 0.3 && truePeak <= -2.0:
		return PeakRiskSafe
	default:
		return PeakRiskMarginal
	}
}

func (a *PeakRiskAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "astats=metadata=1:reset=1,ebur128=peak=true",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(PeakRiskSafe), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	report := a.Classify(PeakRiskMetrics{
		SamplePeakDBFS: metrics["sample_peak"],
		TruePeakDBTP:   metrics["input_tp"],
	})
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *PeakRiskAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
