package analyzer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// ChannelTopology classifies the stereo/mono relationship between channels.
type ChannelTopology string

const (
	TopologyMono         ChannelTopology = "MONO"
	TopologyStereo       ChannelTopology = "STEREO"
	TopologyDualMono     ChannelTopology = "DUAL_MONO"
	TopologyMidSide      ChannelTopology = "MID_SIDE"
	TopologyMultichannel ChannelTopology = "MULTICHANNEL"
)

// ChannelTopologyMetrics is what ChannelTopologyAnalyzer.Classify consumes.
type ChannelTopologyMetrics struct {
	Channels int

	LeftPeakDBFS  float64
	RightPeakDBFS float64
	LeftRMSDBFS   float64
	RightRMSDBFS  float64

	SumPeakDBFS  float64 // L+R
	SumRMSDBFS   float64
	DiffPeakDBFS float64 // L-R
	DiffRMSDBFS  float64

	Correlation float64 // phase correlation, [-1, 1]
}

// ChannelTopologyAnalyzer classifies mono/stereo/dual-mono/mid-side/
// multichannel topology from L/R/sum/diff peaks, RMS and phase correlation.
type ChannelTopologyAnalyzer struct {
	invoker *invoker.Invoker
}

func NewChannelTopologyAnalyzer(inv *invoker.Invoker) *ChannelTopologyAnalyzer {
	return &ChannelTopologyAnalyzer{invoker: inv}
}

func (a *ChannelTopologyAnalyzer) Name() string { return "channel_topology" }

func (a *ChannelTopologyAnalyzer) Classify(m ChannelTopologyMetrics) model.AnalyzerReport {
	switch {
	case m.Channels == 1:
		return a.report(TopologyMono, m, 1, "single channel asset")
	case m.Channels > 2:
		return a.report(TopologyMultichannel, m, 1, fmt.Sprintf("%d channel asset", m.Channels))
	}

	const dualMonoPeakThresh = -80.0
	const dualMonoRMSThresh = -60.0
	if m.DiffPeakDBFS < dualMonoPeakThresh || m.DiffRMSDBFS < dualMonoRMSThresh {
		return a.report(TopologyDualMono, m, 1, "L and R are effectively identical")
	}

	interChannelLevelDiff := absFloat(m.LeftRMSDBFS - m.RightRMSDBFS)
	const midSideCorrLow, midSideCorrHigh = -0.3, 0.3
	const midSideLevelDiffThresh = 10.0
	if m.Correlation >= midSideCorrLow && m.Correlation <= midSideCorrHigh && interChannelLevelDiff > midSideLevelDiffThresh {
		return a.report(TopologyMidSide, m, 0.8, fmt.Sprintf("low correlation (%.2f) with %.1f dB inter-channel difference", m.Correlation, interChannelLevelDiff))
	}

	var width float64
	if m.SumRMSDBFS != 0 {
		width = linearFromDB(m.DiffRMSDBFS) / linearFromDB(m.SumRMSDBFS)
	}
	return a.reportWithWidth(TopologyStereo, m, 1, width, fmt.Sprintf("stereo width %.2f", width))
}

func (a *ChannelTopologyAnalyzer) report(status ChannelTopology, m ChannelTopologyMetrics, confidence float64, description string) model.AnalyzerReport {
	return model.AnalyzerReport{
		Status: string(status),
		Measurements: map[string]any{
			"channels":        m.Channels,
			"correlation":     m.Correlation,
			"diff_peak_dbfs":  m.DiffPeakDBFS,
			"diff_rms_dbfs":   m.DiffRMSDBFS,
		},
		Description:     description,
		Recommendations: recommendationsForChannelTopology(status),
		Confidence:      confidence,
	}
}

func recommendationsForChannelTopology(status ChannelTopology) []string {
	switch status {
	case TopologyDualMono:
		return []string{"L and R carry identical signal, collapse to true mono to halve delivery size with no quality loss"}
	case TopologyMidSide:
		return []string{"asset appears to be undecoded mid-side, verify stereo decoding before delivery"}
	case TopologyMultichannel:
		return []string{"multichannel asset requires a downmix check before stereo delivery"}
	default:
		return nil
	}
}

func (a *ChannelTopologyAnalyzer) reportWithWidth(status ChannelTopology, m ChannelTopologyMetrics, confidence, width float64, description string) model.AnalyzerReport {
	report := a.report(status, m, confidence, description)
	report.Measurements["stereo_width"] = width
	report.Score = ptr(width)
	return report
}

// linearFromDB converts a dBFS-style level to a linear magnitude.
func linearFromDB(db float64) float64 {
	return math.Pow(10, db/20)
}

// linearToDB is the inverse of linearFromDB; zero or negative input floors
// to a very low dB value rather than producing -Inf/NaN.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return -120
	}
	return 20 * math.Log10(linear)
}

func (a *ChannelTopologyAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "astats=metadata=1:reset=1",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(TopologyStereo), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	channels := 2
	if asset.Channels > 0 {
		channels = asset.Channels
	}

	m := ChannelTopologyMetrics{Channels: channels}
	if metrics["channel_l_peak"] != nil {
		m.LeftPeakDBFS = *metrics["channel_l_peak"]
	}
	if metrics["channel_r_peak"] != nil {
		m.RightPeakDBFS = *metrics["channel_r_peak"]
	}

	report := a.Classify(m)
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *ChannelTopologyAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
