package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// Band is a single band-pass region's measured RMS/peak/crest energy.
type Band struct {
	Name     string
	LowHz    float64
	HighHz   float64
	RMS      float64 // linear energy, not dB
	Peak     float64
	CrestDB  float64
}

// ClubStressStatus classifies how hard a club/PA system would have to work.
type ClubStressStatus string

const (
	ClubStressLow      ClubStressStatus = "LOW"
	ClubStressModerate ClubStressStatus = "MODERATE"
	ClubStressHigh     ClubStressStatus = "HIGH"
	ClubStressCritical ClubStressStatus = "CRITICAL"
)

// ClubStressMetrics is what ClubStressAnalyzer.Classify consumes: RMS/peak
// energy already measured in the five band-pass regions (sub-bass 20-60Hz,
// bass 60-120, low-mid 120-250, mid 250-2000, high 2000-20000) plus overall
// loudness.
type ClubStressMetrics struct {
	Bands            []Band // exactly 5, in band order, or nil when unavailable
	IntegratedLUFS   *float64
}

// ClubStressAnalyzer measures energy in five band-pass regions and produces
// a limiter-stress and excursion-risk score for playback on a club PA.
type ClubStressAnalyzer struct {
	invoker *invoker.Invoker
}

func NewClubStressAnalyzer(inv *invoker.Invoker) *ClubStressAnalyzer {
	return &ClubStressAnalyzer{invoker: inv}
}

func (a *ClubStressAnalyzer) Name() string { return "club_system_stress" }

func (a *ClubStressAnalyzer) Classify(m ClubStressMetrics) model.AnalyzerReport {
	if len(m.Bands) != 5 {
		return neutralReport(string(ClubStressLow), "band energy unavailable")
	}

	subBass, bass, lowMid, mid, high := m.Bands[0], m.Bands[1], m.Bands[2], m.Bands[3], m.Bands[4]

	totalEnergy := subBass.RMS + bass.RMS + lowMid.RMS + mid.RMS + high.RMS
	var subBassRatio, combinedBassRatio float64
	if totalEnergy > 0 {
		subBassRatio = subBass.RMS / totalEnergy
		combinedBassRatio = (subBass.RMS + bass.RMS) / totalEnergy
	}

	var bassToMidRatio float64
	if mid.RMS > 0 {
		bassToMidRatio = (subBass.RMS + bass.RMS) / mid.RMS
	}

	meanCrest := meanFloat64([]float64{subBass.CrestDB, bass.CrestDB, lowMid.CrestDB, mid.CrestDB, high.CrestDB})

	limiterStress := scoreComponent(combinedBassRatio, 0.5, 40) +
		scoreComponent(1-normalizeCrest(meanCrest), 1.0, 35) +
		scoreComponent(overallLoudnessShare(m.IntegratedLUFS), 1.0, 25)
	limiterStress = clampScore(limiterStress)

	excursionRisk := scoreComponent(subBassRatio, 0.35, 50) +
		scoreComponent(1-normalizeCrest(meanCrest), 1.0, 50)
	excursionRisk = clampScore(excursionRisk)

	status := classifyClubStress(limiterStress, excursionRisk, combinedBassRatio)

	return model.AnalyzerReport{
		Status: string(status),
		Score:  ptr(limiterStress),
		Measurements: map[string]any{
			"sub_bass_ratio":      subBassRatio,
			"combined_bass_ratio": combinedBassRatio,
			"bass_to_mid_ratio":   bassToMidRatio,
			"mean_crest_db":       meanCrest,
			"limiter_stress":      limiterStress,
			"excursion_risk":      excursionRisk,
		},
		Description:     fmt.Sprintf("limiter stress %.0f, excursion risk %.0f, combined bass ratio %.2f", limiterStress, excursionRisk, combinedBassRatio),
		Recommendations: recommendationsForClubStress(status, combinedBassRatio),
		Confidence:      1,
	}
}

func recommendationsForClubStress(status ClubStressStatus, combinedBassRatio float64) []string {
	switch status {
	case ClubStressLow:
		return []string{"bass energy and dynamics are well within club PA limits"}
	case ClubStressModerate:
		return []string{"monitor limiter gain reduction on a club system, bass ratio is trending high"}
	case ClubStressHigh:
		return []string{"reduce combined sub/bass energy or raise mix headroom before club playback"}
	default:
		return []string{fmt.Sprintf("combined bass ratio %.0f%% risks driver excursion and limiter pumping on a club PA, rebalance low end before delivery", combinedBassRatio*100)}
	}
}

func classifyClubStress(limiterStress, excursionRisk, combinedBassRatio float64) ClubStressStatus {
	worst := limiterStress
	if excursionRisk > worst {
		worst = excursionRisk
	}
	switch {
	case worst >= 80 || combinedBassRatio > 0.75:
		return ClubStressCritical
	case worst >= 55:
		return ClubStressHigh
	case worst >= 30:
		return ClubStressModerate
	default:
		return ClubStressLow
	}
}

// scoreComponent scales value (already normalized to value/ceiling) up to
// weight, clamped to [0, weight].
func scoreComponent(value, ceiling, weight float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	ratio := value / ceiling
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio * weight
}

// normalizeCrest maps a crest factor in dB to [0,1], higher crest (more
// headroom, less compressed) mapping to a value near 1.
func normalizeCrest(crestDB float64) float64 {
	const maxCrest = 20.0
	if crestDB <= 0 {
		return 0
	}
	if crestDB >= maxCrest {
		return 1
	}
	return crestDB / maxCrest
}

func overallLoudnessShare(integratedLUFS *float64) float64 {
	if integratedLUFS == nil {
		return 0.5
	}
	const quiet, loud = -30.0, -6.0
	if *integratedLUFS <= quiet {
		return 0
	}
	if *integratedLUFS >= loud {
		return 1
	}
	return (*integratedLUFS - quiet) / (loud - quiet)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func ptr(v float64) *float64 { return &v }

func (a *ClubStressAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()

	bands, err := measureBands(ctx, a.invoker, asset.Path, clubStressBands)
	if err != nil {
		report := neutralReport(string(ClubStressLow), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "loudnorm=print_format=json",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(ClubStressLow), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}

	metrics := invoker.ParseMetrics(result.Stderr, invoker.DefaultSchema)
	report := a.Classify(ClubStressMetrics{Bands: bands, IntegratedLUFS: metrics["input_i"]})
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *ClubStressAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
