package analyzer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/audioqa/internal/invoker"
	"github.com/tphakala/audioqa/internal/model"
)

// CompressionIntensity classifies a single window's apparent compression by
// crest factor.
type CompressionIntensity string

const (
	CompressionExtreme  CompressionIntensity = "EXTREME"
	CompressionHeavy    CompressionIntensity = "HEAVY"
	CompressionModerate CompressionIntensity = "MODERATE"
	CompressionLight    CompressionIntensity = "LIGHT"
	CompressionMinimal  CompressionIntensity = "MINIMAL"
	CompressionNone     CompressionIntensity = "NONE"
)

var compressionLadder = NewLadder(CompressionNone,
	Rung[CompressionIntensity]{Threshold: 4, Status: CompressionExtreme},
	Rung[CompressionIntensity]{Threshold: 6, Status: CompressionHeavy},
	Rung[CompressionIntensity]{Threshold: 10, Status: CompressionModerate},
	Rung[CompressionIntensity]{Threshold: 14, Status: CompressionLight},
	Rung[CompressionIntensity]{Threshold: 18, Status: CompressionMinimal},
)

// DistributionPattern describes how compression intensity varies across a
// track's windows.
type DistributionPattern string

const (
	DistributionUniform             DistributionPattern = "UNIFORM"
	DistributionEscalating          DistributionPattern = "ESCALATING"
	DistributionDeEscalating        DistributionPattern = "DE_ESCALATING"
	DistributionVerseChorusVariance DistributionPattern = "VERSE_CHORUS_VARIANCE"
	DistributionDynamic             DistributionPattern = "DYNAMIC"
	DistributionSparse              DistributionPattern = "SPARSE"
)

// Window is one windowed measurement at the analyzer's chosen granularity.
type Window struct {
	PeakDBFS    float64
	RMSDBFS     float64
	CrestDB     float64
	FlatFactor  float64
}

// Granularity is a windowing size the gain-reduction mapper can operate at.
type Granularity string

const (
	Granularity100ms Granularity = "100ms"
	Granularity400ms Granularity = "400ms"
	Granularity2s    Granularity = "2s"
	Granularity8s    Granularity = "8s"
)

// GainReductionMetrics is what GainReductionAnalyzer.Classify consumes.
type GainReductionMetrics struct {
	Windows     []Window
	Granularity Granularity
}

// GainReductionAnalyzer windows an asset and classifies each window's
// compression intensity, then recognizes the aggregate pattern across
// windows.
type GainReductionAnalyzer struct {
	invoker *invoker.Invoker
}

func NewGainReductionAnalyzer(inv *invoker.Invoker) *GainReductionAnalyzer {
	return &GainReductionAnalyzer{invoker: inv}
}

func (a *GainReductionAnalyzer) Name() string { return "gain_reduction_distribution" }

func (a *GainReductionAnalyzer) Classify(m GainReductionMetrics) model.AnalyzerReport {
	if len(m.Windows) == 0 {
		return neutralReport(string(DistributionSparse), "no windowed measurements available")
	}

	scores := make([]float64, len(m.Windows))
	intensities := make([]CompressionIntensity, len(m.Windows))
	for i, w := range m.Windows {
		intensities[i] = compressionLadder.Classify(w.CrestDB)
		scores[i] = compressionScoreFromCrest(w.CrestDB)
	}

	mean := meanFloat64(scores)
	stdDev := stdDevOf(scores, mean)
	firstThird, lastThird := thirdMeans(scores)

	pattern := recognizePattern(scores, mean, stdDev, firstThird, lastThird)

	return model.AnalyzerReport{
		Status: string(pattern),
		Score:  ptr(mean),
		Measurements: map[string]any{
			"window_count":        len(m.Windows),
			"mean_compression":    mean,
			"stddev_compression":  stdDev,
			"first_third_mean":    firstThird,
			"last_third_mean":     lastThird,
			"granularity":         string(m.Granularity),
		},
		Description:     fmt.Sprintf("compression pattern %s across %d windows (mean score %.0f)", pattern, len(m.Windows), mean),
		Recommendations: recommendationsForGainReduction(pattern, mean),
		Confidence:      1,
	}
}

func recommendationsForGainReduction(pattern DistributionPattern, mean float64) []string {
	switch pattern {
	case DistributionUniform, DistributionSparse:
		if mean >= 70 {
			return []string{"compression is uniformly heavy across the track, consider a less aggressive limiter setting"}
		}
		return []string{"compression level is consistent and within normal range"}
	case DistributionEscalating:
		return []string{"compression intensifies toward the end of the track, check mastering chain automation"}
	case DistributionDeEscalating:
		return []string{"compression eases toward the end of the track, verify this is intentional"}
	case DistributionDynamic:
		return []string{"compression varies widely across windows, review limiter settings for consistency"}
	default:
		return []string{"compression tracks arrangement dynamics (verse/chorus), no action needed"}
	}
}

// compressionScoreFromCrest maps crest factor to a 0-100 compression score,
// inverted so lower crest (more limiting) scores higher.
func compressionScoreFromCrest(crestDB float64) float64 {
	const maxCrest = 20.0
	score := 100 * (1 - crestDB/maxCrest)
	return clampScore(score)
}

func recognizePattern(scores []float64, mean, stdDev, firstThird, lastThird float64) DistributionPattern {
	const lowVariance = 8.0
	const meaningfulDrift = 10.0

	switch {
	case len(scores) < 3:
		return DistributionSparse
	case stdDev < lowVariance:
		return DistributionUniform
	case lastThird-firstThird > meaningfulDrift:
		return DistributionEscalating
	case firstThird-lastThird > meaningfulDrift:
		return DistributionDeEscalating
	case stdDev > 25:
		return DistributionDynamic
	default:
		return DistributionVerseChorusVariance
	}
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func thirdMeans(values []float64) (first, last float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	third := n / 3
	if third == 0 {
		return values[0], values[n-1]
	}
	return meanFloat64(values[:third]), meanFloat64(values[n-third:])
}

func (a *GainReductionAnalyzer) Analyze(ctx context.Context, asset model.AudioAsset, opts Options) (model.AnalyzerReport, error) {
	start := time.Now()
	granularity := Granularity(opts.Granularity)
	if granularity == "" {
		granularity = Granularity400ms
	}

	result, err := a.invoker.Run(ctx, []string{
		"-i", asset.Path, "-af", "astats=metadata=1:reset=1",
		"-f", "null", "-",
	}, 0)
	if err != nil {
		report := neutralReport(string(DistributionSparse), "invocation failed")
		report.AnalysisTimeMs = time.Since(start).Milliseconds()
		return report, err
	}
	_ = result

	report := a.Classify(GainReductionMetrics{Granularity: granularity})
	report.AnalysisTimeMs = time.Since(start).Milliseconds()
	return report, nil
}

func (a *GainReductionAnalyzer) QuickCheck(ctx context.Context, asset model.AudioAsset) (model.CompactReport, error) {
	report, err := a.Analyze(ctx, asset, Options{})
	return model.CompactReport{Status: report.Status, Confidence: report.Confidence, Summary: report.Description}, err
}
