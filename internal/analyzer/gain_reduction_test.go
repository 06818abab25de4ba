package analyzer

import "testing"

func windowsFromCrests(crests ...float64) []Window {
	out := make([]Window, len(crests))
	for i, c := range crests {
		out[i] = Window{CrestDB: c}
	}
	return out
}

func TestGainReductionClassifyNoWindowsIsSparse(t *testing.T) {
	report := (&GainReductionAnalyzer{}).Classify(GainReductionMetrics{})
	if report.Status != string(DistributionSparse) {
		t.Errorf("Status = %q, want %q", report.Status, DistributionSparse)
	}
}

func TestGainReductionClassifyUniformWhenLowVariance(t *testing.T) {
	report := (&GainReductionAnalyzer{}).Classify(GainReductionMetrics{
		Windows: windowsFromCrests(8, 8.5, 8, 7.5, 8, 8.2, 7.8, 8.1),
	})
	if report.Status != string(DistributionUniform) {
		t.Errorf("Status = %q, want %q", report.Status, DistributionUniform)
	}
}

func TestGainReductionClassifyEscalatingWhenScoresRise(t *testing.T) {
	report := (&GainReductionAnalyzer{}).Classify(GainReductionMetrics{
		Windows: windowsFromCrests(18, 18, 18, 14, 14, 14, 4, 4, 4),
	})
	if report.Status != string(DistributionEscalating) {
		t.Errorf("Status = %q, want %q", report.Status, DistributionEscalating)
	}
}

func TestGainReductionClassifyDeEscalatingWhenScoresFall(t *testing.T) {
	report := (&GainReductionAnalyzer{}).Classify(GainReductionMetrics{
		Windows: windowsFromCrests(4, 4, 4, 14, 14, 14, 18, 18, 18),
	})
	if report.Status != string(DistributionDeEscalating) {
		t.Errorf("Status = %q, want %q", report.Status, DistributionDeEscalating)
	}
}

func TestCompressionLadderBuckets(t *testing.T) {
	cases := []struct {
		crest float64
		want  CompressionIntensity
	}{
		{crest: 3, want: CompressionExtreme},
		{crest: 5, want: CompressionHeavy},
		{crest: 9, want: CompressionModerate},
		{crest: 13, want: CompressionLight},
		{crest: 17, want: CompressionMinimal},
		{crest: 25, want: CompressionNone},
	}
	for _, c := range cases {
		if got := compressionLadder.Classify(c.crest); got != c.want {
			t.Errorf("compressionLadder.Classify(%v) = %q, want %q", c.crest, got, c.want)
		}
	}
}

func TestThirdMeans(t *testing.T) {
	first, last := thirdMeans([]float64{1, 1, 1, 5, 5, 5, 9, 9, 9})
	if first != 1 || last != 9 {
		t.Errorf("thirdMeans = (%v, %v), want (1, 9)", first, last)
	}
}
