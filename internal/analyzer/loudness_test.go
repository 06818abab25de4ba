package analyzer

import (
	"strings"
	"testing"
)

func TestLoudnessClassifyOnTarget(t *testing.T) {
	report := (&LoudnessAnalyzer{}).Classify(LoudnessMetrics{
		IntegratedLUFS: ptr(-14.0),
		TruePeakDBTP:   ptr(-1.5),
		Platform:       "spotify",
	})
	if report.Status != string(LoudnessOnTarget) {
		t.Errorf("Status = %q, want %q", report.Status, LoudnessOnTarget)
	}
	if report.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", report.Confidence)
	}
}

func TestLoudnessClassifyBuckets(t *testing.T) {
	cases := []struct {
		name   string
		lufs   float64
		target string
		want   LoudnessStatus
	}{
		{name: "much too quiet", lufs: -25, target: "spotify", want: LoudnessMuchTooQuiet},
		{name: "too quiet", lufs: -16, target: "spotify", want: LoudnessTooQuiet},
		{name: "on target", lufs: -14, target: "spotify", want: LoudnessOnTarget},
		{name: "too loud", lufs: -12, target: "spotify", want: LoudnessTooLoud},
		{name: "much too loud", lufs: -4, target: "spotify", want: LoudnessMuchTooLoud},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			report := (&LoudnessAnalyzer{}).Classify(LoudnessMetrics{
				IntegratedLUFS: ptr(c.lufs),
				Platform:       c.target,
			})
			if report.Status != string(c.want) {
				t.Errorf("Classify(%v) = %q, want %q", c.lufs, report.Status, c.want)
			}
		})
	}
}

// TestLoudnessClassifyHotMasterScenario is the literal "hot master,
// Spotify" worked example: {integrated: -8.0, truePeak: -0.2} must
// classify TOO_LOUD (not MUCH_TOO_LOUD), with a -6.0 dB gain recommendation
// carrying the "significantly above target" warning.
func TestLoudnessClassifyHotMasterScenario(t *testing.T) {
	report := (&LoudnessAnalyzer{}).Classify(LoudnessMetrics{
		IntegratedLUFS: ptr(-8.0),
		TruePeakDBTP:   ptr(-0.2),
		Platform:       "spotify",
	})
	if report.Status != string(LoudnessTooLoud) {
		t.Errorf("Status = %q, want %q", report.Status, LoudnessTooLoud)
	}
	gainChange, ok := report.Measurements["gain_change_db"].(float64)
	if !ok || gainChange != -6.0 {
		t.Errorf("gain_change_db = %v, want -6.0", report.Measurements["gain_change_db"])
	}
	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "significantly above target") {
			found = true
		}
	}
	if !found {
		t.Errorf("Recommendations = %v, want one containing %q", report.Recommendations, "significantly above target")
	}
}

func TestLoudnessClassifyMissingIntegratedReturnsNeutral(t *testing.T) {
	report := (&LoudnessAnalyzer{}).Classify(LoudnessMetrics{})
	if report.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", report.Confidence)
	}
}

func TestLoudnessClassifyRecommendsLimiterWhenProjectedPeakExceedsThreshold(t *testing.T) {
	report := (&LoudnessAnalyzer{}).Classify(LoudnessMetrics{
		IntegratedLUFS: ptr(-20.0), // gain change = +6 dB to reach -14
		TruePeakDBTP:   ptr(-3.0),  // projected peak = -3 + 6 = 3 > -1
		Platform:       "spotify",
	})
	limiterRequired, ok := report.Measurements["limiter_required"].(bool)
	if !ok || !limiterRequired {
		t.Errorf("limiter_required = %v, want true", report.Measurements["limiter_required"])
	}
}

func TestLadderForLoudnessRespectsTolerance(t *testing.T) {
	ladder := ladderForLoudness(-14)
	if got := ladder.Classify(-14); got != LoudnessOnTarget {
		t.Errorf("Classify(-14) = %v, want ON_TARGET", got)
	}
	if got := ladder.Classify(-15.5); got != LoudnessTooQuiet {
		t.Errorf("Classify(-15.5) = %v, want TOO_QUIET", got)
	}
}

func TestMinMaxMean(t *testing.T) {
	min, max, mean := minMaxMean([]float64{-20, -10, -15})
	if min != -20 || max != -10 || mean != -15 {
		t.Errorf("minMaxMean = (%v, %v, %v), want (-20, -10, -15)", min, max, mean)
	}
}
