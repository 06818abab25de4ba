package analyzer

import "testing"

func bandsFixture(subBassRMS, bassRMS, lowMidRMS, midRMS, highRMS, crestDB float64) []Band {
	return []Band{
		{Name: "sub_bass", RMS: subBassRMS, CrestDB: crestDB},
		{Name: "bass", RMS: bassRMS, CrestDB: crestDB},
		{Name: "low_mid", RMS: lowMidRMS, CrestDB: crestDB},
		{Name: "mid", RMS: midRMS, CrestDB: crestDB},
		{Name: "high", RMS: highRMS, CrestDB: crestDB},
	}
}

func TestClubStressClassifyMissingBandsReturnsNeutral(t *testing.T) {
	report := (&ClubStressAnalyzer{}).Classify(ClubStressMetrics{})
	if report.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", report.Confidence)
	}
}

func TestClubStressClassifyLowStressBalancedMix(t *testing.T) {
	loud := -20.0
	report := (&ClubStressAnalyzer{}).Classify(ClubStressMetrics{
		Bands:          bandsFixture(0.1, 0.1, 0.2, 0.3, 0.3, 18),
		IntegratedLUFS: &loud,
	})
	if report.Status != string(ClubStressLow) {
		t.Errorf("Status = %q, want %q", report.Status, ClubStressLow)
	}
}

func TestClubStressClassifyCriticalBassHeavyHighlyCompressed(t *testing.T) {
	loud := -8.0
	report := (&ClubStressAnalyzer{}).Classify(ClubStressMetrics{
		Bands:          bandsFixture(0.6, 0.3, 0.05, 0.03, 0.02, 2),
		IntegratedLUFS: &loud,
	})
	if report.Status != string(ClubStressCritical) {
		t.Errorf("Status = %q, want %q", report.Status, ClubStressCritical)
	}
}

func TestScoreComponentClampsToWeight(t *testing.T) {
	if got := scoreComponent(10, 1, 40); got != 40 {
		t.Errorf("scoreComponent(overvalue) = %v, want 40", got)
	}
	if got := scoreComponent(-5, 1, 40); got != 0 {
		t.Errorf("scoreComponent(negative) = %v, want 0", got)
	}
	if got := scoreComponent(0.5, 1, 40); got != 20 {
		t.Errorf("scoreComponent(half) = %v, want 20", got)
	}
}

func TestClampScore(t *testing.T) {
	if got := clampScore(150); got != 100 {
		t.Errorf("clampScore(150) = %v, want 100", got)
	}
	if got := clampScore(-10); got != 0 {
		t.Errorf("clampScore(-10) = %v, want 0", got)
	}
}

func TestOverallLoudnessShare(t *testing.T) {
	if got := overallLoudnessShare(nil); got != 0.5 {
		t.Errorf("overallLoudnessShare(nil) = %v, want 0.5", got)
	}
	quiet := -35.0
	if got := overallLoudnessShare(&quiet); got != 0 {
		t.Errorf("overallLoudnessShare(very quiet) = %v, want 0", got)
	}
	loud := -3.0
	if got := overallLoudnessShare(&loud); got != 1 {
		t.Errorf("overallLoudnessShare(very loud) = %v, want 1", got)
	}
}
