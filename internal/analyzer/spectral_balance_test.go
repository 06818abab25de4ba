package analyzer

import "testing"

func flatOctaveBands(values ...float64) []OctaveBand {
	out := make([]OctaveBand, len(values))
	for i, v := range values {
		out[i] = OctaveBand{CenterHz: octaveBandCenters[i], RMSDB: v}
	}
	return out
}

func TestSpectralBalanceClassifyMissingBandsReturnsNeutral(t *testing.T) {
	report := (&SpectralBalanceAnalyzer{}).Classify(SpectralBalanceMetrics{})
	if report.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", report.Confidence)
	}
}

func TestSpectralBalanceClassifyBalancedWhenMatchingFlatReference(t *testing.T) {
	report := (&SpectralBalanceAnalyzer{}).Classify(SpectralBalanceMetrics{
		Bands:     flatOctaveBands(-20, -20, -20, -20, -20, -20, -20, -20, -20, -20),
		Reference: FlatReferenceCurve,
	})
	if report.Status != string(SpectralBalanceBalanced) {
		t.Errorf("Status = %q, want %q", report.Status, SpectralBalanceBalanced)
	}
}

func TestSpectralBalanceClassifyExtremeWhenOneBandDominates(t *testing.T) {
	report := (&SpectralBalanceAnalyzer{}).Classify(SpectralBalanceMetrics{
		Bands:     flatOctaveBands(-10, -50, -50, -50, -50, -50, -50, -50, -50, -50),
		Reference: FlatReferenceCurve,
	})
	if report.Status != string(SpectralBalanceExtreme) {
		t.Errorf("Status = %q, want %q", report.Status, SpectralBalanceExtreme)
	}
	if region, ok := report.Measurements["imbalance_region"]; !ok || region != string(ImbalanceLow) {
		t.Errorf("imbalance_region = %v, want LOW", region)
	}
}

func TestLinearRegressionSlopeDetectsTilt(t *testing.T) {
	slope := linearRegressionSlope([]float64{0, 1, 2, 3, 4})
	if slope <= 0 {
		t.Errorf("slope = %v, want positive", slope)
	}
	flatSlope := linearRegressionSlope([]float64{5, 5, 5, 5, 5})
	if flatSlope != 0 {
		t.Errorf("flatSlope = %v, want 0", flatSlope)
	}
}

func TestZeroMeanSlice(t *testing.T) {
	out := zeroMeanSlice([]float64{1, 2, 3})
	if meanFloat64(out) != 0 {
		t.Errorf("mean after zeroMeanSlice = %v, want 0", meanFloat64(out))
	}
}
