package analyzer

import "testing"

func TestTemporalSourceEvenDistributionIsUpstream(t *testing.T) {
	timeline := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
	if got := temporalSource(timeline); got != ClippingUpstream {
		t.Errorf("temporalSource(even) = %q, want %q", got, ClippingUpstream)
	}
}

func TestTemporalSourceLastThirdHeavyIsDownstream(t *testing.T) {
	timeline := []float64{0, 0, 0, 0, 0, 0, 10, 10, 10}
	if got := temporalSource(timeline); got != ClippingDownstream {
		t.Errorf("temporalSource(last-heavy) = %q, want %q", got, ClippingDownstream)
	}
}

func TestTemporalSourceFirstThirdHeavyIsUndetermined(t *testing.T) {
	timeline := []float64{10, 10, 10, 0, 0, 0, 0, 0, 0}
	if got := temporalSource(timeline); got != ClippingUndetermined {
		t.Errorf("temporalSource(first-heavy) = %q, want %q", got, ClippingUndetermined)
	}
}

func TestTemporalSourceScatteredIsMixed(t *testing.T) {
	timeline := []float64{10, 0, 10, 0, 5, 0, 8, 1, 9}
	if got := temporalSource(timeline); got != ClippingMixed {
		t.Errorf("temporalSource(scattered) = %q, want %q", got, ClippingMixed)
	}
}

func TestTemporalSourceTooShortIsUndetermined(t *testing.T) {
	if got := temporalSource([]float64{1, 2}); got != ClippingUndetermined {
		t.Errorf("temporalSource(short) = %q, want %q", got, ClippingUndetermined)
	}
}

func TestClippingClassifyNoClipping(t *testing.T) {
	report := (&ClippingAnalyzer{}).Classify(ClippingMetrics{
		SamplePeakDBFS: ptr(-10.0),
		FlatFactor:     ptr(0.001),
		ClipDensityPct: 0,
	})
	if report.Status != "NONE/NONE" {
		t.Errorf("Status = %q, want %q", report.Status, "NONE/NONE")
	}
}

func TestClippingClassifySoftClip(t *testing.T) {
	report := (&ClippingAnalyzer{}).Classify(ClippingMetrics{
		SamplePeakDBFS: ptr(-3.0),
		FlatFactor:     ptr(0.05),
		ClipDensityPct: 0.05,
	})
	if report.Status != "SOFT_CLIP/LOW" {
		t.Errorf("Status = %q, want %q", report.Status, "SOFT_CLIP/LOW")
	}
}

func TestClippingClassifyHardClippingPeggedToCeiling(t *testing.T) {
	timeline := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
	report := (&ClippingAnalyzer{}).Classify(ClippingMetrics{
		SamplePeakDBFS: ptr(0.0),
		FlatFactor:     ptr(0.5),
		ClipDensityPct: 0.5,
		Timeline:       timeline,
	})
	if report.Status != "UPSTREAM/MODERATE" {
		t.Errorf("Status = %q, want %q", report.Status, "UPSTREAM/MODERATE")
	}
}

func TestClippingClassifyMissingMetricsReturnsNeutral(t *testing.T) {
	report := (&ClippingAnalyzer{}).Classify(ClippingMetrics{})
	if report.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", report.Confidence)
	}
}

func TestSeverityLadderBuckets(t *testing.T) {
	cases := []struct {
		pct  float64
		want ClippingSeverity
	}{
		{pct: 0, want: ClippingSeverityNone},
		{pct: 0.05, want: ClippingSeverityLow},
		{pct: 0.5, want: ClippingSeverityModerate},
		{pct: 2, want: ClippingSeverityHigh},
		{pct: 10, want: ClippingSeverityExtreme},
	}
	for _, c := range cases {
		if got := severityLadder.Classify(c.pct); got != c.want {
			t.Errorf("severityLadder.Classify(%v) = %q, want %q", c.pct, got, c.want)
		}
	}
}
