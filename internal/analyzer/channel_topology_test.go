package analyzer

import "testing"

func TestChannelTopologyClassifyMono(t *testing.T) {
	report := (&ChannelTopologyAnalyzer{}).Classify(ChannelTopologyMetrics{Channels: 1})
	if report.Status != string(TopologyMono) {
		t.Errorf("Status = %q, want %q", report.Status, TopologyMono)
	}
	if report.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", report.Confidence)
	}
}

func TestChannelTopologyClassifyMultichannel(t *testing.T) {
	report := (&ChannelTopologyAnalyzer{}).Classify(ChannelTopologyMetrics{Channels: 6})
	if report.Status != string(TopologyMultichannel) {
		t.Errorf("Status = %q, want %q", report.Status, TopologyMultichannel)
	}
}

func TestChannelTopologyClassifyDualMono(t *testing.T) {
	report := (&ChannelTopologyAnalyzer{}).Classify(ChannelTopologyMetrics{
		Channels:     2,
		DiffPeakDBFS: -90,
		DiffRMSDBFS:  -70,
	})
	if report.Status != string(TopologyDualMono) {
		t.Errorf("Status = %q, want %q", report.Status, TopologyDualMono)
	}
}

func TestChannelTopologyClassifyMidSide(t *testing.T) {
	report := (&ChannelTopologyAnalyzer{}).Classify(ChannelTopologyMetrics{
		Channels:     2,
		DiffPeakDBFS: -10,
		DiffRMSDBFS:  -5,
		LeftRMSDBFS:  -10,
		RightRMSDBFS: -25,
		Correlation:  0.0,
	})
	if report.Status != string(TopologyMidSide) {
		t.Errorf("Status = %q, want %q", report.Status, TopologyMidSide)
	}
}

func TestChannelTopologyClassifyOrdinaryStereo(t *testing.T) {
	report := (&ChannelTopologyAnalyzer{}).Classify(ChannelTopologyMetrics{
		Channels:     2,
		DiffPeakDBFS: -10,
		DiffRMSDBFS:  -10,
		LeftRMSDBFS:  -12,
		RightRMSDBFS: -13,
		SumRMSDBFS:   -6,
		Correlation:  0.7,
	})
	if report.Status != string(TopologyStereo) {
		t.Errorf("Status = %q, want %q", report.Status, TopologyStereo)
	}
	if _, ok := report.Measurements["stereo_width"]; !ok {
		t.Errorf("expected stereo_width in measurements, got %v", report.Measurements)
	}
}

func TestLinearFromDBRoundTripsWithLinearToDB(t *testing.T) {
	db := -12.0
	linear := linearFromDB(db)
	if got := linearToDB(linear); got < db-0.0001 || got > db+0.0001 {
		t.Errorf("linearToDB(linearFromDB(%v)) = %v, want %v", db, got, db)
	}
}
