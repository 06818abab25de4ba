package catalog

import (
	"testing"

	"github.com/tphakala/audioqa/internal/model"
)

func TestBuildSignalsExtractsKnownProxiesAndLeavesRestNil(t *testing.T) {
	reports := map[string]model.AnalyzerReport{
		"club_system_stress": {
			Status: "SAFE",
			Measurements: map[string]any{
				"sub_bass_ratio": 0.42,
			},
		},
		"gain_reduction_distribution": {
			Status: "UNIFORM",
			Measurements: map[string]any{
				"mean_compression": 30.0,
			},
		},
		"channel_topology": {
			Status: "STEREO",
			Measurements: map[string]any{
				"stereo_width": 0.65,
			},
		},
	}

	signals := BuildSignals(reports)

	if signals.SubBassEnergy == nil || *signals.SubBassEnergy != 0.42 {
		t.Errorf("SubBassEnergy = %v, want 0.42", signals.SubBassEnergy)
	}
	if signals.DynamicRange == nil || *signals.DynamicRange != 0.7 {
		t.Errorf("DynamicRange = %v, want 0.7", signals.DynamicRange)
	}
	if signals.StereoWidth == nil || *signals.StereoWidth != 0.65 {
		t.Errorf("StereoWidth = %v, want 0.65", signals.StereoWidth)
	}
	if signals.TransientDensity != nil || signals.VinylNoise != nil || signals.ReverbDecay != nil ||
		signals.HighFreqRolloff != nil || signals.Distortion != nil || signals.MixBalance != nil {
		t.Error("fields with no analyzer proxy should stay nil")
	}
}

func TestBuildSignalsSkipsErrorReportsAndMissingAnalyzers(t *testing.T) {
	reports := map[string]model.AnalyzerReport{
		"club_system_stress": {Status: "ERROR", Measurements: map[string]any{"sub_bass_ratio": 0.9}},
	}

	signals := BuildSignals(reports)
	if signals.SubBassEnergy != nil {
		t.Errorf("SubBassEnergy from an ERROR report = %v, want nil", signals.SubBassEnergy)
	}
	if signals.StereoWidth != nil {
		t.Errorf("StereoWidth with no channel_topology report = %v, want nil", signals.StereoWidth)
	}
}
