// Package model defines the data types shared across the analysis,
// decision, job-queue, and delivery components: the audio asset under
// analysis, its derived signals and risks, classification output, rule
// decisions, jobs, and deliveries.
package model

import "time"

// AudioAsset describes a single audio file under analysis. It is immutable
// across a run: nothing downstream of ingestion mutates it.
type AudioAsset struct {
	Path       string
	Format     string // "wav", "flac", "mp3", "aac", "vorbis", "opus", "dsd", ...
	SampleRate int
	BitDepth   int
	Channels   int
	FileSize   int64
	Duration   time.Duration
	Loudness   *float64 // integrated LUFS, nil when not yet measured
}

// Signals holds measurement-derived scalars, each either in [0,1] or a
// natural engineering unit. A nil field means the underlying measurement
// failed or was never attempted, and must not be treated as zero.
type Signals struct {
	SubBassEnergy    *float64
	TransientDensity *float64
	DynamicRange     *float64
	StereoWidth      *float64
	MixBalance       *MixBalance
	VinylNoise       *float64
	ReverbDecay      *float64
	HighFreqRolloff  *float64
	Distortion       *float64
}

// MixBalance classifies where the perceived energy of a mix sits.
type MixBalance string

const (
	MixBalanceVocalDominant MixBalance = "vocal-dominant"
	MixBalanceBeatDominant  MixBalance = "beat-dominant"
	MixBalanceBalanced      MixBalance = "balanced"
)

// neutralRisk is the default value assigned to a Risks field whose
// underlying measurement is unavailable.
const neutralRisk = 0.3

// Risks mirrors Signals' shape, named by failure mode instead of measured
// quantity. A missing value defaults to neutralRisk (0.3), not zero,
// reflecting genuine uncertainty rather than an all-clear.
type Risks struct {
	MaskingRisk              float64
	ClippingRisk             float64
	TranslationRisk          float64
	PhaseCollapseRisk        float64
	OverCompressionRisk      float64
	VocalIntelligibilityRisk float64
	ArtifactRisk             float64
	LofiAestheticRisk        float64
}

// NewRisks returns a Risks value with every field defaulted to the neutral
// risk level, ready to have individual fields overwritten as measurements
// complete.
func NewRisks() Risks {
	return Risks{
		MaskingRisk:              neutralRisk,
		ClippingRisk:             neutralRisk,
		TranslationRisk:          neutralRisk,
		PhaseCollapseRisk:        neutralRisk,
		OverCompressionRisk:      neutralRisk,
		VocalIntelligibilityRisk: neutralRisk,
		ArtifactRisk:             neutralRisk,
		LofiAestheticRisk:        neutralRisk,
	}
}
