package analyzer

// NormalizationType describes how a platform applies loudness normalization
// relative to its target: DOWN_ONLY only ever turns a track down to meet the
// target (louder-than-target masters play back attenuated, quieter ones play
// back untouched), UP_AND_DOWN applies gain in either direction.
type NormalizationType string

const (
	NormalizationDownOnly  NormalizationType = "DOWN_ONLY"
	NormalizationUpAndDown NormalizationType = "UP_AND_DOWN"
)

// PlatformTarget is a streaming platform's loudness normalization target.
type PlatformTarget struct {
	Name             string
	Target           float64 // integrated LUFS target
	Normalization    NormalizationType
}

// PlatformTargets is the reference table the Loudness Analyzer compares an
// asset's integrated loudness against.
var PlatformTargets = []PlatformTarget{
	{Name: "spotify", Target: -14, Normalization: NormalizationUpAndDown},
	{Name: "apple_music", Target: -16, Normalization: NormalizationUpAndDown},
	{Name: "ebu_r128", Target: -23, Normalization: NormalizationDownOnly},
	{Name: "youtube", Target: -14, Normalization: NormalizationDownOnly},
	{Name: "tidal", Target: -14, Normalization: NormalizationUpAndDown},
	{Name: "amazon_music", Target: -14, Normalization: NormalizationUpAndDown},
	{Name: "atsc_a85", Target: -24, Normalization: NormalizationDownOnly},
}

// LoudnessTolerance is the +/-1 LU window around a platform target that
// still counts as "on target" in the five-bucket loudness classification.
const LoudnessTolerance = 1.0
