// conf/consts.go hard coded constants
package conf

const (
	// ComponentName is the name used to register this package with the
	// centralized error/logging infrastructure.
	ComponentName = "conf"

	// NormalizedSampleRate is the sample rate every clip is resampled to
	// before measurement, per the pre-analysis normalizer's invariant.
	NormalizedSampleRate = 48000

	// NormalizedBitDepth is the bit depth clips are normalized to for
	// true-peak and loudness measurement.
	NormalizedBitDepth = 24

	// PlatformContractTableFile is the default filename for the platform
	// contract table (per-platform loudness/true-peak/format requirements).
	PlatformContractTableFile = "platform_contracts.yaml"

	// SubgenreHeuristicsFile is the default filename for the subgenre
	// classification heuristics table consumed by the analyzer suite.
	SubgenreHeuristicsFile = "subgenre_heuristics.yaml"
)
