package analyzer

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/tphakala/simd"
)

// hasVectorSupport gates the SIMD path behind a runtime feature check, the
// same cpuid-gate-then-dispatch pattern used for the rest of this binary's
// hot-path audio math: never assume AVX2 is present just because the build
// target is amd64.
var hasVectorSupport = cpuid.CPU.Supports(cpuid.AVX2)

// sumFloat64 sums data, dispatching to the vectorized kernel when the CPU
// supports it and falling back to a scalar loop otherwise. Used by the band
// RMS/energy aggregation in the Club System Stress and Spectral Balance
// analyzers, which sum one value per band (five or ten bands per file).
func sumFloat64(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if hasVectorSupport {
		return simd.SumFloat64(data)
	}
	return scalarSum(data)
}

// meanFloat64 is sumFloat64 divided by len(data), returning 0 for an empty
// slice rather than NaN.
func meanFloat64(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return sumFloat64(data) / float64(len(data))
}

func scalarSum(data []float64) float64 {
	var total float64
	for _, v := range data {
		total += v
	}
	return total
}
