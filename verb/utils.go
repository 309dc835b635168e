package verb

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func msToSamples(ms, sampleRate float64) float64 {
	return ms * 0.001 * sampleRate
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
