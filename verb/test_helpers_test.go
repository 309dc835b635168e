package verb

import (
	"math"
	"math/rand"
)

func randomVector(rng *rand.Rand, n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

func energy(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

func fill(x float32) Frame {
	var f Frame
	for i := range f {
		f[i] = x
	}
	return f
}

func frameEnergy(f Frame) float64 {
	return energy(f[:])
}

func mixDown(f Frame) float64 {
	var sum float64
	for _, x := range f {
		sum += float64(x)
	}
	return sum / Channels
}

// renderImpulse feeds a unit impulse to every channel followed by silence and
// returns the mean of the output channels for each tick.
func renderImpulse(r *Reverb, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		var in Frame
		if i == 0 {
			in = fill(1)
		}
		out[i] = mixDown(r.Process(in))
	}
	return out
}

func windowRMS(x []float64, start, length int) float64 {
	start = max(start, 0)
	end := min(start+length, len(x))
	if end <= start {
		return 0
	}
	var sum float64
	for _, v := range x[start:end] {
		sum += v * v
	}
	return math.Sqrt(sum / float64(end-start))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
