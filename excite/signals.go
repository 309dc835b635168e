// Package excite generates deterministic test signals for driving and
// measuring the reverb.
package excite

import (
	"fmt"
	"math"
	"math/rand"
)

// Kind names a test signal.
type Kind string

const (
	KindImpulse Kind = "impulse"
	KindNoise   Kind = "noise"
	KindSine    Kind = "sine"
)

// Signal describes a test signal of Length samples whose non-zero part lasts
// Burst samples.
type Signal struct {
	Kind       Kind
	SampleRate int
	Length     int
	Burst      int
	Amplitude  float64
	FreqHz     float64 // Sine only
	Seed       int64   // Noise only
}

// DefaultSignal returns a unit impulse followed by one second of silence.
func DefaultSignal(sampleRate int) Signal {
	return Signal{
		Kind:       KindImpulse,
		SampleRate: sampleRate,
		Length:     sampleRate + 1,
		Burst:      1,
		Amplitude:  1,
		FreqHz:     1000,
		Seed:       1,
	}
}

func (s *Signal) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %d", s.SampleRate)
	}
	if s.Length < 1 {
		return fmt.Errorf("length must be >= 1")
	}
	if s.Burst < 1 || s.Burst > s.Length {
		return fmt.Errorf("burst must be in [1,%d]: %d", s.Length, s.Burst)
	}
	if s.Amplitude < 0 || math.IsNaN(s.Amplitude) {
		return fmt.Errorf("amplitude must be >= 0")
	}
	switch s.Kind {
	case KindImpulse, KindNoise:
	case KindSine:
		if s.FreqHz <= 0 || s.FreqHz >= 0.5*float64(s.SampleRate) {
			return fmt.Errorf("sine frequency must be in (0, Nyquist): %f", s.FreqHz)
		}
	default:
		return fmt.Errorf("unknown signal kind %q", s.Kind)
	}
	return nil
}

// Generate renders s.
func Generate(s Signal) ([]float32, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch s.Kind {
	case KindNoise:
		return NoiseBurst(s.Length, s.Burst, s.Amplitude, s.Seed), nil
	case KindSine:
		return SineBurst(s.Length, s.Burst, s.Amplitude, s.FreqHz, s.SampleRate), nil
	default:
		return Impulse(s.Length, s.Amplitude), nil
	}
}

// Impulse returns n samples with amp at index 0.
func Impulse(n int, amp float64) []float32 {
	out := make([]float32, max(n, 1))
	out[0] = float32(amp)
	return out
}

// NoiseBurst returns burst samples of seeded uniform noise in [-amp, amp]
// followed by silence up to n samples.
func NoiseBurst(n, burst int, amp float64, seed int64) []float32 {
	out := make([]float32, max(n, 1))
	rng := rand.New(rand.NewSource(seed))
	for i := range min(burst, len(out)) {
		out[i] = float32(amp * (rng.Float64()*2 - 1))
	}
	return out
}

// SineBurst returns burst samples of a sine at freqHz followed by silence.
func SineBurst(n, burst int, amp, freqHz float64, sampleRate int) []float32 {
	out := make([]float32, max(n, 1))
	burst = min(burst, len(out))
	if burst == 0 || sampleRate <= 0 {
		return out
	}

	// Recursive oscillator: x[i] = 2cos(w)x[i-1] - x[i-2].
	w := 2.0 * math.Pi * freqHz / float64(sampleRate)
	cw := math.Cos(w)
	x0 := 0.0
	x1 := math.Sin(w)
	out[0] = 0
	if burst > 1 {
		out[1] = float32(amp * x1)
	}
	for i := 2; i < burst; i++ {
		x2 := 2.0*cw*x1 - x0
		x0 = x1
		x1 = x2
		out[i] = float32(amp * x2)
	}
	return out
}
