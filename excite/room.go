package excite

import (
	"fmt"
	"math"
	"math/rand"
)

// RoomConfig controls synthetic room impulse responses: a handful of early
// reflections over an exponentially decaying, low-passed noise tail.
type RoomConfig struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	PreDelayS  float64 // Gap before the first reflection
	EarlyCount int
	LateLevel  float64
	RT60       float64 // Seconds for the tail to fall 60 dB
	CutoffHz   float64 // One-pole low-pass on the tail

	FadeOutS      float64 // Cosine fade-out at the end; 0 = no fade
	NormalizePeak float64
}

// DefaultRoomConfig returns a medium room at 48 kHz.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SampleRate:    48000,
		DurationS:     2.0,
		Seed:          1,
		PreDelayS:     0.005,
		EarlyCount:    12,
		LateLevel:     0.3,
		RT60:          1.0,
		CutoffHz:      6000,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.PreDelayS < 0 || c.PreDelayS >= c.DurationS {
		return fmt.Errorf("pre-delay must be in [0, duration)")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.RT60 <= 0 {
		return fmt.Errorf("rt60 must be > 0")
	}
	if c.CutoffHz <= 0 {
		return fmt.Errorf("cutoff must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateRoom synthesizes a mono room impulse response.
func GenerateRoom(cfg RoomConfig) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := max(int(math.Round(cfg.DurationS*float64(cfg.SampleRate))), 1)
	buf := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))
	sr := float64(cfg.SampleRate)
	start := int(cfg.PreDelayS * sr)
	// Amplitude decay rate giving 60 dB over RT60.
	k := math.Log(1000) / cfg.RT60

	// Early reflections within 50 ms of the onset.
	buf[start] += 1
	for i := 0; i < cfg.EarlyCount; i++ {
		t := 0.001 + 0.049*rng.Float64()
		idx := start + int(t*sr)
		if idx >= n {
			continue
		}
		sign := 1.0
		if rng.Intn(2) == 1 {
			sign = -1
		}
		buf[idx] += sign * (0.1 + 0.4*rng.Float64()) * math.Exp(-k*t)
	}

	if cfg.LateLevel > 0 {
		a := 1 - math.Exp(-2*math.Pi*math.Min(cfg.CutoffHz, 0.45*sr)/sr)
		var lp float64
		for i := start; i < n; i++ {
			t := float64(i-start) / sr
			lp += a * (rng.NormFloat64() - lp)
			buf[i] += cfg.LateLevel * lp * math.Exp(-k*t)
		}
	}

	applyFadeOut(buf, cfg.FadeOutS, cfg.SampleRate)

	peak := maxAbs(buf)
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	out := make([]float32, n)
	for i, v := range buf {
		out[i] = float32(v * s)
	}
	return out, nil
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// applyFadeOut applies a cosine fade-out to the last fadeS seconds of buf.
func applyFadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fadeSamples := min(int(math.Round(fadeS*float64(sampleRate))), len(buf))
	start := len(buf) - fadeSamples
	for i := 0; i < fadeSamples; i++ {
		t := float64(i) / float64(fadeSamples)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}
