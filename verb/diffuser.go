package verb

import (
	"math/rand"

	"github.com/cwbudde/algo-verb/dsp"
)

// DiffusionStage delays each channel by a fixed random amount inside its own
// slice of the stage range, mixes with a Hadamard butterfly and inverts a
// random subset of channels.
type DiffusionStage struct {
	sampleRate float64
	rangeMs    float64
	capacityMs float64

	// Draws in [0,1) locating each delay inside its channel's sub-range.
	positions [Channels]float64
	delays    [Channels]int
	flip      [Channels]bool
	lines     [Channels]dsp.DelayLine
}

// Configure draws the per-channel delay positions and polarity flips from
// rng and sizes the lines for ranges up to maxRangeMs.
func (s *DiffusionStage) Configure(sampleRate, maxRangeMs float64, rng *rand.Rand) {
	s.sampleRate = sampleRate
	s.capacityMs = max(maxRangeMs, s.rangeMs, 0)
	capacity := msToSamples(s.capacityMs, sampleRate)
	for i := range Channels {
		s.positions[i] = rng.Float64()
		s.flip[i] = rng.Intn(2) == 1
		s.lines[i].Resize(s.delayFor(i, capacity) + 1)
	}
	s.updateDelays()
}

// SetRangeMs sets the total spread of the stage. The random draws made at
// configuration are kept and rescaled into the new range.
func (s *DiffusionStage) SetRangeMs(ms float64) {
	if !isFinite(ms) || ms < 0 {
		return
	}
	s.rangeMs = ms
	if s.sampleRate > 0 {
		s.updateDelays()
	}
}

// delayFor picks the delay of channel i from [range·i/N, range·(i+1)/N).
func (s *DiffusionStage) delayFor(i int, rangeSamples float64) int {
	lo := int(rangeSamples * float64(i) / Channels)
	hi := int(rangeSamples * float64(i+1) / Channels)
	if hi <= lo {
		return lo
	}
	return lo + int(s.positions[i]*float64(hi-lo))
}

func (s *DiffusionStage) updateDelays() {
	rangeSamples := msToSamples(min(s.rangeMs, s.capacityMs), s.sampleRate)
	for i := range Channels {
		s.delays[i] = min(s.delayFor(i, rangeSamples), s.lines[i].Len()-1)
	}
}

// Process runs one sample through the stage.
func (s *DiffusionStage) Process(input Frame) Frame {
	var out Frame
	for i := range Channels {
		s.lines[i].Write(input[i])
		out[i] = s.lines[i].Read(s.delays[i])
	}

	Hadamard(out[:])

	for i := range Channels {
		if s.flip[i] {
			out[i] = -out[i]
		}
	}
	return out
}

// Reset clears the delay lines; the random draws are kept.
func (s *DiffusionStage) Reset() {
	for i := range s.lines {
		s.lines[i].Reset()
	}
}

// Delays returns the per-channel delays in samples.
func (s *DiffusionStage) Delays() [Channels]int { return s.delays }

// Polarities reports which channels are inverted.
func (s *DiffusionStage) Polarities() [Channels]bool { return s.flip }

// MaxDelay returns the longest channel delay in samples.
func (s *DiffusionStage) MaxDelay() int {
	longest := 0
	for _, d := range s.delays {
		longest = max(longest, d)
	}
	return longest
}

// Diffuser chains DiffusionSteps stages, each spanning half the range of the
// one before, so a transient leaves it as a dense cluster of small echoes.
type Diffuser struct {
	diffusionMs float64
	stages      [DiffusionSteps]DiffusionStage
}

// NewDiffuser returns a diffuser spanning diffusionMs, configured for 44.1 kHz
// with a fixed seed.
func NewDiffuser(diffusionMs float64) *Diffuser {
	d := &Diffuser{}
	d.SetDiffusionMs(diffusionMs)
	d.Configure(defaultSampleRate, diffusionMs, rand.New(rand.NewSource(1)))
	return d
}

// SetDiffusionMs sets the total range; stage k spans diffusionMs/2^(k+1).
func (d *Diffuser) SetDiffusionMs(ms float64) {
	if !isFinite(ms) || ms < 0 {
		return
	}
	d.diffusionMs = ms
	for i := range d.stages {
		ms *= 0.5
		d.stages[i].SetRangeMs(ms)
	}
}

// Configure re-draws every stage from rng, sizing lines for a total range
// of up to maxDiffusionMs.
func (d *Diffuser) Configure(sampleRate, maxDiffusionMs float64, rng *rand.Rand) {
	ms := max(maxDiffusionMs, d.diffusionMs)
	for i := range d.stages {
		ms *= 0.5
		d.stages[i].Configure(sampleRate, ms, rng)
	}
}

// Process runs one sample through all stages.
func (d *Diffuser) Process(input Frame) Frame {
	for i := range d.stages {
		input = d.stages[i].Process(input)
	}
	return input
}

// Reset clears every stage.
func (d *Diffuser) Reset() {
	for i := range d.stages {
		d.stages[i].Reset()
	}
}

// Latency returns the longest path through the diffuser in samples.
func (d *Diffuser) Latency() int {
	total := 0
	for i := range d.stages {
		total += d.stages[i].MaxDelay()
	}
	return total
}

// Delays returns the delay table of every stage.
func (d *Diffuser) Delays() [DiffusionSteps][Channels]int {
	var out [DiffusionSteps][Channels]int
	for i := range d.stages {
		out[i] = d.stages[i].Delays()
	}
	return out
}

// Polarities returns the polarity table of every stage.
func (d *Diffuser) Polarities() [DiffusionSteps][Channels]bool {
	var out [DiffusionSteps][Channels]bool
	for i := range d.stages {
		out[i] = d.stages[i].Polarities()
	}
	return out
}
