package verb

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// The loop-time model ignores the extra loss added by the diffuser and
	// the damping filters; this exponent compensates empirically.
	decayCorrection = 0.8
	loopsPerRoom    = 2.5
	decayTargetDB   = -60.0

	minSampleRate = 1000.0
	maxTailSecs   = 60.0
)

// Reverb composes a Diffuser and a FeedbackNetwork and blends the result with
// the dry signal. Setters may be called between Process calls but never
// concurrently with them.
type Reverb struct {
	diffuser *Diffuser
	fdn      *FeedbackNetwork

	dry        float32
	wet        float32
	roomSizeMs float64
	rt60       float64
	lpCutoff   float64
	seed       int64
	sampleRate float64
}

// NewReverb builds a reverb from params (nil uses defaults) and configures it
// for 44.1 kHz. Call Configure with the real sample rate before processing.
func NewReverb(params *Params) *Reverb {
	if params == nil {
		params = NewDefaultParams()
	}
	r := &Reverb{
		diffuser:   NewDiffuser(defaultNetworkRoomSizeMs),
		fdn:        NewFeedbackNetwork(),
		roomSizeMs: defaultNetworkRoomSizeMs,
		rt60:       params.RT60Seconds(),
		seed:       params.Seed,
	}
	r.ApplyParams(params)
	_ = r.Configure(defaultSampleRate)
	return r
}

// ApplyParams pushes every host parameter through the scalar setters.
func (r *Reverb) ApplyParams(p *Params) {
	if p == nil {
		return
	}
	r.SetDry(p.Dry)
	r.SetWet(p.Wet)
	r.SetRoomSize(p.RoomSize)
	r.SetRT60(p.RT60Seconds())
	r.SetLPCutoff(p.LPCutoff)
	if p.ModulationEnabled {
		r.SetDelayModulation(p.ModFreq, int(p.ModAmp))
	} else {
		r.SetDelayModulation(p.ModFreq, 0)
	}
}

// Configure sizes all delay lines for sampleRate, re-draws the diffuser from
// the seed and clears all state. It must complete before the next Process.
func (r *Reverb) Configure(sampleRate float64) error {
	if !isFinite(sampleRate) || sampleRate < minSampleRate {
		return fmt.Errorf("reverb sample rate must be >= %g: %f", minSampleRate, sampleRate)
	}

	r.sampleRate = sampleRate
	r.diffuser.Configure(sampleRate, MaxRoomSizeMs, rand.New(rand.NewSource(r.seed)))
	if err := r.fdn.Configure(sampleRate, r.roomSizeMs); err != nil {
		return err
	}
	r.fdn.SetLPCutoff(r.lpCutoff)
	r.updateParams()
	return nil
}

// Process renders one tick: dry·input + wet·fdn(diffuser(input)).
func (r *Reverb) Process(input Frame) Frame {
	tail := r.fdn.Process(r.diffuser.Process(input))

	var out Frame
	for i := range Channels {
		out[i] = r.dry*input[i] + r.wet*tail[i]
	}
	return out
}

// SetDry sets the input gain.
func (r *Reverb) SetDry(amount float32) { r.dry = amount }

// SetWet sets the tail gain.
func (r *Reverb) SetWet(amount float32) { r.wet = amount }

// SetRoomSize maps the room-size knob to a base delay of 101-size ms, so
// larger knob values give a smaller room.
func (r *Reverb) SetRoomSize(size float64) {
	if !isFinite(size) {
		return
	}
	r.SetRoomSizeMs(roomSizeInversion - size)
}

// SetRoomSizeMs sets the base delay directly, clamped to
// [MinRoomSizeMs, MaxRoomSizeMs].
func (r *Reverb) SetRoomSizeMs(ms float64) {
	if !isFinite(ms) {
		return
	}
	r.roomSizeMs = clamp(ms, MinRoomSizeMs, MaxRoomSizeMs)
	r.updateParams()
}

// SetRT60 sets the target reverberation time in seconds.
func (r *Reverb) SetRT60(seconds float64) {
	if !isFinite(seconds) || seconds < 0 {
		return
	}
	r.rt60 = seconds
	r.updateParams()
}

// SetLPCutoff retunes the damping filters; repeated values are ignored.
func (r *Reverb) SetLPCutoff(freqHz float64) {
	if !isFinite(freqHz) || freqHz == r.lpCutoff {
		return
	}
	r.fdn.SetLPCutoff(freqHz)
	r.lpCutoff = freqHz
}

// SetDelayModulation sets the tap modulation rate and depth of the network.
// An amplitude of zero disables modulation.
func (r *Reverb) SetDelayModulation(freqHz float64, amplitude int) {
	r.fdn.SetModulatorFrequencies(freqHz)
	r.fdn.SetModulatorAmplitudes(amplitude)
}

func (r *Reverb) updateParams() {
	r.diffuser.SetDiffusionMs(r.roomSizeMs)
	r.fdn.SetRoomSizeMs(r.roomSizeMs)
	r.fdn.SetDecayGain(DecayGainForRT60(r.roomSizeMs, r.rt60))
}

// DecayGainForRT60 estimates the per-loop gain that yields rt60 seconds of
// decay for a room of roomSizeMs. The result is not clamped.
func DecayGainForRT60(roomSizeMs, rt60 float64) float64 {
	// How long does the signal take to go around the loop?
	typicalLoopMs := roomSizeMs * loopsPerRoom
	// How many times does it do that during the RT60 period?
	loopsPerRT60 := (rt60 / 2) / (typicalLoopMs * 0.001)
	dbPerCycle := decayTargetDB / loopsPerRT60
	return math.Pow(10, dbPerCycle*decayCorrection)
}

// Reset clears all signal state without re-drawing the diffuser.
func (r *Reverb) Reset() {
	r.diffuser.Reset()
	r.fdn.Reset()
}

// FlushDenormals zeroes subnormal filter state; call at block boundaries.
func (r *Reverb) FlushDenormals() {
	r.fdn.FlushDenormals()
}

// TailSeconds estimates how long the output keeps ringing after the input
// stops, from the effective decay gain and the mean loop delay.
func (r *Reverb) TailSeconds() float64 {
	if r.sampleRate <= 0 {
		return 0
	}
	latency := float64(r.diffuser.Latency())
	delays := r.fdn.DelayLengths()
	var mean float64
	for _, d := range delays {
		mean += float64(d)
	}
	mean /= Channels

	g := r.fdn.DecayGain()
	if g <= 0 {
		return (latency + float64(r.fdn.MaxDelay())) / r.sampleRate
	}
	loops := decayTargetDB / (20 * math.Log10(g))
	return min((latency+loops*mean)/r.sampleRate, maxTailSecs)
}

// SampleRate returns the configured sample rate.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }

// Dry returns the input gain.
func (r *Reverb) Dry() float32 { return r.dry }

// Wet returns the tail gain.
func (r *Reverb) Wet() float32 { return r.wet }

// RoomSizeMs returns the internal base delay in ms.
func (r *Reverb) RoomSizeMs() float64 { return r.roomSizeMs }

// RT60 returns the target reverberation time in seconds.
func (r *Reverb) RT60() float64 { return r.rt60 }

// LPCutoff returns the damping cutoff in Hz.
func (r *Reverb) LPCutoff() float64 { return r.lpCutoff }

// DecayGain returns the effective per-loop gain of the network.
func (r *Reverb) DecayGain() float64 { return r.fdn.DecayGain() }

// Diffuser exposes the diffusion network.
func (r *Reverb) Diffuser() *Diffuser { return r.diffuser }

// Network exposes the feedback network.
func (r *Reverb) Network() *FeedbackNetwork { return r.fdn }
