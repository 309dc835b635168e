package verb

import (
	"fmt"

	"github.com/cwbudde/algo-verb/dsp"
)

const (
	defaultSampleRate = 44100.0

	// MinRoomSizeMs and MaxRoomSizeMs bound the internal room scale; the
	// upper bound is what the smallest room-size knob value maps to.
	MinRoomSizeMs = 1.0
	MaxRoomSizeMs = roomSizeInversion - MinRoomSize

	// MaxDecayGain keeps the loop strictly lossy.
	MaxDecayGain = 0.9999

	delaySpreadOctaves = 1.5
	tapGuardSamples    = 100
	// Cubic interpolation looks two samples past the tap.
	lineHeadroom = 3

	defaultNetworkRoomSizeMs = 50.0
	defaultNetworkDecayGain  = 0.1
)

// FeedbackNetwork is the recirculating core: Channels delay lines whose
// outputs are mixed by a Householder reflection, attenuated by a shared decay
// gain, damped per line and written back.
type FeedbackNetwork struct {
	sampleRate float64
	roomSizeMs float64
	capacityMs float64
	decayGain  float32
	lpCutoff   float64
	modFreqHz  float64
	modAmp     int

	delays  [Channels]int
	lines   [Channels]dsp.DelayLine
	filters [Channels]DampingFilter
	mods    [Channels]TriangleModulator
}

// NewFeedbackNetwork returns a network configured for 44.1 kHz and a 50 ms room.
func NewFeedbackNetwork() *FeedbackNetwork {
	n := &FeedbackNetwork{
		roomSizeMs: defaultNetworkRoomSizeMs,
		decayGain:  defaultNetworkDecayGain,
		lpCutoff:   defaultDampingCutoffHz,
		modFreqHz:  1,
	}
	_ = n.Configure(defaultSampleRate, n.roomSizeMs)
	return n
}

// Configure sizes every line for the largest reachable room, derives the
// per-line delays for roomSizeMs and resets all state.
func (n *FeedbackNetwork) Configure(sampleRate, roomSizeMs float64) error {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("feedback network sample rate must be > 0: %f", sampleRate)
	}
	if !isFinite(roomSizeMs) || roomSizeMs <= 0 {
		return fmt.Errorf("feedback network room size must be > 0 ms: %f", roomSizeMs)
	}

	n.sampleRate = sampleRate
	n.roomSizeMs = max(roomSizeMs, MinRoomSizeMs)
	n.capacityMs = max(n.roomSizeMs, MaxRoomSizeMs)

	for i := range Channels {
		n.lines[i].Resize(n.delayFor(i, n.capacityMs) + lineHeadroom)
		n.filters[i].Configure(sampleRate)
		n.filters[i].SetCutoff(n.lpCutoff)
		n.mods[i].Configure(sampleRate)
	}
	n.SetModulatorFrequencies(n.modFreqHz)
	n.SetModulatorAmplitudes(n.modAmp)
	n.updateDelays()
	return nil
}

// delayFor spreads the lines over 1.5 octaves of delay: line i gets
// 2^(1.5·i/N) times the base room delay.
func (n *FeedbackNetwork) delayFor(i int, roomSizeMs float64) int {
	spread := float64(pow2Approx(delaySpreadOctaves * float32(i) / Channels))
	return max(int(spread*msToSamples(roomSizeMs, n.sampleRate)), 1)
}

func (n *FeedbackNetwork) updateDelays() {
	for i := range Channels {
		n.delays[i] = min(n.delayFor(i, n.roomSizeMs), n.lines[i].Len()-lineHeadroom)
	}
}

// SetRoomSizeMs rescales the nominal delays within the configured capacity.
func (n *FeedbackNetwork) SetRoomSizeMs(ms float64) {
	if !isFinite(ms) {
		return
	}
	n.roomSizeMs = clamp(ms, MinRoomSizeMs, max(n.capacityMs, MinRoomSizeMs))
	n.updateDelays()
}

// SetDecayGain sets the shared per-loop gain, clamped to [0, MaxDecayGain].
func (n *FeedbackNetwork) SetDecayGain(gain float64) {
	if !isFinite(gain) {
		return
	}
	n.decayGain = float32(clamp(gain, 0, MaxDecayGain))
}

// SetLPCutoff retunes every damping filter.
func (n *FeedbackNetwork) SetLPCutoff(freqHz float64) {
	if !isFinite(freqHz) {
		return
	}
	n.lpCutoff = freqHz
	for i := range n.filters {
		n.filters[i].SetCutoff(freqHz)
	}
}

// SetModulatorFrequencies gives line i a rate of freqHz+i Hz.
func (n *FeedbackNetwork) SetModulatorFrequencies(freqHz float64) {
	n.modFreqHz = freqHz
	for i := range n.mods {
		n.mods[i].SetFrequency(float64(i) + freqHz)
	}
}

// SetModulatorAmplitudes sets the tap excursion of every line in samples.
func (n *FeedbackNetwork) SetModulatorAmplitudes(samples int) {
	n.modAmp = max(samples, 0)
	for i := range n.mods {
		n.mods[i].SetAmplitude(n.modAmp)
	}
}

// Process advances the network by one sample and returns the mixed taps.
func (n *FeedbackNetwork) Process(input Frame) Frame {
	var mixed Frame
	for i := range Channels {
		nominal := n.delays[i]
		tap := nominal - n.mods[i].Next()
		if tap <= tapGuardSamples {
			// Too close to the write cursor: read the unmodulated tap.
			tap = nominal
		}
		// This tick is not written yet, so offset tap-1 is tap samples old.
		mixed[i] = n.lines[i].ReadFractional(float32(tap - 1))
	}

	Householder(mixed[:])

	g := n.decayGain
	for i := range Channels {
		sum := input[i] + g*mixed[i]
		n.lines[i].Write(dsp.FlushDenormals(n.filters[i].Process(sum)))
	}
	return mixed
}

// Reset clears lines, filters and modulators.
func (n *FeedbackNetwork) Reset() {
	for i := range Channels {
		n.lines[i].Reset()
		n.filters[i].Reset()
		n.mods[i].Reset()
	}
}

// FlushDenormals zeroes subnormal filter state.
func (n *FeedbackNetwork) FlushDenormals() {
	for i := range n.filters {
		n.filters[i].FlushDenormals()
	}
}

// DelayLengths returns the nominal delay of every line in samples.
func (n *FeedbackNetwork) DelayLengths() [Channels]int { return n.delays }

// MaxDelay returns the longest nominal delay in samples.
func (n *FeedbackNetwork) MaxDelay() int {
	longest := 0
	for _, d := range n.delays {
		longest = max(longest, d)
	}
	return longest
}

// DecayGain returns the effective per-loop gain.
func (n *FeedbackNetwork) DecayGain() float64 { return float64(n.decayGain) }

// RoomSizeMs returns the current base delay in milliseconds.
func (n *FeedbackNetwork) RoomSizeMs() float64 { return n.roomSizeMs }

// LPCutoff returns the damping cutoff in Hz.
func (n *FeedbackNetwork) LPCutoff() float64 { return n.lpCutoff }
