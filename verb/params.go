package verb

import "fmt"

// Host parameter ranges.
const (
	MinRoomSize = 25.0
	MaxRoomSize = 100.0

	MinDecay = 0.0
	MaxDecay = 6.0

	MinLPCutoff = 100.0
	MaxLPCutoff = 18000.0

	MaxModFreq = 7.0
	MaxModAmp  = 7000.0

	// roomSizeMs = roomSizeInversion - roomSize
	roomSizeInversion = 101.0

	// rt60 = decay*rt60PerDecay + minRT60Seconds
	rt60PerDecay   = 0.5
	minRT60Seconds = 3.0
)

// Params holds the host-facing parameter surface.
type Params struct {
	Dry float32 // Gain applied to the input
	Wet float32 // Gain applied to the reverb tail

	RoomSize float64 // Knob in [25,100]; larger values give a smaller room
	Decay    float64 // Knob in [0,6]; maps to an RT60 of 3..6 s
	LPCutoff float64 // Damping cutoff in Hz

	ModulationEnabled bool
	ModFreq           float64 // Base tap modulation rate in Hz
	ModAmp            float64 // Tap modulation depth in samples

	// Seed for the diffuser's random delay and polarity draws.
	Seed int64
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		Dry:               0.0,
		Wet:               1.0,
		RoomSize:          95.0,
		Decay:             6.0,
		LPCutoff:          6000.0,
		ModulationEnabled: false,
		ModFreq:           1.0,
		ModAmp:            500.0,
		Seed:              1,
	}
}

// Validate checks every field against its host range.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if p.Dry < 0 || p.Dry > 1 || !isFinite(float64(p.Dry)) {
		return fmt.Errorf("dry must be in [0,1]: %f", p.Dry)
	}
	if p.Wet < 0 || p.Wet > 1 || !isFinite(float64(p.Wet)) {
		return fmt.Errorf("wet must be in [0,1]: %f", p.Wet)
	}
	if !inRange(p.RoomSize, MinRoomSize, MaxRoomSize) {
		return fmt.Errorf("room size must be in [%g,%g]: %f", MinRoomSize, MaxRoomSize, p.RoomSize)
	}
	if !inRange(p.Decay, MinDecay, MaxDecay) {
		return fmt.Errorf("decay must be in [%g,%g]: %f", MinDecay, MaxDecay, p.Decay)
	}
	if !inRange(p.LPCutoff, MinLPCutoff, MaxLPCutoff) {
		return fmt.Errorf("lp cutoff must be in [%g,%g] Hz: %f", MinLPCutoff, MaxLPCutoff, p.LPCutoff)
	}
	if !inRange(p.ModFreq, 0, MaxModFreq) {
		return fmt.Errorf("mod freq must be in [0,%g]: %f", MaxModFreq, p.ModFreq)
	}
	if !inRange(p.ModAmp, 0, MaxModAmp) {
		return fmt.Errorf("mod amp must be in [0,%g] samples: %f", MaxModAmp, p.ModAmp)
	}
	return nil
}

// RoomSizeMs maps the room-size knob onto the internal base delay.
func (p *Params) RoomSizeMs() float64 {
	return roomSizeInversion - p.RoomSize
}

// RT60Seconds maps the decay knob onto a reverberation time.
func (p *Params) RT60Seconds() float64 {
	return p.Decay*rt60PerDecay + minRT60Seconds
}

func inRange(v, lo, hi float64) bool {
	return isFinite(v) && v >= lo && v <= hi
}
