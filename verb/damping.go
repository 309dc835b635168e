package verb

import "github.com/cwbudde/algo-verb/dsp"

const (
	defaultDampingCutoffHz = 2000.0
	minDampingCutoffHz     = 1.0
)

// DampingFilter is the per-line low-pass that models high-frequency loss on
// every round trip. A cutoff at or above Nyquist bypasses it entirely.
type DampingFilter struct {
	sampleRate float64
	cutoff     float64
	bypass     bool
	biquad     dsp.Biquad
}

// NewDampingFilter returns a filter at 44.1 kHz with a 2 kHz cutoff.
func NewDampingFilter() *DampingFilter {
	f := &DampingFilter{}
	f.init()
	return f
}

func (f *DampingFilter) init() {
	f.sampleRate = defaultSampleRate
	f.SetCutoff(defaultDampingCutoffHz)
}

// Configure fixes the sample rate used for coefficient computation and
// recomputes the coefficients for the current cutoff.
func (f *DampingFilter) Configure(sampleRate float64) {
	f.sampleRate = sampleRate
	if f.cutoff <= 0 {
		f.cutoff = defaultDampingCutoffHz
	}
	f.SetCutoff(f.cutoff)
	f.Reset()
}

// SetCutoff recomputes the coefficients for freqHz.
func (f *DampingFilter) SetCutoff(freqHz float64) {
	if !isFinite(freqHz) {
		return
	}
	if freqHz < minDampingCutoffHz {
		freqHz = minDampingCutoffHz
	}
	f.cutoff = freqHz
	f.bypass = freqHz >= 0.5*f.sampleRate
	if !f.bypass {
		f.biquad.SetLowpass(freqHz, f.sampleRate, dsp.ButterworthQ)
	}
}

// Cutoff returns the current cutoff in Hz.
func (f *DampingFilter) Cutoff() float64 { return f.cutoff }

// Process filters one sample.
func (f *DampingFilter) Process(x float32) float32 {
	if f.bypass {
		return x
	}
	return f.biquad.Process(x)
}

// Reset clears the filter history.
func (f *DampingFilter) Reset() {
	f.biquad.Reset()
}

// FlushDenormals zeroes subnormal filter state.
func (f *DampingFilter) FlushDenormals() {
	f.biquad.FlushDenormals()
}
