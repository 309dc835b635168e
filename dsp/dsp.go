package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// ButterworthQ is the quality factor of a maximally flat second-order section.
const ButterworthQ = 0.7071

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	b := &Biquad{}
	b.SetCoefficients(b0, b1, b2, a1, a2)
	return b
}

// SetCoefficients replaces the normalized coefficients and keeps the state.
func (b *Biquad) SetCoefficients(b0, b1, b2, a1, a2 float32) {
	b.b0, b.b1, b.b2 = b0, b1, b2
	b.a1, b.a2 = a1, a2
}

// SetLowpass recomputes the coefficients for an RBJ lowpass in place.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float64) {
	b.SetCoefficients(lowpassCoefficients(cutoff, sampleRate, q))
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// FlushDenormals zeroes state values that decayed into the subnormal range.
func (b *Biquad) FlushDenormals() {
	b.x1 = float32(dspcore.FlushDenormals(float64(b.x1)))
	b.x2 = float32(dspcore.FlushDenormals(float64(b.x2)))
	b.y1 = float32(dspcore.FlushDenormals(float64(b.y1)))
	b.y2 = float32(dspcore.FlushDenormals(float64(b.y2)))
}

// NewLowpass creates a simple lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	return NewBiquad(lowpassCoefficients(float64(cutoff), float64(sampleRate), float64(q)))
}

func lowpassCoefficients(cutoff, sampleRate, q float64) (b0, b1, b2, a1, a2 float32) {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	a0 := 1.0 + alpha
	return float32((1.0 - cosw0) / 2.0 / a0),
		float32((1.0 - cosw0) / a0),
		float32((1.0 - cosw0) / 2.0 / a0),
		float32(-2.0 * cosw0 / a0),
		float32((1.0 - alpha) / a0)
}

// DelayLine implements a circular buffer for delay.
//
// Read offsets count back from the most recent write: offset 0 returns the
// sample written last, offset k the sample written k writes before it.
type DelayLine struct {
	buffer   []float32
	writePos int
}

// NewDelayLine creates a new delay line with the given size
func NewDelayLine(size int) *DelayLine {
	d := &DelayLine{}
	d.Resize(size)
	return d
}

// Resize reallocates the buffer for size samples and clears it. Not real-time safe.
func (d *DelayLine) Resize(size int) {
	if size < 1 {
		size = 1
	}
	if size != len(d.buffer) {
		d.buffer = make([]float32, size)
	}
	d.Reset()
}

// Len returns the buffer capacity in samples.
func (d *DelayLine) Len() int {
	return len(d.buffer)
}

// Write writes a sample to the delay line
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads the sample written delay writes ago. Offsets outside
// [0, Len()) are clamped.
func (d *DelayLine) Read(delay int) float32 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	if delay >= size {
		delay = size - 1
	}
	readPos := d.writePos - 1 - delay
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using cubic Lagrange interpolation.
// Integer offsets return the stored sample exactly.
func (d *DelayLine) ReadFractional(delay float32) float32 {
	if delay < 0 {
		delay = 0
	}
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	var samples [4]float32
	samples[0] = d.Read(max(intDelay-1, 0))
	samples[1] = d.Read(intDelay)
	samples[2] = d.Read(intDelay + 1)
	samples[3] = d.Read(intDelay + 2)
	return lagrange3(samples, frac)
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// lagrange3 interpolates between samples[1] and samples[2] with a cubic
// through all four points. frac is in [0, 1).
func lagrange3(samples [4]float32, frac float32) float32 {
	c0 := samples[1]
	if frac == 0 {
		return c0
	}
	c1 := samples[2] - samples[0]/3.0 - samples[1]/2.0 - samples[3]/6.0
	c2 := samples[0]/2.0 - samples[1] + samples[2]/2.0
	c3 := samples[1]/2.0 - samples[2]/2.0 + (samples[3]-samples[0])/6.0
	return c0 + frac*(c1+frac*(c2+frac*c3))
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
