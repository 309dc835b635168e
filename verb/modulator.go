package verb

// maxModPeriod bounds the half period so the phase and amplitude arithmetic
// stays inside int64.
const maxModPeriod = 1 << 30

// TriangleModulator is an integer triangle oscillator used to pull a delay
// tap towards the write cursor. Next returns values in [0, amplitude]
// tracing a triangle of period sampleRate/frequency samples.
type TriangleModulator struct {
	sampleRate float64
	freqHz     float64
	period     int64
	amplitude  int64
	counter    int64
}

// Configure sets the sample rate, restarts the wave and re-derives the period.
func (m *TriangleModulator) Configure(sampleRate float64) {
	m.sampleRate = sampleRate
	m.counter = 0
	freq := m.freqHz
	if freq <= 0 {
		freq = 1
	}
	m.SetFrequency(freq)
}

// SetFrequency sets the modulation rate. Rates are clamped between
// sampleRate/maxModPeriod and a quarter of the sample rate; non-positive
// rates stop the modulation.
func (m *TriangleModulator) SetFrequency(freqHz float64) {
	if !isFinite(freqHz) || freqHz <= 0 || m.sampleRate <= 0 {
		m.freqHz = 0
		m.period = 0
		return
	}
	freqHz = clamp(freqHz, m.sampleRate/maxModPeriod, 0.25*m.sampleRate)
	m.freqHz = freqHz
	m.period = min(max(int64(m.sampleRate/freqHz), 1), maxModPeriod)
	if m.counter >= 2*m.period {
		m.counter %= 2 * m.period
	}
}

// SetAmplitude sets the peak excursion in samples.
func (m *TriangleModulator) SetAmplitude(samples int) {
	m.amplitude = int64(min(max(samples, 0), maxModPeriod))
}

// Frequency returns the effective rate in Hz (0 when stopped).
func (m *TriangleModulator) Frequency() float64 { return m.freqHz }

// Amplitude returns the peak excursion in samples.
func (m *TriangleModulator) Amplitude() int { return int(m.amplitude) }

// Period returns the triangle period in samples (0 when stopped).
func (m *TriangleModulator) Period() int { return int(m.period) }

// Next returns the current offset and advances one sample.
func (m *TriangleModulator) Next() int {
	if m.period == 0 || m.amplitude == 0 {
		return 0
	}
	phase := m.counter
	m.counter++
	if m.counter >= 2*m.period {
		m.counter = 0
	}

	dist := phase - m.period
	if dist < 0 {
		dist = -dist
	}
	return int(m.amplitude * (m.period - dist) / m.period)
}

// Reset restarts the wave at zero.
func (m *TriangleModulator) Reset() {
	m.counter = 0
}
