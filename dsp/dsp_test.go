package dsp

import (
	"math"
	"testing"
)

func TestDelayLineIntegerRoundTrip(t *testing.T) {
	d := NewDelayLine(64)
	for k := 0; k < d.Len(); k++ {
		d.Reset()
		d.Write(0.75)
		for i := 0; i < k; i++ {
			d.Write(float32(i+1) * 0.001)
		}
		if got := d.Read(k); got != 0.75 {
			t.Fatalf("Read(%d) = %f, want 0.75", k, got)
		}
	}
}

func TestDelayLineFractionalReadIsExactOnIntegers(t *testing.T) {
	d := NewDelayLine(32)
	for i := 0; i < 40; i++ {
		d.Write(float32(math.Sin(float64(i) * 0.37)))
	}
	for k := 0; k < 28; k++ {
		if got, want := d.ReadFractional(float32(k)), d.Read(k); got != want {
			t.Fatalf("ReadFractional(%d) = %f, want %f", k, got, want)
		}
	}
}

func TestDelayLineFractionalReadInterpolatesRamp(t *testing.T) {
	d := NewDelayLine(32)
	// Offset k holds value k after this loop.
	for i := 31; i >= 0; i-- {
		d.Write(float32(i))
	}
	for _, delay := range []float32{2.25, 5.5, 10.75} {
		got := d.ReadFractional(delay)
		if math.Abs(float64(got-delay)) > 1e-4 {
			t.Fatalf("ReadFractional(%f) = %f on a ramp", delay, got)
		}
	}
}

func TestLagrange3ReproducesCubics(t *testing.T) {
	poly := func(x float32) float32 { return 0.5*x*x*x - 2*x*x + x + 3 }
	// Points sit at x = -1, 0, 1, 2; frac interpolates between 0 and 1.
	samples := [4]float32{poly(-1), poly(0), poly(1), poly(2)}
	for _, frac := range []float32{0, 0.2, 0.5, 0.9} {
		got, want := lagrange3(samples, frac), poly(frac)
		if math.Abs(float64(got-want)) > 1e-5 {
			t.Fatalf("lagrange3(%f) = %f, want %f", frac, got, want)
		}
	}
}

func TestDelayLineResizeClears(t *testing.T) {
	d := NewDelayLine(8)
	d.Write(1)
	d.Resize(16)
	if d.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", d.Len())
	}
	for k := 0; k < d.Len(); k++ {
		if d.Read(k) != 0 {
			t.Fatalf("expected cleared line after resize, offset %d = %f", k, d.Read(k))
		}
	}
}

func TestLowpassPassesDCAndAttenuatesNyquist(t *testing.T) {
	const sampleRate = 48000
	lp := NewLowpass(1000, sampleRate, ButterworthQ)

	var dc float32
	for i := 0; i < 4000; i++ {
		dc = lp.Process(1)
	}
	if math.Abs(float64(dc-1)) > 1e-3 {
		t.Fatalf("expected unity DC gain, got %f", dc)
	}

	lp.Reset()
	var peak float32
	for i := 0; i < 4000; i++ {
		x := float32(1)
		if i%2 == 1 {
			x = -1
		}
		y := lp.Process(x)
		if i > 2000 && float32(math.Abs(float64(y))) > peak {
			peak = float32(math.Abs(float64(y)))
		}
	}
	if peak > 1e-3 {
		t.Fatalf("expected Nyquist to be removed, peak=%g", peak)
	}
}

func TestBiquadSetLowpassMatchesConstructor(t *testing.T) {
	a := NewLowpass(2500, 44100, ButterworthQ)
	var b Biquad
	b.SetLowpass(2500, 44100, ButterworthQ)
	for i := 0; i < 64; i++ {
		x := float32(math.Cos(float64(i) * 0.9))
		if ya, yb := a.Process(x), b.Process(x); math.Abs(float64(ya-yb)) > 1e-6 {
			t.Fatalf("sample %d: constructor=%f in-place=%f", i, ya, yb)
		}
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatalf("expected tiny value to flush to zero")
	}
	if FlushDenormals(-0.5) != -0.5 {
		t.Fatalf("expected normal value to pass through")
	}
}
