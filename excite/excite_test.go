package excite

import (
	"math"
	"testing"
)

func TestImpulse(t *testing.T) {
	x := Impulse(16, 0.5)
	if len(x) != 16 || x[0] != 0.5 {
		t.Fatalf("unexpected impulse head: len=%d x0=%f", len(x), x[0])
	}
	for i := 1; i < len(x); i++ {
		if x[i] != 0 {
			t.Fatalf("sample %d = %f, want 0", i, x[i])
		}
	}
	if len(Impulse(0, 1)) != 1 {
		t.Fatalf("impulse should hold at least one sample")
	}
}

func TestNoiseBurstDeterministicAndBounded(t *testing.T) {
	a := NoiseBurst(2000, 1000, 0.8, 9)
	b := NoiseBurst(2000, 1000, 0.8, 9)
	c := NoiseBurst(2000, 1000, 0.8, 10)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
		if math.Abs(float64(a[i])) > 0.8 {
			t.Fatalf("sample %d out of range: %f", i, a[i])
		}
		if i >= 1000 && a[i] != 0 {
			t.Fatalf("expected silence after burst, sample %d = %f", i, a[i])
		}
	}
	if same {
		t.Fatalf("different seeds produced identical bursts")
	}
}

func TestSineBurstMatchesDirectEvaluation(t *testing.T) {
	const sr = 48000
	x := SineBurst(1000, 800, 0.5, 440, sr)
	for i := 0; i < 800; i++ {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
		if math.Abs(float64(x[i])-want) > 1e-5 {
			t.Fatalf("sample %d = %f, want %f", i, x[i], want)
		}
	}
	for i := 800; i < len(x); i++ {
		if x[i] != 0 {
			t.Fatalf("expected silence after burst at %d", i)
		}
	}
}

func TestGenerateValidates(t *testing.T) {
	s := DefaultSignal(48000)
	x, err := Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(x) != 48001 || x[0] != 1 {
		t.Fatalf("unexpected default signal")
	}

	s.Kind = KindSine
	s.FreqHz = 30000
	if _, err := Generate(s); err == nil {
		t.Fatalf("expected error for sine above Nyquist")
	}
	s.Kind = "chirp"
	if _, err := Generate(s); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	s = DefaultSignal(48000)
	s.Burst = s.Length + 1
	if _, err := Generate(s); err == nil {
		t.Fatalf("expected error for burst longer than signal")
	}
}

func TestGenerateRoomShape(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.DurationS = 1.5
	cfg.RT60 = 0.5
	x, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("GenerateRoom: %v", err)
	}
	if len(x) != int(1.5*48000) {
		t.Fatalf("unexpected length %d", len(x))
	}

	start := int(cfg.PreDelayS * 48000)
	for i := 0; i < start; i++ {
		if x[i] != 0 {
			t.Fatalf("expected silence before pre-delay at %d", i)
		}
	}

	peak := 0.0
	for _, v := range x {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite sample")
		}
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if math.Abs(peak-0.9) > 1e-6 {
		t.Fatalf("peak = %f, want 0.9", peak)
	}

	rms := func(lo, hi int) float64 {
		var sum float64
		for _, v := range x[lo:hi] {
			sum += float64(v) * float64(v)
		}
		return math.Sqrt(sum / float64(hi-lo))
	}
	early := rms(start+2400, start+7200)
	late := rms(start+24000, start+28800)
	// 0.5 s later in a 0.5 s RT60 room the tail is about 60 dB down.
	if db := 20 * math.Log10(early/late); db < 45 || db > 75 {
		t.Fatalf("tail dropped %.1f dB over one RT60", db)
	}
}

func TestGenerateRoomDeterministic(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.DurationS = 0.2
	a, _ := GenerateRoom(cfg)
	b, _ := GenerateRoom(cfg)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d", i)
		}
	}
	cfg.RT60 = 0
	if _, err := GenerateRoom(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}
