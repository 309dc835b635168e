package verb

import (
	"math"
	"math/rand"
	"testing"
)

func TestHouseholderIsInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, n := range []int{1, 2, 3, 8, 16, 33} {
		v := randomVector(rng, n)
		orig := append([]float32(nil), v...)
		Householder(v)
		Householder(v)
		for i := range v {
			tol := 1e-5 * math.Max(1, math.Abs(float64(orig[i])))
			if math.Abs(float64(v[i]-orig[i])) > tol {
				t.Fatalf("n=%d: element %d = %f after two reflections, want %f", n, i, v[i], orig[i])
			}
		}
	}
}

func TestHouseholderPreservesEnergy(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 100; trial++ {
		v := randomVector(rng, Channels)
		before := energy(v)
		Householder(v)
		after := energy(v)
		if math.Abs(after-before) > 1e-4*before {
			t.Fatalf("trial %d: energy %f -> %f", trial, before, after)
		}
	}
}

func TestHouseholderRemovesTwiceTheMean(t *testing.T) {
	v := []float32{1, 1, 1, 1}
	Householder(v)
	for i, x := range v {
		if x != -1 {
			t.Fatalf("element %d = %f, want -1", i, x)
		}
	}
}

func TestHadamardPreservesEnergy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 4, 8, 16, 64} {
		v := randomVector(rng, n)
		before := energy(v)
		Hadamard(v)
		after := energy(v)
		if math.Abs(after-before) > 1e-4*before {
			t.Fatalf("n=%d: energy %f -> %f", n, before, after)
		}
	}
}

func TestHadamardIsSelfInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{2, 4, 8, 32} {
		v := randomVector(rng, n)
		orig := append([]float32(nil), v...)
		Hadamard(v)
		Hadamard(v)
		for i := range v {
			if math.Abs(float64(v[i]-orig[i])) > 1e-5*math.Max(1, math.Abs(float64(orig[i]))) {
				t.Fatalf("n=%d: element %d = %f, want %f", n, i, v[i], orig[i])
			}
		}
	}
}

func TestHadamardOfImpulseIsFlat(t *testing.T) {
	v := make([]float32, Channels)
	v[0] = 1
	Hadamard(v)
	want := float32(1 / math.Sqrt(Channels))
	for i, x := range v {
		if math.Abs(float64(x-want)) > 1e-6 {
			t.Fatalf("element %d = %f, want %f", i, x, want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int]bool{0: false, 1: true, 2: true, 3: false, 8: true, 12: false, 1024: true, -4: false}
	for n, want := range cases {
		if got := IsPowerOfTwo(n); got != want {
			t.Fatalf("IsPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
	if !IsPowerOfTwo(Channels) {
		t.Fatalf("Channels=%d must be a power of two", Channels)
	}
}
