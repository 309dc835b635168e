package verb

import "math"

var frameHadamardScale = float32(1 / math.Sqrt(Channels))

// Householder applies the reflection I - (2/N)·11ᵀ in place. It removes twice
// the mean from every element, preserves the Euclidean norm and is its own
// inverse.
func Householder(v []float32) {
	if len(v) == 0 {
		return
	}
	var sum float32
	for _, x := range v {
		sum += x
	}
	sum *= -2 / float32(len(v))
	for i := range v {
		v[i] += sum
	}
}

// Hadamard applies the orthonormal Hadamard transform in place. len(v) must
// be a power of two.
func Hadamard(v []float32) {
	hadamardUnscaled(v)

	scale := frameHadamardScale
	if len(v) != Channels {
		scale = float32(1 / math.Sqrt(float64(len(v))))
	}
	for i := range v {
		v[i] *= scale
	}
}

func hadamardUnscaled(v []float32) {
	n := len(v)
	if n <= 1 {
		return
	}
	h := n / 2
	hadamardUnscaled(v[:h])
	hadamardUnscaled(v[h:])
	for i := 0; i < h; i++ {
		a := v[i]
		b := v[i+h]
		v[i] = a + b
		v[i+h] = a - b
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
