package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

const (
	// SpeedOfSound in air at room temperature, m/s.
	SpeedOfSound = 343.0

	maxSpectrumSize = 1 << 16
	modeGridPoints  = 512
)

// MagnitudeSpectrum returns Hann-windowed FFT magnitudes of the first
// power-of-two block of x (at most 65536 samples) and the bin spacing in Hz.
func MagnitudeSpectrum(x []float64, sampleRate int) ([]float64, float64, error) {
	if sampleRate <= 0 {
		return nil, 0, fmt.Errorf("analysis: sample rate must be > 0: %d", sampleRate)
	}
	n := 1
	for n*2 <= len(x) && n*2 <= maxSpectrumSize {
		n *= 2
	}
	if n < 16 {
		return nil, 0, ErrTooShort
	}

	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, 0, fmt.Errorf("analysis: fft plan: %w", err)
	}
	buf := make([]float64, n)
	for i := range buf {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = x[i] * w
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	for k, c := range spec {
		mags[k] = cmplx.Abs(c)
	}
	return mags, float64(sampleRate) / float64(n), nil
}

// SpectralCentroid returns the magnitude-weighted mean frequency of x in Hz.
func SpectralCentroid(x []float64, sampleRate int) (float64, error) {
	mags, binHz, err := MagnitudeSpectrum(x, sampleRate)
	if err != nil {
		return 0, err
	}
	var num, den float64
	for k := 1; k < len(mags); k++ {
		num += float64(k) * binHz * mags[k]
		den += mags[k]
	}
	if den <= 0 {
		return 0, fmt.Errorf("analysis: silent signal has no centroid")
	}
	return num / den, nil
}

// AxialModes estimates the count lowest axial mode frequencies of a room whose
// wall-to-wall travel time is roomSizeMs, from the eigenvalues of a
// Dirichlet Laplacian discretised over the room length.
func AxialModes(roomSizeMs float64, count int) ([]float64, error) {
	if !isFinite(roomSizeMs) || roomSizeMs <= 0 {
		return nil, fmt.Errorf("analysis: room size must be > 0 ms: %f", roomSizeMs)
	}
	if count < 1 {
		return nil, fmt.Errorf("analysis: mode count must be >= 1: %d", count)
	}

	grid := max(modeGridPoints, 8*count)
	length := SpeedOfSound * roomSizeMs * 0.001
	h := length / float64(grid+1)

	eig := pdefd.Eigenvalues(grid, h, pdepoisson.Dirichlet)
	sort.Float64s(eig)

	modes := make([]float64, 0, count)
	for _, lambda := range eig {
		if len(modes) == count {
			break
		}
		if lambda <= 0 {
			continue
		}
		modes = append(modes, SpeedOfSound*math.Sqrt(lambda)/(2*math.Pi))
	}
	return modes, nil
}
