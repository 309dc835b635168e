package analysis

import (
	"math"

	"github.com/tphakala/simd/f64"
)

const (
	envelopeFrame = 256
	envelopeHop   = 128
	// Envelope and spectral levels are floored this far below their peak.
	compareRangeDB = 80.0
	maxCompareSecs = 12
)

// Score weights per component.
const (
	WeightEnvelope = 0.30
	WeightSpectral = 0.25
	WeightRT60     = 0.25
	WeightEDT      = 0.10
	WeightCentroid = 0.10
)

// Metrics contains distance measurements between two impulse responses.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	OnsetLag        int `json:"onset_lag_samples"`

	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	RefRT60       float64 `json:"ref_rt60_s"`
	CandRT60      float64 `json:"cand_rt60_s"`
	RefEDT        float64 `json:"ref_edt_s"`
	CandEDT       float64 `json:"cand_edt_s"`
	RefCentroidHz float64 `json:"ref_centroid_hz"`
	CandCentroid  float64 `json:"cand_centroid_hz"`

	EnvelopeNorm float64 `json:"envelope_norm"`
	SpectralNorm float64 `json:"spectral_norm"`
	RT60Norm     float64 `json:"rt60_norm"`
	EDTNorm      float64 `json:"edt_norm"`
	CentroidNorm float64 `json:"centroid_norm"`
	Dominant     string  `json:"dominant"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare aligns two impulse responses on their onsets and returns objective
// distance metrics with a combined score in [0,1] (0 = identical).
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}
	m.OnsetLag = (len(candidate) - len(cand)) - (len(reference) - len(ref))

	n := min(len(ref), len(cand), sampleRate*maxCompareSecs)
	if n < 2*envelopeFrame {
		return m
	}
	ref = normalizeRMS(ref[:n], 0.1)
	cand = normalizeRMS(cand[:n], 0.1)
	m.AlignedFrames = n

	m.EnvelopeRMSEDB = envelopeRMSEDB(ref, cand)
	m.SpectralRMSEDB = spectralRMSEDB(ref, cand, sampleRate)

	rtNorm, edtNorm := 1.0, 1.0
	rd, errR := EstimateDecay(ref, sampleRate)
	cd, errC := EstimateDecay(cand, sampleRate)
	if errR == nil {
		m.RefRT60, m.RefEDT = rd.RT60, rd.EDT
	}
	if errC == nil {
		m.CandRT60, m.CandEDT = cd.RT60, cd.EDT
	}
	if errR == nil && errC == nil {
		rtNorm = ratioDistance(rd.RT60, cd.RT60, 1)
		edtNorm = ratioDistance(rd.EDT, cd.EDT, 1)
	}

	centNorm := 1.0
	rc, errR := SpectralCentroid(ref, sampleRate)
	cc, errC := SpectralCentroid(cand, sampleRate)
	if errR == nil && errC == nil {
		m.RefCentroidHz, m.CandCentroid = rc, cc
		centNorm = ratioDistance(rc, cc, 2)
	}

	m.EnvelopeNorm = clamp01(m.EnvelopeRMSEDB / 30.0)
	m.SpectralNorm = clamp01(m.SpectralRMSEDB / 30.0)
	m.RT60Norm, m.EDTNorm, m.CentroidNorm = rtNorm, edtNorm, centNorm

	parts := []struct {
		name string
		v    float64
	}{
		{"envelope", WeightEnvelope * m.EnvelopeNorm},
		{"spectral", WeightSpectral * m.SpectralNorm},
		{"rt60", WeightRT60 * m.RT60Norm},
		{"edt", WeightEDT * m.EDTNorm},
		{"centroid", WeightCentroid * m.CentroidNorm},
	}
	var score, worst float64
	for _, p := range parts {
		score += p.v
		if p.v > worst {
			worst = p.v
			m.Dominant = p.name
		}
	}
	m.Score = clamp01(score)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// ratioDistance maps |log2(b/a)| onto [0,1], reaching 1 at octaves octaves.
func ratioDistance(a, b, octaves float64) float64 {
	if !(a > 0) || !(b > 0) || !isFinite(a) || !isFinite(b) {
		return 1
	}
	return clamp01(math.Abs(math.Log2(b/a)) / octaves)
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms1(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	f64.Scale(out, x, target/r)
	return out
}

func envelopeRMSEDB(a, b []float64) float64 {
	ea := levelsDB(RMSEnvelope(a, envelopeFrame, envelopeHop))
	eb := levelsDB(RMSEnvelope(b, envelopeFrame, envelopeHop))
	return rmsDiff(ea, eb)
}

func spectralRMSEDB(a, b []float64, sampleRate int) float64 {
	n := min(len(a), len(b), 4096)
	ma, _, errA := MagnitudeSpectrum(a[:n], sampleRate)
	mb, _, errB := MagnitudeSpectrum(b[:n], sampleRate)
	if errA != nil || errB != nil {
		return 0
	}
	// Skip DC and Nyquist.
	return rmsDiff(levelsDB(ma[1:len(ma)-1]), levelsDB(mb[1:len(mb)-1]))
}

// levelsDB converts magnitudes to dB, floored compareRangeDB below the peak.
func levelsDB(x []float64) []float64 {
	out := make([]float64, len(x))
	peak := math.Inf(-1)
	for i, v := range x {
		out[i] = linToDB(v)
		peak = math.Max(peak, out[i])
	}
	for i := range out {
		out[i] = math.Max(out[i], peak-compareRangeDB)
	}
	return out
}

func rmsDiff(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	d := make([]float64, n)
	for i := range d {
		d[i] = a[i] - b[i]
	}
	return rms1(d)
}
