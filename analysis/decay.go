package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/stat"
)

// floorDB is the level assigned to exact silence.
const floorDB = -300.0

// ErrTooShort reports a signal with too little content to measure.
var ErrTooShort = errors.New("analysis: signal too short")

// Decay holds reverberation times estimated from a Schroeder energy-decay curve.
type Decay struct {
	RT60        float64 `json:"rt60_s"`         // Extrapolated from the -5..-25 dB range (T20)
	EDT         float64 `json:"edt_s"`          // Early decay time, from the 0..-10 dB range
	SlopeDBPerS float64 `json:"slope_db_per_s"` // Slope of the T20 fit
}

// RMSEnvelope returns the RMS of frame-sample windows taken every hop samples.
func RMSEnvelope(x []float64, frame, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// EnergyDecayCurve returns the backward-integrated energy of x in dB relative
// to its total energy. The curve starts at 0 dB and never increases. Silent
// input yields nil.
func EnergyDecayCurve(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	total := f64.DotProduct(x, x)
	if total <= 0 {
		return nil
	}

	out := make([]float64, len(x))
	var remaining float64
	for i := len(x) - 1; i >= 0; i-- {
		remaining += x[i] * x[i]
		out[i] = powToDB(remaining / total)
	}
	// Rounding in the backward sum can leave the head a hair above 0 dB.
	out[0] = 0
	for i := 1; i < len(out); i++ {
		out[i] = math.Min(out[i], out[i-1])
	}
	return out
}

// EstimateDecay fits straight lines to the energy-decay curve of an impulse
// response and extrapolates them to 60 dB of decay.
func EstimateDecay(x []float64, sampleRate int) (Decay, error) {
	if sampleRate <= 0 {
		return Decay{}, fmt.Errorf("analysis: sample rate must be > 0: %d", sampleRate)
	}
	edc := EnergyDecayCurve(trimLeadingSilence(x, 1e-9))
	if len(edc) < 8 {
		return Decay{}, ErrTooShort
	}

	slope, err := fitDecaySlope(edc, sampleRate, -5, -25)
	if err != nil {
		// Noisy or truncated tails may never reach -25 dB.
		slope, err = fitDecaySlope(edc, sampleRate, -5, -15)
		if err != nil {
			return Decay{}, err
		}
	}
	edtSlope, err := fitDecaySlope(edc, sampleRate, 0, -10)
	if err != nil {
		return Decay{}, err
	}

	return Decay{
		RT60:        -60 / slope,
		EDT:         -60 / edtSlope,
		SlopeDBPerS: slope,
	}, nil
}

// fitDecaySlope regresses the EDC samples between hiDB and loDB against time
// and returns the slope in dB/s.
func fitDecaySlope(edc []float64, sampleRate int, hiDB, loDB float64) (float64, error) {
	start := -1
	end := len(edc)
	for i, v := range edc {
		if start < 0 && v <= hiDB {
			start = i
		}
		if v < loDB {
			end = i
			break
		}
	}
	if start < 0 || end == len(edc) || end-start < 2 {
		return 0, fmt.Errorf("analysis: decay never spans %g..%g dB", hiDB, loDB)
	}

	ts := make([]float64, end-start)
	for i := range ts {
		ts[i] = float64(start+i) / float64(sampleRate)
	}
	_, beta := stat.LinearRegression(ts, edc[start:end], nil, false)
	if !(beta < 0) {
		return 0, fmt.Errorf("analysis: non-decaying slope %g dB/s", beta)
	}
	return beta, nil
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(f64.DotProduct(x, x) / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func powToDB(p float64) float64 {
	if p <= 0 {
		return floorDB
	}
	return math.Max(10*math.Log10(p), floorDB)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
