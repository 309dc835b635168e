// Package wavio reads and writes WAV files for the command-line tools.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadPlanar decodes a WAV file into one float32 slice per channel.
func ReadPlanar(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	return Deinterleave(buf.Data, buf.Format.NumChannels), buf.Format.SampleRate, nil
}

// ReadMono decodes a WAV file and averages its channels.
func ReadMono(path string) ([]float64, int, error) {
	planar, sr, err := ReadPlanar(path)
	if err != nil {
		return nil, 0, err
	}
	return MixDown(planar), sr, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in unchanged.
func Resample(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// WritePlanar writes equal-length channels as a 16-bit WAV file, creating
// parent directories as needed.
func WritePlanar(path string, planar [][]float32, sampleRate int) error {
	if len(planar) == 0 {
		return fmt.Errorf("no channels to write")
	}
	for _, ch := range planar[1:] {
		if len(ch) != len(planar[0]) {
			return fmt.Errorf("channel length mismatch")
		}
	}
	return WriteInterleaved(path, Interleave(planar), len(planar), sampleRate)
}

// WriteInterleaved writes interleaved samples as a 16-bit WAV file.
func WriteInterleaved(path string, samples []float32, channels int, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("channels must be >= 1: %d", channels)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// Interleave packs equal-length planar channels frame by frame.
func Interleave(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}
	ch := len(planar)
	n := len(planar[0])
	out := make([]float32, n*ch)
	for c, src := range planar {
		for i := 0; i < n; i++ {
			out[i*ch+c] = src[i]
		}
	}
	return out
}

// Deinterleave splits interleaved samples into channels planar slices. A
// trailing partial frame is dropped.
func Deinterleave(samples []float32, channels int) [][]float32 {
	if channels < 1 {
		return nil
	}
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}

// MixDown averages planar channels into one float64 signal.
func MixDown(planar [][]float32) []float64 {
	if len(planar) == 0 {
		return nil
	}
	out := make([]float64, len(planar[0]))
	for _, ch := range planar {
		for i := range out {
			out[i] += float64(ch[i])
		}
	}
	for i := range out {
		out[i] /= float64(len(planar))
	}
	return out
}
