// Package render drives a host.Processor over an input signal and keeps
// rendering silence until the tail has decayed.
package render

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-verb/host"
	"github.com/cwbudde/algo-verb/internal/cliutil"
)

// Options controls block size and tail auto-stop.
type Options struct {
	BlockSize int
	// DecayDBFS stops the tail once block RMS stays below it for HoldBlocks
	// blocks. +Inf disables auto-stop; rendering then runs to MaxDuration.
	DecayDBFS   float64
	HoldBlocks  int
	MinDuration float64 // Seconds, counted from the start of the input
	MaxDuration float64
}

// DefaultOptions returns 128-sample blocks stopping 90 dB down.
func DefaultOptions() Options {
	return Options{
		BlockSize:   128,
		DecayDBFS:   -90,
		HoldBlocks:  6,
		MinDuration: 0.5,
		MaxDuration: 20,
	}
}

// Result holds the rendered channels.
type Result struct {
	Planar   [][]float32
	Frames   int
	AutoStop bool // True when the tail fell below the threshold before MaxDuration
}

// Render feeds input (one slice per processor channel) through proc and
// returns the output including the reverb tail.
func Render(proc *host.Processor, input [][]float32, opts Options) (*Result, error) {
	channels := proc.Channels()
	if len(input) != channels {
		return nil, fmt.Errorf("input has %d channels, processor has %d", len(input), channels)
	}
	if opts.BlockSize < 1 {
		return nil, fmt.Errorf("block size must be >= 1: %d", opts.BlockSize)
	}
	inputFrames := 0
	for _, ch := range input {
		inputFrames = max(inputFrames, len(ch))
	}

	sr := proc.SampleRate()
	autoStop := !math.IsInf(opts.DecayDBFS, 1)
	minFrames := max(int(sr*opts.MinDuration), inputFrames)
	maxFrames := max(int(sr*opts.MaxDuration), minFrames, 1)
	thresholdLin := cliutil.DBFSToLinear(opts.DecayDBFS)
	holdBlocks := max(opts.HoldBlocks, 1)

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, 0, minFrames)
	}
	block := make([][]float32, channels)
	for c := range block {
		block[c] = make([]float32, opts.BlockSize)
	}

	res := &Result{}
	belowCount := 0
	for res.Frames < maxFrames {
		n := min(opts.BlockSize, maxFrames-res.Frames)
		for c := range block {
			block[c] = block[c][:n]
			for i := range block[c] {
				idx := res.Frames + i
				if idx < len(input[c]) {
					block[c][i] = input[c][idx]
				} else {
					block[c][i] = 0
				}
			}
		}
		if err := proc.Process(block); err != nil {
			return nil, err
		}
		for c := range out {
			out[c] = append(out[c], block[c]...)
		}
		res.Frames += n

		if autoStop && res.Frames >= minFrames {
			if blockRMS(block) < thresholdLin {
				belowCount++
				if belowCount >= holdBlocks {
					res.AutoStop = true
					break
				}
			} else {
				belowCount = 0
			}
		}
	}
	res.Planar = out
	return res, nil
}

// Impulse renders the processor's response to a unit impulse on every channel.
func Impulse(proc *host.Processor, opts Options) (*Result, error) {
	input := make([][]float32, proc.Channels())
	for c := range input {
		input[c] = []float32{1}
	}
	return Render(proc, input, opts)
}

func blockRMS(planar [][]float32) float64 {
	var sum float64
	var n int
	for _, ch := range planar {
		for _, s := range ch {
			v := float64(s)
			sum += v * v
		}
		n += len(ch)
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
