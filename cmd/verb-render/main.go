package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-verb/config"
	"github.com/cwbudde/algo-verb/excite"
	"github.com/cwbudde/algo-verb/host"
	"github.com/cwbudde/algo-verb/internal/render"
	"github.com/cwbudde/algo-verb/internal/wavio"
	"github.com/cwbudde/algo-verb/verb"
)

func main() {
	configPath := flag.String("config", "", "Reverb configuration JSON (defaults when empty)")
	inputPath := flag.String("input", "", "Input WAV to process; when empty a test signal is rendered")
	signal := flag.String("signal", "impulse", "Test signal: impulse|noise|sine")
	burstMs := flag.Float64("burst-ms", 20, "Test signal burst length in ms (noise and sine)")
	freq := flag.Float64("freq", 1000, "Sine test signal frequency in Hz")
	signalSeed := flag.Int64("signal-seed", 1, "Noise test signal seed")
	channels := flag.Int("channels", 2, "Channel count for test signals")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block-size", 128, "Processing block size")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop when block RMS falls below this dBFS (+Inf disables)")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds")
	output := flag.String("output", "output.wav", "Output WAV file path")

	roomSize := flag.Float64("room-size", 0, "Room size knob override [25,100]")
	decay := flag.Float64("decay", 0, "Decay knob override [0,6]")
	lpCutoff := flag.Float64("lp-cutoff", 0, "Damping cutoff override in Hz")
	dry := flag.Float64("dry", 0, "Dry gain override [0,1]")
	wet := flag.Float64("wet", 0, "Wet gain override [0,1]")
	modulation := flag.Bool("modulation", false, "Enable delay modulation")
	flag.Parse()

	params := verb.NewDefaultParams()
	if *configPath != "" {
		p, err := config.LoadJSON(*configPath)
		if err != nil {
			die("Error loading config %q: %v", *configPath, err)
		}
		params = p
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "room-size":
			params.RoomSize = *roomSize
		case "decay":
			params.Decay = *decay
		case "lp-cutoff":
			params.LPCutoff = *lpCutoff
		case "dry":
			params.Dry = float32(*dry)
		case "wet":
			params.Wet = float32(*wet)
		case "modulation":
			params.ModulationEnabled = *modulation
		}
	})
	if err := params.Validate(); err != nil {
		die("invalid parameters: %v", err)
	}

	var input [][]float32
	sr := *sampleRate
	if *inputPath != "" {
		planar, inSR, err := wavio.ReadPlanar(*inputPath)
		if err != nil {
			die("failed to read input: %v", err)
		}
		input, err = resamplePlanar(planar, inSR, sr)
		if err != nil {
			die("failed to resample input: %v", err)
		}
	} else {
		if *channels < 1 {
			die("channels must be >= 1")
		}
		sig := excite.DefaultSignal(sr)
		sig.Kind = excite.Kind(*signal)
		sig.FreqHz = *freq
		sig.Seed = *signalSeed
		sig.Length = max(int(*burstMs*0.001*float64(sr)), 1)
		sig.Burst = sig.Length
		if sig.Kind == excite.KindImpulse {
			sig.Length, sig.Burst = 1, 1
		}
		mono, err := excite.Generate(sig)
		if err != nil {
			die("invalid test signal: %v", err)
		}
		input = make([][]float32, *channels)
		for c := range input {
			input[c] = mono
		}
	}

	proc, err := host.NewProcessor(float64(sr), len(input), params)
	if err != nil {
		die("failed to create processor: %v", err)
	}

	fmt.Printf("Rendering %d channel(s) at %d Hz: room=%.1f decay=%.2f (rt60 %.2fs) lp=%.0fHz dry=%.2f wet=%.2f tail~%.2fs\n",
		len(input), sr, params.RoomSize, params.Decay, params.RT60Seconds(), params.LPCutoff, params.Dry, params.Wet, proc.TailSeconds())

	res, err := render.Render(proc, input, render.Options{
		BlockSize:   *blockSize,
		DecayDBFS:   *decayDBFS,
		HoldBlocks:  *decayHoldBlocks,
		MinDuration: *minDuration,
		MaxDuration: *maxDuration,
	})
	if err != nil {
		die("render failed: %v", err)
	}
	if res.AutoStop {
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", res.Frames, float64(res.Frames)/float64(sr), *decayDBFS)
	}

	if err := wavio.WritePlanar(*output, res.Planar, sr); err != nil {
		die("Error writing WAV file: %v", err)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, res.Frames)
}

func resamplePlanar(planar [][]float32, fromRate, toRate int) ([][]float32, error) {
	if fromRate == toRate {
		return planar, nil
	}
	out := make([][]float32, len(planar))
	for c, ch := range planar {
		in := make([]float64, len(ch))
		for i, v := range ch {
			in[i] = float64(v)
		}
		res, err := wavio.Resample(in, fromRate, toRate)
		if err != nil {
			return nil, err
		}
		out[c] = make([]float32, len(res))
		for i, v := range res {
			out[c][i] = float32(v)
		}
	}
	// Resampled channels can differ by a sample.
	n := len(out[0])
	for _, ch := range out {
		n = min(n, len(ch))
	}
	for c := range out {
		out[c] = out[c][:n]
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
