package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-verb/analysis"
	"github.com/cwbudde/algo-verb/config"
	"github.com/cwbudde/algo-verb/host"
	"github.com/cwbudde/algo-verb/internal/render"
	"github.com/cwbudde/algo-verb/internal/wavio"
	"github.com/cwbudde/algo-verb/verb"
)

type irReport struct {
	Source        string            `json:"source"`
	SampleRate    int               `json:"sample_rate"`
	Frames        int               `json:"frames"`
	Decay         *analysis.Decay   `json:"decay,omitempty"`
	DecayError    string            `json:"decay_error,omitempty"`
	CentroidHz    float64           `json:"centroid_hz"`
	RoomSizeMs    float64           `json:"room_size_ms,omitempty"`
	AxialModesHz  []float64         `json:"axial_modes_hz,omitempty"`
	TailSeconds   float64           `json:"tail_seconds,omitempty"`
	TargetRT60    float64           `json:"target_rt60_s,omitempty"`
	Comparison    *analysis.Metrics `json:"comparison,omitempty"`
	ReferencePath string            `json:"reference_path,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "Impulse response WAV to analyze; when empty the configured reverb is rendered")
	configPath := flag.String("config", "", "Reverb configuration JSON for the rendered IR (defaults when empty)")
	referencePath := flag.String("reference", "", "Optional reference IR WAV to compare against")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	modes := flag.Int("modes", 8, "Number of axial modes to report for the rendered room")
	decayDBFS := flag.Float64("decay-dbfs", -120.0, "Auto-stop threshold in dBFS for the rendered IR")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum rendered duration in seconds")
	writeIR := flag.String("write-ir", "", "Optional path to write the rendered IR WAV")
	jsonOut := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	rep := irReport{SampleRate: *sampleRate}
	var ir []float64
	if *inputPath != "" {
		raw, sr, err := wavio.ReadMono(*inputPath)
		if err != nil {
			die("failed to read input: %v", err)
		}
		ir, err = wavio.Resample(raw, sr, *sampleRate)
		if err != nil {
			die("failed to resample input: %v", err)
		}
		rep.Source = *inputPath
	} else {
		params := verb.NewDefaultParams()
		if *configPath != "" {
			p, err := config.LoadJSON(*configPath)
			if err != nil {
				die("failed to load config: %v", err)
			}
			params = p
		}
		proc, err := host.NewProcessor(float64(*sampleRate), 1, params)
		if err != nil {
			die("failed to create processor: %v", err)
		}
		opts := render.DefaultOptions()
		opts.DecayDBFS = *decayDBFS
		opts.MaxDuration = *maxDuration
		res, err := render.Impulse(proc, opts)
		if err != nil {
			die("render failed: %v", err)
		}
		if *writeIR != "" {
			if err := wavio.WritePlanar(*writeIR, res.Planar, *sampleRate); err != nil {
				die("failed to write IR: %v", err)
			}
		}
		ir = wavio.MixDown(res.Planar)
		rep.Source = "rendered"
		rep.RoomSizeMs = params.RoomSizeMs()
		rep.TargetRT60 = params.RT60Seconds()
		rep.TailSeconds = proc.TailSeconds()
		rep.AxialModesHz, err = analysis.AxialModes(rep.RoomSizeMs, *modes)
		if err != nil {
			die("axial modes: %v", err)
		}
	}
	rep.Frames = len(ir)

	if d, err := analysis.EstimateDecay(ir, *sampleRate); err != nil {
		rep.DecayError = err.Error()
	} else {
		rep.Decay = &d
	}
	if c, err := analysis.SpectralCentroid(ir, *sampleRate); err == nil {
		rep.CentroidHz = c
	}

	if *referencePath != "" {
		raw, sr, err := wavio.ReadMono(*referencePath)
		if err != nil {
			die("failed to read reference: %v", err)
		}
		ref, err := wavio.Resample(raw, sr, *sampleRate)
		if err != nil {
			die("failed to resample reference: %v", err)
		}
		m := analysis.Compare(ref, ir, *sampleRate)
		rep.Comparison = &m
		rep.ReferencePath = *referencePath
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	printReport(rep)
}

func printReport(rep irReport) {
	fmt.Printf("Source:           %s\n", rep.Source)
	fmt.Printf("Frames:           %d (%.3f s at %d Hz)\n", rep.Frames, float64(rep.Frames)/float64(rep.SampleRate), rep.SampleRate)
	if rep.Decay != nil {
		fmt.Printf("RT60 (T20):       %.3f s\n", rep.Decay.RT60)
		fmt.Printf("EDT:              %.3f s\n", rep.Decay.EDT)
		fmt.Printf("Decay slope:      %.1f dB/s\n", rep.Decay.SlopeDBPerS)
	} else {
		fmt.Printf("Decay:            n/a (%s)\n", rep.DecayError)
	}
	fmt.Printf("Centroid:         %.0f Hz\n", rep.CentroidHz)
	if rep.Source == "rendered" {
		fmt.Printf("Room size:        %.1f ms\n", rep.RoomSizeMs)
		fmt.Printf("Target RT60:      %.2f s\n", rep.TargetRT60)
		fmt.Printf("Tail estimate:    %.2f s\n", rep.TailSeconds)
		fmt.Printf("Axial modes:     ")
		for _, f := range rep.AxialModesHz {
			fmt.Printf(" %.1f", f)
		}
		fmt.Println(" Hz")
	}

	m := rep.Comparison
	if m == nil {
		return
	}
	fmt.Println()
	fmt.Printf("Reference:        %s (onset lag %d samples)\n", rep.ReferencePath, m.OnsetLag)
	fmt.Printf("Component        Raw            Norm   Weight  Contribution\n")
	fmt.Printf("───────────────────────────────────────────────────────────\n")
	printComp := func(name string, raw string, norm, weight float64, dominant bool) {
		marker := ""
		if dominant {
			marker = " ◄"
		}
		fmt.Printf("%-16s %-14s %5.1f%%  ×%.2f   → %.4f%s\n", name, raw, norm*100, weight, norm*weight, marker)
	}
	printComp("Envelope RMSE", fmt.Sprintf("%.1f dB", m.EnvelopeRMSEDB), m.EnvelopeNorm, analysis.WeightEnvelope, m.Dominant == "envelope")
	printComp("Spectral RMSE", fmt.Sprintf("%.1f dB", m.SpectralRMSEDB), m.SpectralNorm, analysis.WeightSpectral, m.Dominant == "spectral")
	printComp("RT60", fmt.Sprintf("%.2f/%.2f s", m.RefRT60, m.CandRT60), m.RT60Norm, analysis.WeightRT60, m.Dominant == "rt60")
	printComp("EDT", fmt.Sprintf("%.2f/%.2f s", m.RefEDT, m.CandEDT), m.EDTNorm, analysis.WeightEDT, m.Dominant == "edt")
	printComp("Centroid", fmt.Sprintf("%.0f/%.0f Hz", m.RefCentroidHz, m.CandCentroid), m.CentroidNorm, analysis.WeightCentroid, m.Dominant == "centroid")
	fmt.Printf("───────────────────────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Printf("Similarity:       %.2f%%\n", m.Similarity*100.0)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
