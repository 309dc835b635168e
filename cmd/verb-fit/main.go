package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-verb/config"
	"github.com/cwbudde/algo-verb/excite"
	"github.com/cwbudde/algo-verb/internal/cliutil"
	"github.com/cwbudde/algo-verb/internal/render"
	"github.com/cwbudde/algo-verb/internal/wavio"
	"github.com/cwbudde/algo-verb/verb"
)

func main() {
	referencePath := flag.String("reference", "reference/room.wav", "Reference impulse response WAV path")
	synthRoom := flag.Bool("synth-room", false, "Fit against a synthetic room impulse response instead of -reference")
	roomRT60 := flag.Float64("room-rt60", 2.5, "RT60 in seconds of the synthetic room")
	roomCutoff := flag.Float64("room-cutoff", 7000, "Late-tail lowpass cutoff in Hz of the synthetic room")
	configPath := flag.String("config", "", "Base configuration JSON (defaults when empty)")
	outputConfig := flag.String("output-config", "out/fitted.json", "Path to write the best configuration JSON")
	outputIR := flag.String("output-ir", "", "Optional path to write the best candidate's impulse response WAV")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-config>.report.json)")
	optimize := flag.String("optimize", "room,tone", "Comma-separated knob groups to optimize: room, tone, mix")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	decayDBFS := flag.Float64("decay-dbfs", -100.0, "Auto-stop threshold in dBFS for candidate renders")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 12.0, "Maximum render duration in seconds")
	renderBlockSize := flag.Int("render-block-size", 256, "Audio render block size for candidate evaluation")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if *outputConfig == "" {
		die("output-config must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	*topK = max(*topK, 1)
	*renderBlockSize = max(*renderBlockSize, 16)
	parsedWorkers, err := cliutil.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := verb.NewDefaultParams()
	if *configPath != "" {
		if baseParams, err = config.LoadJSON(*configPath); err != nil {
			die("failed to load config: %v", err)
		}
	}

	var ref []float64
	if *synthRoom {
		room := excite.DefaultRoomConfig()
		room.SampleRate = *sampleRate
		room.Seed = *seed
		room.RT60 = *roomRT60
		room.CutoffHz = *roomCutoff
		room.DurationS = max(room.DurationS, 1.5**roomRT60)
		if ref, err = synthReference(room); err != nil {
			die("failed to synthesize reference: %v", err)
		}
		*referencePath = fmt.Sprintf("synth:rt60=%.2fs,cutoff=%.0fHz", *roomRT60, *roomCutoff)
	} else {
		refRaw, refSR, err := wavio.ReadMono(*referencePath)
		if err != nil {
			die("failed to read reference: %v", err)
		}
		if ref, err = wavio.Resample(refRaw, refSR, *sampleRate); err != nil {
			die("failed to resample reference: %v", err)
		}
	}

	defs, initCand := initCandidate(baseParams, groups)
	cfg := &optimizationConfig{
		reference:     ref,
		baseParams:    baseParams,
		defs:          defs,
		initCandidate: initCand,
		sampleRate:    *sampleRate,
		seed:          *seed,
		timeBudget:    *timeBudget,
		maxEvals:      *maxEvals,
		reportEvery:   *reportEvery,
		render: render.Options{
			BlockSize:   *renderBlockSize,
			DecayDBFS:   *decayDBFS,
			HoldBlocks:  *decayHoldBlocks,
			MinDuration: *minDuration,
			MaxDuration: *maxDuration,
		},
		checkpointEvery:  *checkpointEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
		outputConfig:     *outputConfig,
		reportPath:       *reportPath,
		referencePath:    *referencePath,
	}

	if *resume {
		resumePath := reportPathFor(cfg)
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			cfg.initCandidate = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	if err := writeOutputs(cfg, result, *outputIR); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, cfg.mayflyVariant)
}

// synthReference renders a synthetic room response as the fit target.
func synthReference(cfg excite.RoomConfig) ([]float64, error) {
	ir, err := excite.GenerateRoom(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ir))
	for i, v := range ir {
		out[i] = float64(v)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
