package main

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-verb/analysis"
	"github.com/cwbudde/algo-verb/config"
	"github.com/cwbudde/algo-verb/excite"
	"github.com/cwbudde/algo-verb/internal/render"
	"github.com/cwbudde/algo-verb/verb"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, 3, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != 3 || cfg.NPop != 10 || cfg.MaxIterations != 20 {
				t.Fatalf("unexpected config: size=%d pop=%d iters=%d", cfg.ProblemSize, cfg.NPop, cfg.MaxIterations)
			}
		})
	}
}

func TestReserveEvalCapsAtMax(t *testing.T) {
	const (
		maxEvals = 47
		workers  = 8
	)

	var evals int64
	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, maxEvals); !ok {
					return
				}
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&granted); got != maxEvals {
		t.Fatalf("granted evaluations = %d, want %d", got, maxEvals)
	}
}

func TestUpdateTopCandidatesKeepsBestK(t *testing.T) {
	defs := []knobDef{{Name: "decay", Min: 0, Max: 6}}
	var top []topCandidate
	for i, score := range []float64{0.5, 0.2, 0.9, 0.2, 0.1} {
		top = updateTopCandidates(top, 3, i+1, analysis.Metrics{Score: score}, defs, candidate{Vals: []float64{float64(i)}})
	}
	if len(top) != 3 {
		t.Fatalf("len(top) = %d, want 3", len(top))
	}
	if top[0].Score != 0.1 || top[1].Eval != 2 || top[2].Eval != 4 {
		t.Fatalf("unexpected ordering: %+v", top)
	}

	cloned := cloneTopCandidates(top)
	cloned[0].Knobs["decay"] = 99
	if top[0].Knobs["decay"] == 99 {
		t.Fatalf("clone shares knob maps")
	}
}

func TestRunOptimizationImprovesOnStart(t *testing.T) {
	const sr = 16000
	opts := render.DefaultOptions()
	opts.MinDuration = 0.2
	opts.MaxDuration = 3

	target := verb.NewDefaultParams()
	target.RoomSize = 40
	target.Decay = 4
	ref, err := renderIR(target, sr, opts)
	if err != nil {
		t.Fatalf("render reference: %v", err)
	}

	base := verb.NewDefaultParams()
	base.RoomSize = 95
	base.Decay = 0
	defs, init := initCandidate(base, map[string]bool{"room": true})

	dir := t.TempDir()
	cfg := &optimizationConfig{
		reference:        ref,
		baseParams:       base,
		defs:             defs,
		initCandidate:    init,
		sampleRate:       sr,
		seed:             3,
		timeBudget:       60,
		maxEvals:         40,
		reportEvery:      1000,
		checkpointEvery:  1,
		render:           opts,
		mayflyVariant:    "desma",
		mayflyPop:        4,
		mayflyRoundEvals: 16,
		workers:          2,
		topK:             3,
		outputConfig:     filepath.Join(dir, "fit.json"),
		referencePath:    "synthetic",
	}

	initial, err := evaluateCandidate(cfg, init)
	if err != nil {
		t.Fatalf("evaluateCandidate: %v", err)
	}
	res, err := runOptimization(cfg)
	if err != nil {
		t.Fatalf("runOptimization: %v", err)
	}
	if res.evals > cfg.maxEvals {
		t.Fatalf("evals = %d exceeds max %d", res.evals, cfg.maxEvals)
	}
	if res.bestMetrics.Score > initial.metrics.Score {
		t.Fatalf("best score %.4f worse than start %.4f", res.bestMetrics.Score, initial.metrics.Score)
	}

	if err := writeOutputs(cfg, res, filepath.Join(dir, "best.wav")); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	fitted, err := config.LoadJSON(cfg.outputConfig)
	if err != nil {
		t.Fatalf("load fitted config: %v", err)
	}
	if fitted.RoomSize != res.bestParams.RoomSize || fitted.Decay != res.bestParams.Decay {
		t.Fatalf("fitted config %+v does not match best params %+v", fitted, res.bestParams)
	}

	resumed, ok, err := loadCandidateFromReport(reportPathFor(cfg), defs, init)
	if err != nil || !ok {
		t.Fatalf("resume from report failed: ok=%v err=%v", ok, err)
	}
	for i := range resumed.Vals {
		if resumed.Vals[i] != res.best.Vals[i] {
			t.Fatalf("resumed knob %d = %f, want %f", i, resumed.Vals[i], res.best.Vals[i])
		}
	}
}

func TestLoadCandidateFromMissingReport(t *testing.T) {
	fallback := candidate{Vals: []float64{1}}
	c, ok, err := loadCandidateFromReport(filepath.Join(t.TempDir(), "none.json"), nil, fallback)
	if err != nil || ok || c.Vals[0] != 1 {
		t.Fatalf("expected fallback without error, got ok=%v err=%v", ok, err)
	}
}

func TestSynthReferenceMatchesRoomLength(t *testing.T) {
	room := excite.DefaultRoomConfig()
	room.SampleRate = 16000
	room.DurationS = 0.5
	ref, err := synthReference(room)
	if err != nil {
		t.Fatalf("synthReference: %v", err)
	}
	if len(ref) != 8000 {
		t.Fatalf("len(ref) = %d, want 8000", len(ref))
	}

	room.RT60 = 0
	if _, err := synthReference(room); err == nil {
		t.Fatalf("expected invalid room config to fail")
	}
}
