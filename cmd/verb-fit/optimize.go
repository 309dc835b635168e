package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-verb/analysis"
	"github.com/cwbudde/algo-verb/host"
	"github.com/cwbudde/algo-verb/internal/render"
	"github.com/cwbudde/algo-verb/internal/wavio"
	"github.com/cwbudde/algo-verb/verb"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	baseParams       *verb.Params
	defs             []knobDef
	initCandidate    candidate
	sampleRate       int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	checkpointEvery  int
	render           render.Options
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int

	// Checkpoint outputs; empty outputConfig disables checkpoints.
	outputConfig  string
	reportPath    string
	referencePath string
}

type optimizationEval struct {
	metrics analysis.Metrics
	params  *verb.Params
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	bestParams  *verb.Params
	top         []topCandidate
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	checkpoints int
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", initialEval.metrics.Score, initialEval.metrics.Similarity*100.0)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex

	workers := max(cfg.workers, 1)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(cfg.mayflyVariant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					evalRes, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), evalRes.metrics, cfg.defs, cand)
					improved := evalRes.metrics.Score < state.bestEval.metrics.Score
					var improveNum int64
					var snapshot optimizationResult
					if improved {
						state.best = cloneCandidate(cand)
						state.bestEval = evalRes
						improveNum = atomic.AddInt64(&improves, 1)
						snapshot = optimizationResult{
							best:        cloneCandidate(state.best),
							bestMetrics: evalRes.metrics,
							bestParams:  evalRes.params,
							top:         cloneTopCandidates(state.top),
						}
					}
					bestScore := state.bestEval.metrics.Score
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improveNum, evalNum, snapshot.bestMetrics.Score, snapshot.bestMetrics.Similarity*100.0)
						if cfg.outputConfig != "" && cfg.checkpointEvery > 0 && improveNum%int64(cfg.checkpointEvery) == 0 {
							outputMu.Lock()
							snapshot.evals = int(atomic.LoadInt64(&evals))
							snapshot.elapsed = time.Since(start).Seconds()
							state.mu.Lock()
							state.checkpoints++
							snapshot.checkpoints = state.checkpoints
							state.mu.Unlock()
							if err := writeOutputs(cfg, &snapshot, ""); err != nil {
								fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
							}
							outputMu.Unlock()
						}
					}

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return evalRes.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestEval.metrics,
		bestParams:  state.bestEval.params,
		top:         cloneTopCandidates(state.top),
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
		checkpoints: state.checkpoints,
	}, nil
}

// evaluateCandidate renders the candidate's impulse response and scores it
// against the reference.
func evaluateCandidate(cfg *optimizationConfig, cand candidate) (optimizationEval, error) {
	params := applyCandidate(cfg.baseParams, cfg.defs, cand)
	ir, err := renderIR(params, cfg.sampleRate, cfg.render)
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics: analysis.Compare(cfg.reference, ir, cfg.sampleRate),
		params:  params,
	}, nil
}

func renderIR(params *verb.Params, sampleRate int, opts render.Options) ([]float64, error) {
	proc, err := host.NewProcessor(float64(sampleRate), 1, params)
	if err != nil {
		return nil, err
	}
	res, err := render.Impulse(proc, opts)
	if err != nil {
		return nil, err
	}
	return wavio.MixDown(res.Planar), nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.bestEval.metrics.Score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	top = append(top, topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      knobMap(defs, cand),
	})
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Knobs = make(map[string]float64, len(e.Knobs))
		for k, v := range e.Knobs {
			out[i].Knobs[k] = v
		}
	}
	return out
}
