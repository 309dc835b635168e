package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-verb/analysis"
	"github.com/cwbudde/algo-verb/config"
	"github.com/cwbudde/algo-verb/internal/wavio"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	OutputConfig    string             `json:"output_config"`
	OutputIR        string             `json:"output_ir,omitempty"`
	SampleRate      int                `json:"sample_rate"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
	TopCandidates   []topCandidate     `json:"top_candidates,omitempty"`
}

// writeOutputs writes the best configuration, the run report and, when
// outputIR is set, the best candidate's impulse response.
func writeOutputs(cfg *optimizationConfig, res *optimizationResult, outputIR string) error {
	if err := os.MkdirAll(filepath.Dir(cfg.outputConfig), 0o755); err != nil {
		return err
	}
	if err := config.WriteJSON(cfg.outputConfig, res.bestParams); err != nil {
		return err
	}

	if outputIR != "" {
		ir, err := renderIR(res.bestParams, cfg.sampleRate, cfg.render)
		if err != nil {
			return err
		}
		mono := make([]float32, len(ir))
		for i, v := range ir {
			mono[i] = float32(v)
		}
		if err := wavio.WritePlanar(outputIR, [][]float32{mono}, cfg.sampleRate); err != nil {
			return err
		}
	}

	rep := runReport{
		ReferencePath:   cfg.referencePath,
		OutputConfig:    cfg.outputConfig,
		OutputIR:        outputIR,
		SampleRate:      cfg.sampleRate,
		DurationSec:     res.elapsed,
		Evaluations:     res.evals,
		MayflyVariant:   cfg.mayflyVariant,
		BestScore:       res.bestMetrics.Score,
		BestSimilarity:  res.bestMetrics.Similarity,
		BestMetrics:     res.bestMetrics,
		BestKnobs:       knobMap(cfg.defs, res.best),
		CheckpointCount: res.checkpoints,
		TopCandidates:   res.top,
	}
	return writeJSON(reportPathFor(cfg), rep)
}

func reportPathFor(cfg *optimizationConfig) string {
	if cfg.reportPath != "" {
		return cfg.reportPath
	}
	return cfg.outputConfig + ".report.json"
}

// loadCandidateFromReport resumes from the best_knobs of a previous report.
// A missing report is not an error.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}
	c, ok := candidateFromKnobs(rep.BestKnobs, defs, fallback)
	if !ok {
		return fallback, false, nil
	}
	return c, true, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
