package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-verb/internal/cliutil"
	"github.com/cwbudde/algo-verb/verb"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

var optimizeGroups = []string{"room", "tone", "mix"}

// parseOptimizeGroups parses a comma-separated string of group names.
// Valid groups: room, tone, mix.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	groups := make(map[string]bool)
	for _, s := range cliutil.SplitList(raw) {
		valid := false
		for _, g := range optimizeGroups {
			valid = valid || s == g
		}
		if !valid {
			return nil, fmt.Errorf("unknown optimize group %q (valid: room, tone, mix)", s)
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *verb.Params, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 8)
	vals := make([]float64, 0, 8)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["room"] {
		addKnob(knobDef{Name: "room_size", Min: verb.MinRoomSize, Max: verb.MaxRoomSize}, base.RoomSize)
		addKnob(knobDef{Name: "decay", Min: verb.MinDecay, Max: verb.MaxDecay}, base.Decay)
	}
	if groups["tone"] {
		addKnob(knobDef{Name: "lp_cutoff_hz", Min: verb.MinLPCutoff, Max: verb.MaxLPCutoff, IsInt: true}, base.LPCutoff)
	}
	if groups["mix"] {
		addKnob(knobDef{Name: "dry", Min: 0, Max: 1}, float64(base.Dry))
		addKnob(knobDef{Name: "wet", Min: 0, Max: 1}, float64(base.Wet))
	}

	for i := range vals {
		vals[i] = cliutil.Clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's knob values.
func applyCandidate(base *verb.Params, defs []knobDef, c candidate) *verb.Params {
	p := *base
	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "room_size":
			p.RoomSize = v
		case "decay":
			p.Decay = v
		case "lp_cutoff_hz":
			p.LPCutoff = v
		case "dry":
			p.Dry = float32(v)
		case "wet":
			p.Wet = float32(v)
		}
	}
	return &p
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = cliutil.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}

// candidateFromKnobs overlays named knob values onto fallback.
func candidateFromKnobs(knobs map[string]float64, defs []knobDef, fallback candidate) (candidate, bool) {
	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := knobs[d.Name]; ok {
			vals[i] = cliutil.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	return candidate{Vals: vals}, updated
}

func cloneCandidate(c candidate) candidate {
	out := candidate{Vals: make([]float64, len(c.Vals))}
	copy(out.Vals, c.Vals)
	return out
}
