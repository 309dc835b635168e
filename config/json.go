package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-verb/verb"
)

// File is the JSON schema for reverb configurations. Absent fields keep the
// value of the params they are applied to.
type File struct {
	Dry               *float32 `json:"dry"`
	Wet               *float32 `json:"wet"`
	RoomSize          *float64 `json:"room_size"`
	Decay             *float64 `json:"decay"`
	LPCutoff          *float64 `json:"lp_cutoff_hz"`
	ModulationEnabled *bool    `json:"modulation_enabled"`
	ModFreq           *float64 `json:"mod_freq_hz"`
	ModAmp            *float64 `json:"mod_amp_samples"`
	Seed              *int64   `json:"seed"`
}

// LoadJSON loads a configuration file and applies it on top of default params.
func LoadJSON(path string) (*verb.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := verb.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed configuration onto an existing params object.
// dst is left untouched when the result would not validate.
func ApplyFile(dst *verb.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	p := *dst
	if f.Dry != nil {
		p.Dry = *f.Dry
	}
	if f.Wet != nil {
		p.Wet = *f.Wet
	}
	if f.RoomSize != nil {
		p.RoomSize = *f.RoomSize
	}
	if f.Decay != nil {
		p.Decay = *f.Decay
	}
	if f.LPCutoff != nil {
		p.LPCutoff = *f.LPCutoff
	}
	if f.ModulationEnabled != nil {
		p.ModulationEnabled = *f.ModulationEnabled
	}
	if f.ModFreq != nil {
		p.ModFreq = *f.ModFreq
	}
	if f.ModAmp != nil {
		p.ModAmp = *f.ModAmp
	}
	if f.Seed != nil {
		p.Seed = *f.Seed
	}

	if err := p.Validate(); err != nil {
		return err
	}
	*dst = p
	return nil
}

// FromParams builds a fully populated File from p.
func FromParams(p *verb.Params) *File {
	if p == nil {
		return nil
	}
	c := *p
	return &File{
		Dry:               &c.Dry,
		Wet:               &c.Wet,
		RoomSize:          &c.RoomSize,
		Decay:             &c.Decay,
		LPCutoff:          &c.LPCutoff,
		ModulationEnabled: &c.ModulationEnabled,
		ModFreq:           &c.ModFreq,
		ModAmp:            &c.ModAmp,
		Seed:              &c.Seed,
	}
}

// WriteJSON writes p as an indented configuration file.
func WriteJSON(path string, p *verb.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
