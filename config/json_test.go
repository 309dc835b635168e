package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-verb/verb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verb.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSONOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `{
  "dry": 0.25,
  "room_size": 40,
  "lp_cutoff_hz": 3500,
  "modulation_enabled": true,
  "mod_amp_samples": 250,
  "seed": 7
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	def := verb.NewDefaultParams()
	if p.Dry != 0.25 || p.RoomSize != 40 || p.LPCutoff != 3500 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if !p.ModulationEnabled || p.ModAmp != 250 || p.Seed != 7 {
		t.Fatalf("modulation fields mismatch: %+v", p)
	}
	if p.Wet != def.Wet || p.Decay != def.Decay || p.ModFreq != def.ModFreq {
		t.Fatalf("absent fields should keep defaults: %+v", p)
	}
}

func TestLoadJSONRejectsOutOfRange(t *testing.T) {
	for _, content := range []string{
		`{"room_size": 5}`,
		`{"decay": 9}`,
		`{"lp_cutoff_hz": 30}`,
		`{"wet": 2}`,
		`{"mod_freq_hz": -1}`,
	} {
		if _, err := LoadJSON(writeConfig(t, content)); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}

func TestLoadJSONRejectsMalformed(t *testing.T) {
	if _, err := LoadJSON(writeConfig(t, `{"room_size": "big"}`)); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyFileKeepsDestinationOnError(t *testing.T) {
	p := verb.NewDefaultParams()
	bad := 500.0
	dry := float32(0.5)
	if err := ApplyFile(p, &File{Dry: &dry, RoomSize: &bad}); err == nil {
		t.Fatalf("expected validation error")
	}
	if *p != *verb.NewDefaultParams() {
		t.Fatalf("destination modified on error: %+v", p)
	}
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	p := verb.NewDefaultParams()
	p.RoomSize = 33
	p.Decay = 2.5
	p.Seed = 99
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, p); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if *got != *p {
		t.Fatalf("round trip mismatch: got=%+v want=%+v", got, p)
	}
}
