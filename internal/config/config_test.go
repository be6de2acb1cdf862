package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Risk.SlateSize != 14 || cfg.Risk.Sims != 50000 {
		t.Errorf("unexpected defaults: slate=%d sims=%d", cfg.Risk.SlateSize, cfg.Risk.Sims)
	}
	if cfg.Odds.DevigMethod != "shin" {
		t.Errorf("devig method = %q, want shin", cfg.Odds.DevigMethod)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
risk:
  slate_size: 14
  sims: 1000
  max_duplos: 3
ensemble:
  weights:
    consensus: 0.5
    dixon-coles: 0.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Risk.Sims != 1000 {
		t.Errorf("sims = %d, want override 1000", cfg.Risk.Sims)
	}
	if cfg.Risk.MaxDuplos != 3 {
		t.Errorf("max duplos = %d, want 3", cfg.Risk.MaxDuplos)
	}
	// Untouched knobs keep defaults.
	if cfg.Ratings.Gain != 0.20 {
		t.Errorf("gain = %v, want default 0.20", cfg.Ratings.Gain)
	}
	if w := cfg.Ensemble.Weights["consensus"]; w != 0.5 {
		t.Errorf("consensus weight = %v, want 0.5", w)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejectsBadKnobs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gain too high", func(c *Config) { c.Ratings.Gain = 0.9 }},
		{"empty rho range", func(c *Config) { c.Scoring.RhoMin = 0.2; c.Scoring.RhoMax = -0.2 }},
		{"zero slate", func(c *Config) { c.Risk.SlateSize = 0 }},
		{"negative sims", func(c *Config) { c.Risk.Sims = -1 }},
		{"kelly fraction above 1", func(c *Config) { c.Risk.KellyFraction = 1.5 }},
		{"confidence at 1", func(c *Config) { c.Risk.VaRConfidence = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
