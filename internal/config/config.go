package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every knob of one engine run. Every field has a working
// default so a missing config file is not an error for the library; the
// CLI decides whether to require one.
type Config struct {
	Env      string         `yaml:"env"`
	Odds     OddsConfig     `yaml:"odds"`
	Ratings  RatingsConfig  `yaml:"ratings"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Ensemble EnsembleConfig `yaml:"ensemble"`
	Risk     RiskConfig     `yaml:"risk"`
}

type OddsConfig struct {
	DevigMethod     string             `yaml:"devig_method"`     // "shin" or "proportional"
	ProviderWeights map[string]float64 `yaml:"provider_weights"` // default 1.0 for all
}

type RatingsConfig struct {
	Gain  float64 `yaml:"gain"`
	Decay float64 `yaml:"decay"`
	Clip  float64 `yaml:"clip"`
}

type ScoringConfig struct {
	RhoMin    float64 `yaml:"rho_min"`
	RhoMax    float64 `yaml:"rho_max"`
	RhoStep   float64 `yaml:"rho_step"`
	RhoWindow int     `yaml:"rho_window"` // recent matches used by the rho fit
}

type EnsembleConfig struct {
	Weights      map[string]float64 `yaml:"weights"` // per-source blend weights
	TiltStrength float64            `yaml:"tilt_strength"`
	MinSamples   int                `yaml:"calibration_min_samples"`
	MinDistinct  int                `yaml:"calibration_min_distinct"`
}

type RiskConfig struct {
	SlateSize          int                `yaml:"slate_size"`
	Sims               int                `yaml:"sims"`
	Tickets            int                `yaml:"tickets"`
	MaxDuplos          int                `yaml:"max_duplos"`
	MaxTriplos         int                `yaml:"max_triplos"`
	KellyFraction      float64            `yaml:"kelly_fraction"`
	KellyCap           float64            `yaml:"kelly_cap"`
	MinDiversification float64            `yaml:"min_diversification"`
	VaRConfidence      float64            `yaml:"var_confidence"`
	Bankroll           string             `yaml:"bankroll"` // decimal string, empty for weight-only plans
	Paytable           map[int]float64    `yaml:"paytable"` // hits -> payout per unit
}

// Default returns the standard 14-match slate configuration.
func Default() *Config {
	return &Config{
		Env: getEnv("LOTECA_ENV", "production"),
		Odds: OddsConfig{
			DevigMethod: "shin",
		},
		Ratings: RatingsConfig{
			Gain:  0.20,
			Decay: 0.001,
			Clip:  3.0,
		},
		Scoring: ScoringConfig{
			RhoMin:    -0.12,
			RhoMax:    0.12,
			RhoStep:   0.01,
			RhoWindow: 2000,
		},
		Ensemble: EnsembleConfig{
			Weights: map[string]float64{
				"consensus":   0.4,
				"dixon-coles": 0.6,
			},
			TiltStrength: 0,
			MinSamples:   50,
			MinDistinct:  5,
		},
		Risk: RiskConfig{
			SlateSize:          14,
			Sims:               50000,
			Tickets:            5,
			MaxDuplos:          4,
			MaxTriplos:         2,
			KellyFraction:      0.25,
			KellyCap:           1.0,
			MinDiversification: 0.20,
			VaRConfidence:      0.95,
		},
	}
}

// Load reads a YAML config on top of the defaults. An empty path returns
// the defaults unchanged.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects knob values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Ratings.Gain <= 0 || c.Ratings.Gain > 0.5 {
		return fmt.Errorf("config: ratings gain %v outside (0, 0.5]", c.Ratings.Gain)
	}
	if c.Scoring.RhoMin > c.Scoring.RhoMax {
		return fmt.Errorf("config: rho range [%v, %v] is empty", c.Scoring.RhoMin, c.Scoring.RhoMax)
	}
	if c.Risk.SlateSize <= 0 {
		return fmt.Errorf("config: slate size must be positive, got %d", c.Risk.SlateSize)
	}
	if c.Risk.Sims <= 0 {
		return fmt.Errorf("config: simulation count must be positive, got %d", c.Risk.Sims)
	}
	if c.Risk.KellyFraction < 0 || c.Risk.KellyFraction > 1 {
		return fmt.Errorf("config: kelly fraction %v outside [0, 1]", c.Risk.KellyFraction)
	}
	if c.Risk.VaRConfidence <= 0 || c.Risk.VaRConfidence >= 1 {
		return fmt.Errorf("config: VaR confidence %v outside (0, 1)", c.Risk.VaRConfidence)
	}
	return nil
}

// getEnv reads an environment variable with a fallback.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
