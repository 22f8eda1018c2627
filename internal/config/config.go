// Package config handles configuration loading and the tuning constants of
// every scorer.
package config

import (
	"fmt"
	"os"

	"github.com/woozymasta/safezone/internal/geo"
	"github.com/woozymasta/safezone/internal/score"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Route  Route  `yaml:"route" json:"route"`
	Zone   Zone   `yaml:"zone" json:"zone"`
	Night  Night  `yaml:"night" json:"night"`
	Sos    Sos    `yaml:"sos" json:"sos"`
	Models Models `yaml:"models" json:"models"`
}

// Route tunes the safe route optimizer.
type Route struct {
	MaxRouteLengthKm  float64 `yaml:"max_route_length_km" json:"maxRouteLengthKm"`
	MinSafeRouteScore float64 `yaml:"min_safe_route_score" json:"minSafeRouteScore"`
}

// Zone tunes unsafe zone detection and its heatmap.
type Zone struct {
	// nil bounds are inferred from the scored locations
	HeatmapBounds        *geo.Bounds `yaml:"heatmap_bounds,omitempty" json:"heatmapBounds,omitempty"`
	DefaultAlertType     string      `yaml:"default_alert_type" json:"defaultAlertType"`
	DefaultSeverity      string      `yaml:"default_severity" json:"defaultSeverity"`
	ProbabilityThreshold float64     `yaml:"probability_threshold" json:"probabilityThreshold"`
	HeatmapGridSize      int         `yaml:"heatmap_grid_size" json:"heatmapGridSize"`
	// upper bound for grid sizes chosen by API clients
	MaxGridSize          int         `yaml:"max_grid_size" json:"maxGridSize"`
}

// GridSizeLimit caps zone.max_grid_size.
const GridSizeLimit = 1024

// Night tunes the night safety mode trigger.
type Night struct {
	StartHour        int     `yaml:"start_hour" json:"startHour"`
	EndHour          int     `yaml:"end_hour" json:"endHour"`
	TriggerThreshold float64 `yaml:"trigger_threshold" json:"triggerThreshold"`
	UnsafeZoneWeight float64 `yaml:"unsafe_zone_weight" json:"unsafeZoneWeight"`
	IncidentWeight   float64 `yaml:"incident_weight" json:"incidentWeight"`
	PreferenceWeight float64 `yaml:"preference_weight" json:"preferenceWeight"`
	LateNightBonus   float64 `yaml:"late_night_bonus" json:"lateNightBonus"`
}

// Sos tunes SOS risk levels.
type Sos struct {
	HighRiskThreshold      float64 `yaml:"high_risk_threshold" json:"high"`
	MediumRiskThreshold    float64 `yaml:"medium_risk_threshold" json:"medium"`
	TriggerPromptThreshold float64 `yaml:"trigger_prompt_threshold" json:"prompt"`
}

// Models overrides the parameters of the placeholder models.
type Models struct {
	UnsafeZone Logistic `yaml:"unsafe_zone" json:"unsafeZone"`
	SosRisk    Forest   `yaml:"sos_risk" json:"sosRisk"`
}

// Logistic holds logistic regression parameters.
type Logistic struct {
	Weights []float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Bias    float64   `yaml:"bias,omitempty" json:"bias,omitempty"`
}

// Forest holds the trees of a forest model.
type Forest struct {
	Trees []score.Tree `yaml:"trees,omitempty" json:"trees,omitempty"`
}

// Default returns the built-in tuning.
func Default() *Config {
	return &Config{
		Route: Route{
			MaxRouteLengthKm:  25,
			MinSafeRouteScore: 0.5,
		},
		Zone: Zone{
			ProbabilityThreshold: 0.6,
			HeatmapGridSize:      20,
			MaxGridSize:          256,
			DefaultAlertType:     "unsafe-zone",
			DefaultSeverity:      "high",
		},
		Night: Night{
			StartHour:        22,
			EndHour:          5,
			TriggerThreshold: 0.6,
			UnsafeZoneWeight: 0.5,
			IncidentWeight:   0.3,
			PreferenceWeight: 0.2,
			LateNightBonus:   0.1,
		},
		Sos: Sos{
			HighRiskThreshold:      0.75,
			MediumRiskThreshold:    0.4,
			TriggerPromptThreshold: 0.6,
		},
	}
}

// Load reads the YAML configuration file from the specified path.
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the scorers cannot work with.
func (c *Config) Validate() error {
	if c.Route.MaxRouteLengthKm <= 0 {
		return fmt.Errorf("route.max_route_length_km must be > 0, got %g", c.Route.MaxRouteLengthKm)
	}
	if c.Zone.HeatmapGridSize < 1 {
		return fmt.Errorf("zone.heatmap_grid_size must be >= 1, got %d", c.Zone.HeatmapGridSize)
	}
	if c.Zone.MaxGridSize < 1 || c.Zone.MaxGridSize > GridSizeLimit {
		return fmt.Errorf("zone.max_grid_size must be within 1..%d, got %d", GridSizeLimit, c.Zone.MaxGridSize)
	}
	if c.Zone.HeatmapGridSize > c.Zone.MaxGridSize {
		return fmt.Errorf("zone.heatmap_grid_size must not exceed zone.max_grid_size (%d), got %d",
			c.Zone.MaxGridSize, c.Zone.HeatmapGridSize)
	}
	if b := c.Zone.HeatmapBounds; b != nil && !b.Finite() {
		return fmt.Errorf("zone.heatmap_bounds must be finite")
	}
	if c.Night.StartHour < 0 || c.Night.StartHour > 23 || c.Night.EndHour < 0 || c.Night.EndHour > 23 {
		return fmt.Errorf("night hours must be within 0..23")
	}
	if c.Sos.MediumRiskThreshold > c.Sos.HighRiskThreshold {
		return fmt.Errorf("sos.medium_risk_threshold must not exceed sos.high_risk_threshold")
	}

	return nil
}

// Registry builds a scorer registry whose models use the configured
// parameters, falling back to the built-in defaults where none are set.
func (m Models) Registry() *score.Registry {
	r := score.NewRegistry()

	r.Register(score.UnsafeZoneModel, "LogisticModel", func() (score.Scorer, error) {
		model := score.NewLogisticModel()
		if len(m.UnsafeZone.Weights) > 0 {
			model.Weights = append([]float64(nil), m.UnsafeZone.Weights...)
		}
		model.Bias = m.UnsafeZone.Bias
		return model, nil
	})

	r.Register(score.SosRiskModel, "ForestModel", func() (score.Scorer, error) {
		model := score.NewForestModel()
		if len(m.SosRisk.Trees) > 0 {
			model.Trees = append([]score.Tree(nil), m.SosRisk.Trees...)
		}
		return model, nil
	})

	return r
}
