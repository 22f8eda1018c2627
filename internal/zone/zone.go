// Package zone scores locations for unsafe-zone probability and aggregates
// the scores into a heatmap.
package zone

import (
	"fmt"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/features"
	"github.com/woozymasta/safezone/internal/geo"
	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/score"

	"github.com/rs/zerolog/log"
)

// PredictionError is the message carried by failed results.
const PredictionError = "unsafe zone prediction error"

const (
	defaultCrowdScore  = 0.5
	defaultDescription = "Unsafe zone detected by model"
	fallbackSeverity   = "medium"
)

// Location is one observation to score.
type Location struct {
	CrowdScore      *float64       `json:"crowdScore,omitempty" yaml:"crowd_score,omitempty"`
	Hour            *int           `json:"hour,omitempty" yaml:"hour,omitempty"`
	ID              string         `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp       string         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	Features        []float64      `json:"features,omitempty" yaml:"features,omitempty"`
	Location        geo.Coordinate `json:"location" yaml:"location"`
	RecentIncidents float64        `json:"recentIncidents,omitempty" yaml:"recent_incidents,omitempty"`
}

// Alert is raised for every scored location.
type Alert struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Description string         `json:"description"`
	Location    geo.Coordinate `json:"location"`
}

// Score is the model verdict for one location.
type Score struct {
	ID                string  `json:"id"`
	UnsafeProbability float64 `json:"unsafeProbability"`
	IsUnsafe          bool    `json:"isUnsafe"`
}

// Result is the outcome of Predict. On failure Alerts and Scores are empty,
// Heatmap is heatmap.Empty() and Error is set.
type Result struct {
	Heatmap *heatmap.Heatmap `json:"heatmap"`
	Error   string           `json:"error,omitempty"`
	Alerts  []Alert          `json:"alerts"`
	Scores  []Score          `json:"scores"`
}

// Detector scores locations with the unsafe-zone model of a registry.
type Detector struct {
	models *score.Registry
	cfg    config.Zone
}

// NewDetector returns a detector. The model is resolved on first Predict.
func NewDetector(models *score.Registry, cfg config.Zone) *Detector {
	if cfg.HeatmapGridSize < 1 {
		cfg.HeatmapGridSize = heatmap.DefaultGridSize
	}
	return &Detector{models: models, cfg: cfg}
}

// Predict scores every location, raises one alert per location and builds
// the heatmap of unsafe probabilities.
func (d *Detector) Predict(locations []Location) Result {
	res, err := d.predict(locations)
	if err != nil {
		log.Error().Err(err).Int("locations", len(locations)).Msg("Unsafe zone prediction failed")
		return Result{
			Alerts:  []Alert{},
			Scores:  []Score{},
			Heatmap: heatmap.Empty(),
			Error:   PredictionError,
		}
	}
	return res
}

func (d *Detector) predict(locations []Location) (Result, error) {
	model, err := d.models.Get(score.UnsafeZoneModel)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Alerts: make([]Alert, 0, len(locations)),
		Scores: make([]Score, 0, len(locations)),
	}
	points := make([]heatmap.Point, 0, len(locations))

	for i, loc := range locations {
		raw, err := model.PredictProbability(Features(loc))
		if err != nil {
			return Result{}, fmt.Errorf("location %d: %w", i, err)
		}
		p := score.Clamp01(raw)
		unsafe := p >= d.cfg.ProbabilityThreshold

		id := loc.ID
		if id == "" {
			id = fmt.Sprintf("unsafe-%d", i)
		}

		severity := fallbackSeverity
		if unsafe {
			severity = d.cfg.DefaultSeverity
		}

		description := loc.Description
		if description == "" {
			description = defaultDescription
		}

		res.Alerts = append(res.Alerts, Alert{
			ID:          id,
			Type:        d.cfg.DefaultAlertType,
			Severity:    severity,
			Timestamp:   loc.Timestamp,
			Location:    loc.Location,
			Description: description,
		})
		res.Scores = append(res.Scores, Score{ID: id, UnsafeProbability: p, IsUnsafe: unsafe})
		points = append(points, heatmap.Point{Lat: loc.Location.Lat, Lng: loc.Location.Lng, Score: p})
	}

	res.Heatmap, err = heatmap.Build(points, d.cfg.HeatmapGridSize, d.cfg.HeatmapBounds)
	if err != nil {
		return Result{}, err
	}

	log.Debug().
		Int("locations", len(locations)).
		Int("unsafe", countUnsafe(res.Scores)).
		Msg("Unsafe zones scored")

	return res, nil
}

// Features builds the model input for a location: explicit features when
// given, otherwise [hour/23, recent incidents, crowd score, 1].
func Features(loc Location) []float64 {
	if len(loc.Features) > 0 {
		return loc.Features
	}

	crowd := defaultCrowdScore
	if loc.CrowdScore != nil {
		crowd = *loc.CrowdScore
	}

	return []float64{
		float64(features.Hour(loc.Hour, loc.Timestamp)) / 23,
		loc.RecentIncidents,
		crowd,
		1,
	}
}

func countUnsafe(scores []Score) int {
	var n int
	for _, s := range scores {
		if s.IsUnsafe {
			n++
		}
	}
	return n
}
