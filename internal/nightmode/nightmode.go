// Package nightmode decides when the app should switch to night safety mode.
package nightmode

import (
	"errors"
	"math"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/features"
	"github.com/woozymasta/safezone/internal/score"

	"github.com/rs/zerolog/log"
)

// PredictionError is the message carried by failed results.
const PredictionError = "night mode prediction error"

const (
	defaultPreference = 0.5
	maxRawScore       = 1.5
)

// ErrNonFiniteInput reports a NaN or Inf context field.
var ErrNonFiniteInput = errors.New("non-finite night mode input")

// Context describes the current surroundings of the user.
type Context struct {
	UserPreference    *float64 `json:"userPreference,omitempty" yaml:"user_preference,omitempty"`
	Hour              *int     `json:"hour,omitempty" yaml:"hour,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	UnsafeProbability float64  `json:"unsafeProbability" yaml:"unsafe_probability"`
	IncidentScore     float64  `json:"incidentScore" yaml:"incident_score"`
}

// Result is the outcome of Predict.
type Result struct {
	Error        string  `json:"error,omitempty"`
	Score        float64 `json:"score"`
	Threshold    float64 `json:"threshold"`
	ShouldEnable bool    `json:"shouldEnable"`
}

// Predictor weighs context signals against the configured trigger.
type Predictor struct {
	cfg config.Night
}

// NewPredictor returns a predictor using cfg.
func NewPredictor(cfg config.Night) *Predictor {
	return &Predictor{cfg: cfg}
}

// InWindow reports whether hour falls in the night window. A window whose
// start is after its end wraps midnight; the end hour is exclusive.
func (p *Predictor) InWindow(hour int) bool {
	if p.cfg.StartHour > p.cfg.EndHour {
		return hour >= p.cfg.StartHour || hour < p.cfg.EndHour
	}
	return hour >= p.cfg.StartHour && hour < p.cfg.EndHour
}

// Score returns the normalized night mode score of c.
func (p *Predictor) Score(c Context) (float64, error) {
	preference := defaultPreference
	if c.UserPreference != nil {
		preference = *c.UserPreference
	}

	for _, v := range []float64{c.UnsafeProbability, c.IncidentScore, preference} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNonFiniteInput
		}
	}

	raw := p.cfg.UnsafeZoneWeight*c.UnsafeProbability +
		p.cfg.IncidentWeight*c.IncidentScore +
		p.cfg.PreferenceWeight*preference

	if p.InWindow(features.Hour(c.Hour, c.Timestamp)) {
		raw += p.cfg.LateNightBonus
	}

	return score.Normalize(raw, 0, maxRawScore), nil
}

// Predict scores c and compares the score with the trigger threshold.
func (p *Predictor) Predict(c Context) Result {
	s, err := p.Score(c)
	if err != nil {
		log.Error().Err(err).Msg("Night mode prediction failed")
		return Result{Threshold: p.cfg.TriggerThreshold, Error: PredictionError}
	}

	return Result{
		Score:        s,
		ShouldEnable: s >= p.cfg.TriggerThreshold,
		Threshold:    p.cfg.TriggerThreshold,
	}
}
