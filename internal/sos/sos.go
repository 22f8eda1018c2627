// Package sos estimates how likely a user is to need an SOS prompt.
package sos

import (
	"fmt"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/features"
	"github.com/woozymasta/safezone/internal/score"

	"github.com/rs/zerolog/log"
)

// PredictionError is the message carried by failed results.
const PredictionError = "sos risk prediction error"

// Risk levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

const (
	speedScaleKmh   = 80.0
	timeScaleSecond = 600.0
)

// Context is the movement and app state of a user.
type Context struct {
	SpeedKmh          float64 `json:"speedKmh" yaml:"speed_kmh"`
	UnsafeProbability float64 `json:"unsafeProbability" yaml:"unsafe_probability"`
	TimeInAppSeconds  float64 `json:"timeInAppSeconds" yaml:"time_in_app_seconds"`
	SuddenStop        bool    `json:"suddenStop" yaml:"sudden_stop"`
}

// Result is the outcome of Predict.
type Result struct {
	Thresholds      config.Sos `json:"thresholds"`
	RiskLevel       string     `json:"riskLevel"`
	Error           string     `json:"error,omitempty"`
	RiskScore       float64    `json:"riskScore"`
	ShouldPromptSos bool       `json:"shouldPromptSos"`
}

// Predictor scores contexts with the sos-risk model of a registry.
type Predictor struct {
	models *score.Registry
	cfg    config.Sos
}

// NewPredictor returns a predictor using the given thresholds.
func NewPredictor(models *score.Registry, cfg config.Sos) *Predictor {
	return &Predictor{models: models, cfg: cfg}
}

// Features builds the model input [speed/80, sudden stop, unsafe probability, time in app/600].
func Features(c Context) []float64 {
	return []float64{
		c.SpeedKmh / speedScaleKmh,
		features.Bool(c.SuddenStop),
		c.UnsafeProbability,
		c.TimeInAppSeconds / timeScaleSecond,
	}
}

// Level maps a risk score onto low, medium or high.
func (p *Predictor) Level(riskScore float64) string {
	switch {
	case riskScore >= p.cfg.HighRiskThreshold:
		return LevelHigh
	case riskScore >= p.cfg.MediumRiskThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Predict scores c. A failure yields a zero low-risk result with Error set.
func (p *Predictor) Predict(c Context) Result {
	riskScore, err := p.score(c)
	if err != nil {
		log.Error().Err(err).Msg("SOS risk prediction failed")
		return Result{
			RiskLevel:  LevelLow,
			Thresholds: p.cfg,
			Error:      PredictionError,
		}
	}

	return Result{
		RiskScore:       riskScore,
		RiskLevel:       p.Level(riskScore),
		ShouldPromptSos: riskScore >= p.cfg.TriggerPromptThreshold,
		Thresholds:      p.cfg,
	}
}

func (p *Predictor) score(c Context) (float64, error) {
	model, err := p.models.Get(score.SosRiskModel)
	if err != nil {
		return 0, err
	}

	raw, err := model.PredictProbability(Features(c))
	if err != nil {
		return 0, fmt.Errorf("sos risk model: %w", err)
	}

	return score.Normalize(raw, 0, 1), nil
}
