package server

import (
	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/nightmode"
	"github.com/woozymasta/safezone/internal/route"
	"github.com/woozymasta/safezone/internal/score"
	"github.com/woozymasta/safezone/internal/sos"
	"github.com/woozymasta/safezone/internal/zone"

	"github.com/rs/zerolog/log"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 8 << 20

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config       *config.Config
	Models       *score.Registry
	Optimizer    *route.Optimizer
	Detector     *zone.Detector
	Sos          *sos.Predictor
	Night        *nightmode.Predictor
	MaxBodyBytes int64
}

// NewServerContext wires the scorers from the configuration. Models are
// built lazily on first use.
func NewServerContext(cfg *config.Config) *ServerContext {
	models := cfg.Models.Registry()

	s := &ServerContext{
		Config:       cfg,
		Models:       models,
		Optimizer:    route.NewOptimizer(cfg.Route),
		Detector:     zone.NewDetector(models, cfg.Zone),
		Sos:          sos.NewPredictor(models, cfg.Sos),
		Night:        nightmode.NewPredictor(cfg.Night),
		MaxBodyBytes: DefaultMaxBodyBytes,
	}

	log.Info().
		Float64("max_route_length_km", cfg.Route.MaxRouteLengthKm).
		Int("heatmap_grid_size", cfg.Zone.HeatmapGridSize).
		Int("models", len(models.List())).
		Msg("Server context initialized successfully")

	return s
}
