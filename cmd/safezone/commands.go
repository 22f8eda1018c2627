package main

import (
	"errors"
	"fmt"

	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/route"
	"github.com/woozymasta/safezone/internal/source"
	"github.com/woozymasta/safezone/internal/zone"

	"github.com/rs/zerolog/log"
)

type routeCommand struct {
	In  inputOptions  `group:"Input options"`
	Out outputOptions `group:"Output options"`
}

func (c *routeCommand) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, format, err := readInput(c.In)
	if err != nil {
		return err
	}

	routes, err := source.Routes(data, format)
	if err != nil {
		return err
	}

	res := route.NewOptimizer(cfg.Route).Optimize(routes)
	if res.Failed() {
		return errors.New(res.Error)
	}

	if best, ok := res.Best(); ok {
		log.Info().
			Int("routes", len(routes)).
			Int("best", best.Index).
			Float64("score", best.SafetyScore).
			Float64("length_km", best.LengthKm).
			Msg("Safe route computed")
	}

	return c.Out.write(res, route.FeatureCollection(routes, res))
}

type zonesCommand struct {
	In     inputOptions  `group:"Input options"`
	Out    outputOptions `group:"Output options"`
	Render renderOptions `group:"Render options"`
}

func (c *zonesCommand) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, format, err := readInput(c.In)
	if err != nil {
		return err
	}

	locations, err := source.Locations(data, format)
	if err != nil {
		return err
	}

	res := zone.NewDetector(cfg.Models.Registry(), cfg.Zone).Predict(locations)
	if res.Error != "" {
		return errors.New(res.Error)
	}

	log.Info().
		Int("locations", len(locations)).
		Int("alerts", len(res.Alerts)).
		Msg("Unsafe zones computed")

	if err := renderHeatmap(res.Heatmap, c.Render); err != nil {
		return err
	}

	return c.Out.write(res, res.Heatmap.FeatureCollection())
}

type heatmapCommand struct {
	In       inputOptions  `group:"Input options"`
	Out      outputOptions `group:"Output options"`
	Render   renderOptions `group:"Render options"`
	GridSize int           `short:"g" long:"grid-size" description:"Grid size, taken from the input or configuration if 0"`
}

func (c *heatmapCommand) Execute([]string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, format, err := readInput(c.In)
	if err != nil {
		return err
	}

	in, err := source.Heatmap(data, format)
	if err != nil {
		return err
	}

	gridSize := cfg.Zone.HeatmapGridSize
	switch {
	case c.GridSize != 0:
		gridSize = c.GridSize
	case in.GridSize != nil:
		gridSize = *in.GridSize
	}
	if gridSize > cfg.Zone.MaxGridSize {
		return fmt.Errorf("grid size %d exceeds zone.max_grid_size %d", gridSize, cfg.Zone.MaxGridSize)
	}

	bounds := cfg.Zone.HeatmapBounds
	if in.Bounds != nil {
		bounds = in.Bounds
	}

	h, err := heatmap.Build(in.Points, gridSize, bounds)
	if err != nil {
		return err
	}

	log.Info().
		Int("points", len(in.Points)).
		Int("grid", h.GridSize).
		Float64("max", h.Max()).
		Msg("Heatmap computed")

	if err := renderHeatmap(h, c.Render); err != nil {
		return err
	}

	return c.Out.write(h, h.FeatureCollection())
}
