// Package server exposes the safety scorers over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/nightmode"
	"github.com/woozymasta/safezone/internal/render"
	"github.com/woozymasta/safezone/internal/route"
	"github.com/woozymasta/safezone/internal/sos"
	"github.com/woozymasta/safezone/internal/source"

	"github.com/rs/zerolog/log"
)

const maxImageSize = 4096

// HandleOptimize ranks the posted candidate routes.
func (s *ServerContext) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var in source.RouteInput
	if !s.decodeBody(w, r, &in) {
		return
	}

	res := s.Optimizer.Optimize(in.Routes)
	if res.Failed() {
		fail(w, r, http.StatusUnprocessableEntity, res.Error, res)
		return
	}
	okResponse(w, r, "Safe route computed", res)
}

// HandleRoutesGeoJSON ranks the posted routes and replies with a GeoJSON
// FeatureCollection of them.
func (s *ServerContext) HandleRoutesGeoJSON(w http.ResponseWriter, r *http.Request) {
	var in source.RouteInput
	if !s.decodeBody(w, r, &in) {
		return
	}

	res := s.Optimizer.Optimize(in.Routes)
	if res.Failed() {
		fail(w, r, http.StatusUnprocessableEntity, res.Error, res)
		return
	}

	writeGeoJSON(w, r, route.FeatureCollection(in.Routes, res))
}

// HandleZones scores the posted locations for unsafe zones.
func (s *ServerContext) HandleZones(w http.ResponseWriter, r *http.Request) {
	var in source.ZoneInput
	if !s.decodeBody(w, r, &in) {
		return
	}

	res := s.Detector.Predict(in.Locations)
	if res.Error != "" {
		fail(w, r, http.StatusUnprocessableEntity, res.Error, res)
		return
	}
	okResponse(w, r, "Unsafe zones computed", res)
}

// HandleHeatmap aggregates the posted points into a heatmap.
func (s *ServerContext) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	if h, ok := s.heatmap(w, r); ok {
		okResponse(w, r, "Heatmap computed", h)
	}
}

// HandleHeatmapGeoJSON replies with the non-empty heatmap cells as GeoJSON polygons.
func (s *ServerContext) HandleHeatmapGeoJSON(w http.ResponseWriter, r *http.Request) {
	if h, ok := s.heatmap(w, r); ok {
		writeGeoJSON(w, r, h.FeatureCollection())
	}
}

// HandleHeatmapImage replies with the heatmap rendered as a WebP image. The
// edge length is taken from the size query parameter.
func (s *ServerContext) HandleHeatmapImage(w http.ResponseWriter, r *http.Request) {
	size := render.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxImageSize {
			fail(w, r, http.StatusBadRequest, "size must be an integer within 1.."+strconv.Itoa(maxImageSize), nil)
			return
		}
		size = n
	}

	h, ok := s.heatmap(w, r)
	if !ok {
		return
	}

	img, err := render.Image(h, size)
	if err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	var buf bytes.Buffer
	if err := render.EncodeWebP(&buf, img, render.DefaultQuality); err != nil {
		log.Error().Err(err).Msg("Failed to encode heatmap image")
		fail(w, r, http.StatusInternalServerError, "failed to encode heatmap image", nil)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *ServerContext) heatmap(w http.ResponseWriter, r *http.Request) (*heatmap.Heatmap, bool) {
	var in source.HeatmapInput
	if !s.decodeBody(w, r, &in) {
		return nil, false
	}

	gridSize := s.Config.Zone.HeatmapGridSize
	if in.GridSize != nil {
		gridSize = *in.GridSize
	}
	if limit := s.Config.Zone.MaxGridSize; limit > 0 && gridSize > limit {
		fail(w, r, http.StatusBadRequest, "gridSize must not exceed "+strconv.Itoa(limit), nil)
		return nil, false
	}
	bounds := s.Config.Zone.HeatmapBounds
	if in.Bounds != nil {
		bounds = in.Bounds
	}

	h, err := heatmap.Build(in.Points, gridSize, bounds)
	if err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error(), h)
		return nil, false
	}

	return h, true
}

// HandleSosRisk scores the posted movement context.
func (s *ServerContext) HandleSosRisk(w http.ResponseWriter, r *http.Request) {
	var in sos.Context
	if !s.decodeBody(w, r, &in) {
		return
	}

	res := s.Sos.Predict(in)
	if res.Error != "" {
		fail(w, r, http.StatusUnprocessableEntity, res.Error, res)
		return
	}
	okResponse(w, r, "SOS risk computed", res)
}

// HandleNightMode decides whether night safety mode should be enabled.
func (s *ServerContext) HandleNightMode(w http.ResponseWriter, r *http.Request) {
	var in nightmode.Context
	if !s.decodeBody(w, r, &in) {
		return
	}

	res := s.Night.Predict(in)
	if res.Error != "" {
		fail(w, r, http.StatusUnprocessableEntity, res.Error, res)
		return
	}
	okResponse(w, r, "Night mode computed", res)
}

// HandleModels lists the registered scorers.
func (s *ServerContext) HandleModels(w http.ResponseWriter, r *http.Request) {
	okResponse(w, r, "Models loaded", s.Models.List())
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	okResponse(w, r, "OK", map[string]any{"models": len(s.Models.List())})
}

// HandleNotFound replies to unknown paths with an envelope.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusNotFound, "not found", nil)
}

// HandleMethodNotAllowed replies to known paths with the wrong method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
}

func writeGeoJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
	}
}
