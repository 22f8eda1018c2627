package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/woozymasta/safezone/internal/geo"
	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/zone"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

// RouteInput is the document accepted by route optimization.
type RouteInput struct {
	Routes []geo.Route `json:"routes" yaml:"routes"`
}

// ZoneInput is the document accepted by unsafe zone detection.
type ZoneInput struct {
	Locations []zone.Location `json:"locations" yaml:"locations"`
}

// HeatmapInput is the document accepted by heatmap building. GridSize and
// Bounds are optional.
type HeatmapInput struct {
	GridSize *int            `json:"gridSize,omitempty" yaml:"grid_size,omitempty"`
	Bounds   *geo.Bounds     `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Points   []heatmap.Point `json:"points" yaml:"points"`
}

// Routes decodes candidate routes. JSON and YAML take a RouteInput or a bare
// list of routes; GeoJSON takes LineString and MultiLineString features.
func Routes(data []byte, format Format) ([]geo.Route, error) {
	if format == FormatGeoJSON {
		fc, err := featureCollection(data)
		if err != nil {
			return nil, err
		}
		return routesFromFeatures(fc), nil
	}

	var in RouteInput
	if err := decodeEither(data, format, &in, &in.Routes); err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	return in.Routes, nil
}

// Locations decodes locations to score. JSON and YAML take a ZoneInput or a
// bare list; GeoJSON takes Point features whose properties carry the
// location fields.
func Locations(data []byte, format Format) ([]zone.Location, error) {
	if format == FormatGeoJSON {
		fc, err := featureCollection(data)
		if err != nil {
			return nil, err
		}
		return locationsFromFeatures(fc), nil
	}

	var in ZoneInput
	if err := decodeEither(data, format, &in, &in.Locations); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return in.Locations, nil
}

// Heatmap decodes heatmap input. GeoJSON takes Point features with a score
// property and never sets GridSize or Bounds.
func Heatmap(data []byte, format Format) (HeatmapInput, error) {
	if format == FormatGeoJSON {
		fc, err := featureCollection(data)
		if err != nil {
			return HeatmapInput{}, err
		}
		return HeatmapInput{Points: heatmap.PointsFromFeatures(fc)}, nil
	}

	var in HeatmapInput
	if err := decodeEither(data, format, &in, &in.Points); err != nil {
		return HeatmapInput{}, fmt.Errorf("decode points: %w", err)
	}
	return in, nil
}

// decodeEither decodes a wrapping object into obj, or a bare list into list.
func decodeEither(data []byte, format Format, obj, list any) error {
	if format == FormatYAML {
		var probe yaml.Node
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return err
		}
		if len(probe.Content) > 0 && probe.Content[0].Kind == yaml.SequenceNode {
			return probe.Content[0].Decode(list)
		}
		return yaml.Unmarshal(data, obj)
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		return json.Unmarshal(data, list)
	}
	return json.Unmarshal(data, obj)
}

func isGeoJSON(data []byte) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(data, &probe) != nil {
		return false
	}

	switch probe.Type {
	case "FeatureCollection", "Feature", "Point", "LineString", "MultiLineString":
		return true
	default:
		return false
	}
}

// featureCollection accepts a FeatureCollection, a single Feature or a
// bare geometry.
func featureCollection(data []byte) (*geojson.FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return geojson.NewFeatureCollection().Append(f), nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return geojson.NewFeatureCollection().Append(geojson.NewFeature(g.Geometry())), nil
	}
}

func routesFromFeatures(fc *geojson.FeatureCollection) []geo.Route {
	routes := make([]geo.Route, 0, len(fc.Features))
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			routes = append(routes, geo.RouteFromLineString(g))
		case orb.MultiLineString:
			for _, ls := range g {
				routes = append(routes, geo.RouteFromLineString(ls))
			}
		}
	}
	return routes
}

func locationsFromFeatures(fc *geojson.FeatureCollection) []zone.Location {
	locs := make([]zone.Location, 0, len(fc.Features))
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}

		props := f.Properties
		loc := zone.Location{
			Location:        geo.FromPoint(p),
			ID:              props.MustString("id", ""),
			Timestamp:       props.MustString("timestamp", ""),
			Description:     props.MustString("description", ""),
			RecentIncidents: props.MustFloat64("recentIncidents", 0),
		}
		if f.ID != nil && loc.ID == "" {
			loc.ID = fmt.Sprint(f.ID)
		}
		if v, ok := props["crowdScore"].(float64); ok {
			loc.CrowdScore = &v
		}
		if v, ok := props["hour"].(float64); ok {
			h := int(v)
			loc.Hour = &h
		}

		locs = append(locs, loc)
	}
	return locs
}
