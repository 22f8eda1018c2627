package heatmap

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders every occupied cell as a Polygon feature with
// its row, column and mean score.
func (h *Heatmap) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for row, values := range h.Grid {
		for col, v := range values {
			if !h.Occupied(row, col) {
				continue
			}

			f := geojson.NewFeature(h.CellBounds(row, col).Bound().ToPolygon())
			f.Properties["row"] = row
			f.Properties["col"] = col
			f.Properties["score"] = v
			fc.Append(f)
		}
	}

	fc.BBox = geojson.NewBBox(h.Bounds.Bound())

	return fc
}

// PointsFromFeatures reads heatmap points from Point features. The score is
// taken from the "score" property; features without one score 0.
func PointsFromFeatures(fc *geojson.FeatureCollection) []Point {
	points := make([]Point, 0, len(fc.Features))
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		points = append(points, Point{Lat: p.Lat(), Lng: p.Lon(), Score: f.Properties.MustFloat64("score", 0)})
	}
	return points
}
