package route

import (
	"github.com/woozymasta/safezone/internal/geo"

	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the candidate routes as LineString features
// carrying their summary as properties, in ranking order.
func FeatureCollection(routes []geo.Route, res Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, s := range res.Summaries {
		if s.Index < 0 || s.Index >= len(routes) {
			continue
		}

		f := geojson.NewFeature(routes[s.Index].LineString())
		f.Properties["index"] = s.Index
		f.Properties["lengthKm"] = s.LengthKm
		f.Properties["safetyScore"] = s.SafetyScore
		f.Properties["isRecommended"] = s.IsRecommended
		f.Properties["meetsMinimum"] = s.MeetsMinimum
		if s.Reachable() {
			f.Properties["graphDistanceKm"] = s.GraphDistanceKm
		}

		fc.Append(f)
	}

	return fc
}
