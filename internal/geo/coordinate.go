// Package geo handles coordinates, routes and great-circle distance math.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Coordinate is a WGS84 position in degrees.
// Two coordinates are the same graph node only if both fields are equal.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// FromPoint converts an orb point ([lon, lat]) into a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Point returns the coordinate as an orb point.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// Finite reports whether both components are real numbers.
func (c Coordinate) Finite() bool {
	return isFinite(c.Lat) && isFinite(c.Lng)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g,%g)", c.Lat, c.Lng)
}

// Route is an ordered sequence of coordinates.
type Route []Coordinate

// LineString returns the route as an orb line string.
func (r Route) LineString() orb.LineString {
	ls := make(orb.LineString, len(r))
	for i, c := range r {
		ls[i] = c.Point()
	}
	return ls
}

// RouteFromLineString converts an orb line string into a Route.
func RouteFromLineString(ls orb.LineString) Route {
	r := make(Route, len(ls))
	for i, p := range ls {
		r[i] = FromPoint(p)
	}
	return r
}

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	MinLat float64 `json:"minLat" yaml:"min_lat"`
	MaxLat float64 `json:"maxLat" yaml:"max_lat"`
	MinLng float64 `json:"minLng" yaml:"min_lng"`
	MaxLng float64 `json:"maxLng" yaml:"max_lng"`
}

// UnitBounds is the (0,1,0,1) rectangle used when nothing better is known.
var UnitBounds = Bounds{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1}

// Bound returns the rectangle as an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Finite reports whether every edge of the rectangle is a real number.
func (b Bounds) Finite() bool {
	return isFinite(b.MinLat) && isFinite(b.MaxLat) &&
		isFinite(b.MinLng) && isFinite(b.MaxLng)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
