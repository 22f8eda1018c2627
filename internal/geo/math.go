package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates
// using the haversine formula.
//
// It is the only distance function in the module: route lengths, graph edge
// weights and shortest-path searches must agree to the last bit.
func DistanceKm(a, b Coordinate) float64 {
	phiA := a.Lat * math.Pi / 180
	phiB := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phiA)*math.Cos(phiB)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// LengthKm sums DistanceKm over consecutive points. Routes with fewer than
// two points have zero length.
func (r Route) LengthKm() float64 {
	if len(r) < 2 {
		return 0
	}

	var total float64
	for i := 0; i < len(r)-1; i++ {
		total += DistanceKm(r[i], r[i+1])
	}

	return total
}
