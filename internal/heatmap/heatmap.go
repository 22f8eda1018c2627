// Package heatmap bins scored points into a fixed-size grid of cell means.
package heatmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/safezone/internal/geo"
)

// DefaultGridSize is the grid size used by unsafe zone detection.
const DefaultGridSize = 20

// spanEpsilon opens a degenerate bounds axis so interpolation never divides by zero.
const spanEpsilon = 1e-6

var (
	// ErrInvalidGridSize is returned for grid sizes below 1.
	ErrInvalidGridSize = errors.New("grid size must be at least 1")
	// ErrMalformedPoint is returned for points with NaN or Inf fields.
	ErrMalformedPoint = errors.New("malformed heatmap point")
	// ErrMalformedBounds is returned for bounds with NaN or Inf edges.
	ErrMalformedBounds = errors.New("malformed heatmap bounds")
)

// Point is a scored location.
type Point struct {
	Lat   float64 `json:"lat" yaml:"lat"`
	Lng   float64 `json:"lng" yaml:"lng"`
	Score float64 `json:"score" yaml:"score"`
}

// Heatmap is a GridSize x GridSize grid of mean scores. Grid[row][col] with
// rows along latitude and columns along longitude, both ascending.
type Heatmap struct {
	Grid     [][]float64 `json:"grid"`
	Bounds   geo.Bounds  `json:"bounds"`
	GridSize int         `json:"gridSize"`

	// points per cell, nil when the heatmap was not built from points
	counts [][]int
}

// Empty returns the heatmap handed out when the input cannot be used.
func Empty() *Heatmap {
	return &Heatmap{Grid: [][]float64{}, Bounds: geo.UnitBounds}
}

// Build aggregates points into a gridSize x gridSize heatmap.
//
// With nil bounds the extent is inferred from the points. Each point lands in
// the cell nearest to its interpolated position and cells hold the mean of
// their scores; empty cells stay 0.
//
// The returned heatmap is never nil: on error it is Empty().
func Build(points []Point, gridSize int, bounds *geo.Bounds) (*Heatmap, error) {
	if gridSize < 1 {
		return Empty(), fmt.Errorf("%w: %d", ErrInvalidGridSize, gridSize)
	}
	if bounds != nil && !bounds.Finite() {
		return Empty(), ErrMalformedBounds
	}
	for i, p := range points {
		if !finite(p.Lat) || !finite(p.Lng) || !finite(p.Score) {
			return Empty(), fmt.Errorf("point %d: %w", i, ErrMalformedPoint)
		}
	}

	h := &Heatmap{Grid: newGrid(gridSize), GridSize: gridSize}

	if len(points) == 0 {
		h.Bounds = geo.UnitBounds
		if bounds != nil {
			h.Bounds = *bounds
		}
		return h, nil
	}

	b := inferBounds(points)
	if bounds != nil {
		b = *bounds
	}
	if b.MaxLat == b.MinLat {
		b.MaxLat += spanEpsilon
	}
	if b.MaxLng == b.MinLng {
		b.MaxLng += spanEpsilon
	}
	h.Bounds = b

	counts := make([][]int, gridSize)
	for i := range counts {
		counts[i] = make([]int, gridSize)
	}
	h.counts = counts

	for _, p := range points {
		row := cellIndex(p.Lat, b.MinLat, b.MaxLat, gridSize)
		col := cellIndex(p.Lng, b.MinLng, b.MaxLng, gridSize)
		h.Grid[row][col] += p.Score
		counts[row][col]++
	}

	for r := range h.Grid {
		for c := range h.Grid[r] {
			if counts[r][c] > 0 {
				h.Grid[r][c] /= float64(counts[r][c])
			}
		}
	}

	return h, nil
}

// CellBounds returns the geographic rectangle covered by a cell. Cell
// centres sit on the interpolation nodes, so edge cells extend half a step
// past the heatmap bounds.
func (h *Heatmap) CellBounds(row, col int) geo.Bounds {
	latStep := step(h.Bounds.MinLat, h.Bounds.MaxLat, h.GridSize)
	lngStep := step(h.Bounds.MinLng, h.Bounds.MaxLng, h.GridSize)

	lat := h.Bounds.MinLat + float64(row)*latStep
	lng := h.Bounds.MinLng + float64(col)*lngStep

	return geo.Bounds{
		MinLat: lat - latStep/2,
		MaxLat: lat + latStep/2,
		MinLng: lng - lngStep/2,
		MaxLng: lng + lngStep/2,
	}
}

// Occupied reports whether any point landed in the cell. Heatmaps not built
// by Build treat every non-zero cell as occupied.
func (h *Heatmap) Occupied(row, col int) bool {
	if h.counts == nil {
		return h.Grid[row][col] != 0
	}
	return h.counts[row][col] > 0
}

// Max returns the largest cell value.
func (h *Heatmap) Max() float64 {
	var m float64
	for _, row := range h.Grid {
		for _, v := range row {
			m = math.Max(m, v)
		}
	}
	return m
}

// cellIndex clamps in float space; converting an out-of-range float to int
// is implementation defined.
func cellIndex(v, lo, hi float64, gridSize int) int {
	idx := math.Round((v - lo) / (hi - lo) * float64(gridSize-1))
	switch {
	case idx <= 0 || math.IsNaN(idx):
		return 0
	case idx >= float64(gridSize-1):
		return gridSize - 1
	default:
		return int(idx)
	}
}

func step(lo, hi float64, gridSize int) float64 {
	if gridSize < 2 {
		return hi - lo
	}
	return (hi - lo) / float64(gridSize-1)
}

func inferBounds(points []Point) geo.Bounds {
	b := geo.Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
	}
	return b
}

func newGrid(n int) [][]float64 {
	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
	}
	return grid
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
