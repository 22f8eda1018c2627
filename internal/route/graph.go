// Package route ranks candidate routes by safety using a shared segment graph.
package route

import "github.com/woozymasta/safezone/internal/geo"

// Edge is one direction of an undirected segment.
type Edge struct {
	To geo.Coordinate
	// WeightKm is the segment length; it doubles as the risk weight.
	WeightKm float64
}

// Graph is an undirected weighted graph keyed by exact coordinate.
type Graph struct {
	adj map[geo.Coordinate][]Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[geo.Coordinate][]Edge)}
}

// BuildGraph unions the segments of every route into one graph. Routes with
// fewer than two points add nothing; routes sharing a coordinate meet there.
func BuildGraph(routes []geo.Route) *Graph {
	g := NewGraph()
	for _, r := range routes {
		for i := 0; i < len(r)-1; i++ {
			g.AddEdge(r[i], r[i+1], geo.DistanceKm(r[i], r[i+1]))
		}
	}
	return g
}

// AddEdge inserts a->b and b->a with the same weight. A pair of equal
// coordinates is ignored. Parallel edges are kept.
func (g *Graph) AddEdge(a, b geo.Coordinate, weightKm float64) {
	if a == b {
		return
	}
	g.adj[a] = append(g.adj[a], Edge{To: b, WeightKm: weightKm})
	g.adj[b] = append(g.adj[b], Edge{To: a, WeightKm: weightKm})
}

// Has reports whether c is a node of the graph.
func (g *Graph) Has(c geo.Coordinate) bool {
	_, ok := g.adj[c]
	return ok
}

// Neighbors returns the edges leaving c.
func (g *Graph) Neighbors(c geo.Coordinate) []Edge {
	return g.adj[c]
}

// NodeCount returns the number of distinct coordinates.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges, parallel ones included.
func (g *Graph) EdgeCount() int {
	var n int
	for _, edges := range g.adj {
		n += len(edges)
	}
	return n / 2
}
