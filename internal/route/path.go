package route

import (
	"container/heap"
	"math"

	"github.com/woozymasta/safezone/internal/geo"
)

// ShortestPath runs Dijkstra from source to target.
//
// It returns (0, [source]) when source equals target, and (+Inf, nil) when
// either endpoint is missing from the graph or no path connects them.
// Ties between equal-cost paths are broken by heap order.
func (g *Graph) ShortestPath(source, target geo.Coordinate) (float64, []geo.Coordinate) {
	if source == target {
		return 0, []geo.Coordinate{source}
	}
	if !g.Has(source) || !g.Has(target) {
		return math.Inf(1), nil
	}

	dist := map[geo.Coordinate]float64{source: 0}
	prev := make(map[geo.Coordinate]geo.Coordinate)
	visited := make(map[geo.Coordinate]bool)

	pq := &priorityQueue{}
	heap.Push(pq, pqItem{node: source, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == target {
			return cur.dist, reconstructPath(prev, source, target)
		}

		for _, e := range g.adj[cur.node] {
			if visited[e.To] {
				continue
			}
			next := cur.dist + e.WeightKm
			if old, ok := dist[e.To]; ok && next >= old {
				continue
			}
			dist[e.To] = next
			prev[e.To] = cur.node
			heap.Push(pq, pqItem{node: e.To, dist: next})
		}
	}

	return math.Inf(1), nil
}

func reconstructPath(prev map[geo.Coordinate]geo.Coordinate, source, target geo.Coordinate) []geo.Coordinate {
	path := []geo.Coordinate{target}
	for cur := target; cur != source; {
		cur = prev[cur]
		path = append(path, cur)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pqItem struct {
	node geo.Coordinate
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(pqItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
