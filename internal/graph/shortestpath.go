package graph

import (
	"fmt"
	"math"
)

// freeFlowSpeed is the speed (m/s) at which an edge costs exactly its length.
const freeFlowSpeed = 30.0

// edgeCost is the routing weight of an edge: its length, stretched by the
// edge's speed limit relative to freeFlowSpeed so slow sections are avoided
// when a faster alternative of similar length exists.
func edgeCost(e *Edge) float64 {
	if e.SpeedLimit == nil || *e.SpeedLimit <= 0 || *e.SpeedLimit >= freeFlowSpeed {
		return e.Length
	}
	return e.Length * freeFlowSpeed / *e.SpeedLimit
}

// routing holds all-pairs results over node indices.
type routing struct {
	cost [][]float64
	hop  [][]int // next node on the cheapest path; -1 when unreachable
}

// solve runs Floyd-Warshall over the current topology.
func (g *Graph) solve() *routing {
	n := len(g.nodes)
	r := &routing{cost: make([][]float64, n), hop: make([][]int, n)}
	for i := range n {
		r.cost[i] = make([]float64, n)
		r.hop[i] = make([]int, n)
		for j := range n {
			r.cost[i][j] = math.Inf(1)
			r.hop[i][j] = -1
		}
		r.cost[i][i] = 0
		r.hop[i][i] = i
	}
	for _, e := range g.edges {
		u, v := g.index[e.U], g.index[e.V]
		if c := edgeCost(e); c < r.cost[u][v] {
			r.cost[u][v], r.hop[u][v] = c, v
		}
	}
	for k := range n {
		for i := range n {
			ik := r.cost[i][k]
			if math.IsInf(ik, 1) {
				continue
			}
			for j := range n {
				if c := ik + r.cost[k][j]; c < r.cost[i][j] {
					r.cost[i][j], r.hop[i][j] = c, r.hop[i][k]
				}
			}
		}
	}
	return r
}

// walk follows the hop table from u to v. It returns nil when v is
// unreachable.
func (r *routing) walk(u, v int) []int {
	if r.hop[u][v] < 0 {
		return nil
	}
	out := []int{u}
	for u != v {
		u = r.hop[u][v]
		out = append(out, u)
	}
	return out
}

// GetShortestPath returns the cheapest path between start and end. Length
// is the metric length of the chosen path. Results are cached until the
// graph changes.
func (g *Graph) GetShortestPath(start, end NodeID) (PathInfo, error) {
	key := pathKey(start, end)
	if p, ok := g.paths[key]; ok {
		return p, nil
	}
	u, ok := g.index[start]
	if !ok {
		return PathInfo{}, fmt.Errorf("node %q not found", start)
	}
	v, ok := g.index[end]
	if !ok {
		return PathInfo{}, fmt.Errorf("node %q not found", end)
	}
	if g.routing == nil {
		g.routing = g.solve()
	}
	hops := g.routing.walk(u, v)
	if hops == nil {
		return PathInfo{}, fmt.Errorf("no path from %q to %q", start, end)
	}

	p := PathInfo{ID: key, Route: make([]NodeID, len(hops))}
	for i, h := range hops {
		p.Route[i] = g.nodes[h].ID
		if i > 0 {
			p.Length += g.edgeByNodes[p.Route[i-1]][p.Route[i]].Length
		}
	}
	g.paths[key] = p
	return p, nil
}
