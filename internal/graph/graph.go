// Package graph provides the route network consumed by the train controller
// and the traffic AI: nodes with world positions, directed edges carrying a
// sampled curve and an optional speed limit, and cached shortest-path queries.
package graph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// NodeID, EdgeID, PathID are string aliases used as identifiers.
type (
	NodeID = string
	EdgeID = string
	PathID = string
)

// Coordinate is a world position in metres (Y up).
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns c as a vector.
func (c Coordinate) Vec() mgl64.Vec3 { return mgl64.Vec3{c.X, c.Y, c.Z} }

// Node is a junction or end point of the network.
type Node struct {
	ID  NodeID     `json:"node_id"`
	Loc Coordinate `json:"loc"`
}

// Edge is a directed connection between two nodes. The edge follows a
// Catmull-Rom curve from U through the Via control points to V.
// Length may be left zero, in which case the sampled curve length is used.
// SpeedLimit is optional: if nil the edge imposes no limit.
type Edge struct {
	ID         EdgeID       `json:"edge_id"`
	U          NodeID       `json:"u"`
	V          NodeID       `json:"v"`
	Length     float64      `json:"length,omitempty"`      // metres
	SpeedLimit *float64     `json:"speed_limit,omitempty"` // m/s; nil = no restriction
	Via        []Coordinate `json:"via,omitempty"`

	curve *Curve
}

// SampledLength returns the arc length of the edge's sampled curve.
func (e *Edge) SampledLength() float64 { return e.curve.Length() }

// EvaluatePositionAndTangent returns the position and unit tangent at
// normalised parameter t ∈ [0, 1] along the edge.
func (e *Edge) EvaluatePositionAndTangent(t float64) (mgl64.Vec3, mgl64.Vec3) {
	return e.curve.EvaluatePositionAndTangent(t)
}

// Samples returns the sampled curve points of the edge.
func (e *Edge) Samples() []mgl64.Vec3 { return e.curve.Points() }

// GraphData is the serialisable input representation of a network graph.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// PathInfo holds the result of a shortest-path computation.
type PathInfo struct {
	ID     PathID
	Route  []NodeID // ordered node IDs from start to end
	Length float64  // total path length in metres
}

// RouteProvider answers route queries between two nodes. Callers only read
// the returned edges.
type RouteProvider interface {
	TryFindRoute(from, to NodeID) ([]*Edge, bool)
}

// Graph is a directed network with cached cheapest-path queries. It is not
// safe for concurrent mutation.
type Graph struct {
	nodes       []Node
	edges       []*Edge
	index       map[NodeID]int // position in nodes
	edgeMap     map[EdgeID]*Edge
	edgeByNodes map[NodeID]map[NodeID]*Edge // u → v → cheapest edge

	routing *routing // nil until first query after a change
	paths   map[PathID]PathInfo
}

// NewGraph builds a Graph from GraphData, returning an error if any node or
// edge reference is invalid.
func NewGraph(data GraphData) (*Graph, error) {
	g := &Graph{
		index:       make(map[NodeID]int),
		edgeMap:     make(map[EdgeID]*Edge),
		edgeByNodes: make(map[NodeID]map[NodeID]*Edge),
		paths:       make(map[PathID]PathInfo),
	}
	for _, n := range data.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode adds a node. The ID must be new.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.index[n.ID]; exists {
		return fmt.Errorf("node %q already exists", n.ID)
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.invalidate()
	return nil
}

func (g *Graph) invalidate() {
	g.routing = nil
	clear(g.paths)
}

func (g *Graph) node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// AddEdge adds a directed edge to the graph and samples its curve. Returns an
// error if the edge ID already exists or either endpoint node is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, exists := g.edgeMap[e.ID]; exists {
		return fmt.Errorf("edge %q already exists", e.ID)
	}
	u, ok := g.node(e.U)
	if !ok {
		return fmt.Errorf("edge %q: source node %q not found", e.ID, e.U)
	}
	v, ok := g.node(e.V)
	if !ok {
		return fmt.Errorf("edge %q: target node %q not found", e.ID, e.V)
	}

	control := []mgl64.Vec3{u.Loc.Vec()}
	for _, c := range e.Via {
		control = append(control, c.Vec())
	}
	control = append(control, v.Loc.Vec())
	e.Via = append([]Coordinate(nil), e.Via...)
	e.curve = NewCurve(control, false)
	if e.Length <= 0 {
		e.Length = e.curve.Length()
	}

	edge := &e
	g.edges = append(g.edges, edge)
	g.edgeMap[e.ID] = edge
	if g.edgeByNodes[e.U] == nil {
		g.edgeByNodes[e.U] = make(map[NodeID]*Edge)
	}
	if old := g.edgeByNodes[e.U][e.V]; old == nil || edgeCost(edge) < edgeCost(old) {
		g.edgeByNodes[e.U][e.V] = edge
	}
	g.invalidate()
	return nil
}

// pathKey returns a canonical string key for a start→end pair.
func pathKey(start, end NodeID) PathID { return start + "->" + end }

// GetNode looks up a node by its ID.
func (g *Graph) GetNode(id NodeID) (Node, error) {
	n, ok := g.node(id)
	if !ok {
		return Node{}, fmt.Errorf("node %q not found", id)
	}
	return n, nil
}

// GetEdgeByID looks up an edge by its ID.
func (g *Graph) GetEdgeByID(id EdgeID) (*Edge, error) {
	e, ok := g.edgeMap[id]
	if !ok {
		return nil, fmt.Errorf("edge %q not found", id)
	}
	return e, nil
}

// GetEdge returns the directed edge from u to v.
func (g *Graph) GetEdge(u, v NodeID) (*Edge, error) {
	if m, ok := g.edgeByNodes[u]; ok {
		if e, ok := m[v]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no edge from %q to %q", u, v)
}

// GetNextEdge returns the first edge on the shortest path from u toward dest.
func (g *Graph) GetNextEdge(u, dest NodeID) (*Edge, error) {
	path, err := g.GetShortestPath(u, dest)
	if err != nil {
		return nil, err
	}
	if len(path.Route) < 2 {
		return nil, fmt.Errorf("already at destination %q", dest)
	}
	return g.GetEdge(path.Route[0], path.Route[1])
}

// FindRoute returns the ordered edges of the shortest path from one node to
// another.
func (g *Graph) FindRoute(from, to NodeID) ([]*Edge, error) {
	path, err := g.GetShortestPath(from, to)
	if err != nil {
		return nil, err
	}
	if len(path.Route) < 2 {
		return nil, fmt.Errorf("no edges on path from %q to %q", from, to)
	}
	edges := make([]*Edge, 0, len(path.Route)-1)
	for i := 1; i < len(path.Route); i++ {
		e, err := g.GetEdge(path.Route[i-1], path.Route[i])
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// TryFindRoute implements RouteProvider.
func (g *Graph) TryFindRoute(from, to NodeID) ([]*Edge, bool) {
	edges, err := g.FindRoute(from, to)
	return edges, err == nil
}
