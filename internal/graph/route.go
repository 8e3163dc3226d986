package graph

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Route is a drivable path: a single curve plus the speed limits of the edges
// it was assembled from.
type Route struct {
	*Curve
	spans []span
}

type span struct {
	end   float64 // distance along the route where the span ends
	limit float64 // m/s; 0 = unrestricted
}

// NewRoute joins the sampled curves of consecutive edges into one route.
// It returns nil when edges is empty.
func NewRoute(edges []*Edge) *Route {
	if len(edges) == 0 {
		return nil
	}
	var points []mgl64.Vec3
	var limits []float64
	var ends []int
	for _, e := range edges {
		pts := e.Samples()
		if len(points) > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		points = append(points, pts...)
		ends = append(ends, len(points)-1)
		lim := 0.0
		if e.SpeedLimit != nil {
			lim = *e.SpeedLimit
		}
		limits = append(limits, lim)
	}
	c := NewPolyline(points, false)
	r := &Route{Curve: c}
	for i, end := range ends {
		r.spans = append(r.spans, span{end: c.Project(points[end]), limit: limits[i]})
	}
	return r
}

// RouteFromCurve wraps a curve with no speed limits.
func RouteFromCurve(c *Curve) *Route {
	if c == nil || c.Length() <= 0 {
		return nil
	}
	return &Route{Curve: c}
}

// SpeedLimitAt returns the speed limit at distance s, if any.
func (r *Route) SpeedLimitAt(s float64) (float64, bool) {
	if r == nil {
		return 0, false
	}
	s = r.Wrap(s)
	for _, sp := range r.spans {
		if s <= sp.end+1e-9 {
			return sp.limit, sp.limit > 0
		}
	}
	return 0, false
}

// Remaining returns the distance left to the end of an open route from s.
// Closed routes never end.
func (r *Route) Remaining(s float64) float64 {
	if r == nil {
		return 0
	}
	if r.Closed() {
		return r.Length()
	}
	return r.Length() - r.Wrap(s)
}
