package graph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSamplesPerSpan is the number of polyline samples generated for each
// span between two control points of a Catmull-Rom curve.
const DefaultSamplesPerSpan = 8

// Curve is an arc-length parameterised polyline. Closed curves connect the
// last point back to the first.
type Curve struct {
	points []mgl64.Vec3
	cum    []float64 // cumulative length at each point; len(points)+1 when closed
	closed bool
}

// NewPolyline builds a curve through points as straight segments.
// Consecutive duplicate points are dropped.
func NewPolyline(points []mgl64.Vec3, closed bool) *Curve {
	c := &Curve{closed: closed}
	for _, p := range points {
		if n := len(c.points); n > 0 && c.points[n-1].ApproxEqualThreshold(p, 1e-9) {
			continue
		}
		c.points = append(c.points, p)
	}
	if closed && len(c.points) > 1 && c.points[0].ApproxEqualThreshold(c.points[len(c.points)-1], 1e-9) {
		c.points = c.points[:len(c.points)-1]
	}
	c.cum = make([]float64, 1, len(c.points)+1)
	for i := 1; i < len(c.points); i++ {
		c.cum = append(c.cum, c.cum[i-1]+c.points[i].Sub(c.points[i-1]).Len())
	}
	if closed && len(c.points) > 1 {
		last := len(c.points) - 1
		c.cum = append(c.cum, c.cum[last]+c.points[0].Sub(c.points[last]).Len())
	}
	return c
}

// NewCurve builds a Catmull-Rom curve through the control points.
func NewCurve(control []mgl64.Vec3, closed bool) *Curve {
	return NewPolyline(CatmullRom(control, DefaultSamplesPerSpan, closed), closed)
}

// CatmullRom samples a uniform Catmull-Rom spline that passes through every
// control point. Open curves duplicate their end points as phantom tangents.
func CatmullRom(control []mgl64.Vec3, samplesPerSpan int, closed bool) []mgl64.Vec3 {
	n := len(control)
	if n < 3 || samplesPerSpan < 1 {
		return append([]mgl64.Vec3(nil), control...)
	}
	at := func(i int) mgl64.Vec3 {
		if closed {
			return control[((i%n)+n)%n]
		}
		return control[max(0, min(n-1, i))]
	}
	spans := n - 1
	if closed {
		spans = n
	}
	out := make([]mgl64.Vec3, 0, spans*samplesPerSpan+1)
	for i := 0; i < spans; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		for s := 0; s < samplesPerSpan; s++ {
			out = append(out, catmullRomPoint(p0, p1, p2, p3, float64(s)/float64(samplesPerSpan)))
		}
	}
	if !closed {
		out = append(out, control[n-1])
	}
	return out
}

func catmullRomPoint(p0, p1, p2, p3 mgl64.Vec3, t float64) mgl64.Vec3 {
	t2 := t * t
	t3 := t2 * t
	a := p1.Mul(2)
	b := p2.Sub(p0).Mul(t)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(t2)
	d := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(t3)
	return a.Add(b).Add(c).Add(d).Mul(0.5)
}

// Length returns the arc length in metres.
func (c *Curve) Length() float64 {
	if c == nil || len(c.cum) == 0 {
		return 0
	}
	return c.cum[len(c.cum)-1]
}

// Closed reports whether the curve loops.
func (c *Curve) Closed() bool { return c != nil && c.closed }

// Points returns a copy of the polyline points.
func (c *Curve) Points() []mgl64.Vec3 {
	if c == nil {
		return nil
	}
	return append([]mgl64.Vec3(nil), c.points...)
}

func (c *Curve) point(i int) mgl64.Vec3 { return c.points[i%len(c.points)] }

// Wrap maps a distance onto the curve: closed curves wrap around, open
// curves clamp to [0, Length].
func (c *Curve) Wrap(s float64) float64 {
	l := c.Length()
	if l <= 0 {
		return 0
	}
	if c.closed {
		s = math.Mod(s, l)
		if s < 0 {
			s += l
		}
		return s
	}
	return mgl64.Clamp(s, 0, l)
}

// Sample returns the position and unit tangent at distance s along the curve.
// A degenerate curve reports its only point (or the origin) with a +Z tangent.
func (c *Curve) Sample(s float64) (mgl64.Vec3, mgl64.Vec3) {
	if c == nil || len(c.points) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}
	}
	if len(c.points) == 1 || c.Length() <= 0 {
		return c.points[0], mgl64.Vec3{0, 0, 1}
	}
	s = c.Wrap(s)
	segs := len(c.cum) - 1
	i := 0
	for i < segs-1 && c.cum[i+1] < s {
		i++
	}
	a, b := c.point(i), c.point(i+1)
	seg := c.cum[i+1] - c.cum[i]
	frac := 0.0
	if seg > 0 {
		frac = (s - c.cum[i]) / seg
	}
	return a.Add(b.Sub(a).Mul(frac)), b.Sub(a).Normalize()
}

// EvaluatePositionAndTangent samples the curve at normalised parameter
// t ∈ [0, 1].
func (c *Curve) EvaluatePositionAndTangent(t float64) (mgl64.Vec3, mgl64.Vec3) {
	return c.Sample(mgl64.Clamp(t, 0, 1) * c.Length())
}

// Project returns the distance along the curve of the point closest to p.
func (c *Curve) Project(p mgl64.Vec3) float64 {
	if c == nil || len(c.points) < 2 {
		return 0
	}
	best, bestDist := 0.0, math.Inf(1)
	segs := len(c.cum) - 1
	for i := 0; i < segs; i++ {
		a, b := c.point(i), c.point(i+1)
		ab := b.Sub(a)
		l2 := ab.Dot(ab)
		t := 0.0
		if l2 > 1e-12 {
			t = mgl64.Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
		}
		q := a.Add(ab.Mul(t))
		if d := q.Sub(p).Len(); d < bestDist {
			bestDist = d
			best = c.cum[i] + t*(c.cum[i+1]-c.cum[i])
		}
	}
	return best
}
