// Package suspension implements the anti-roll bar model that couples the
// left and right wheel of an axle.
package suspension

import (
	"github.com/cxd309/vehicle-engine/internal/body"
)

// Axle is a left/right wheel pair joined by an anti-roll bar.
type Axle struct {
	Left, Right int
	Stiffness   float64 // N per unit of normalised travel difference
}

// Axles pairs the outermost left and right wheel in front of and behind the
// body origin. An axle missing either side is omitted.
func Axles(wheels []*body.Wheel, front, rear float64) []Axle {
	var out []Axle
	if a, ok := pair(wheels, func(z float64) bool { return z > 0 }); ok {
		a.Stiffness = front
		out = append(out, a)
	}
	if a, ok := pair(wheels, func(z float64) bool { return z <= 0 }); ok {
		a.Stiffness = rear
		out = append(out, a)
	}
	return out
}

func pair(wheels []*body.Wheel, side func(z float64) bool) (Axle, bool) {
	a := Axle{Left: -1, Right: -1}
	var minX, maxX float64
	for i, w := range wheels {
		p := w.LocalPosition
		if !side(p.Z()) {
			continue
		}
		if p.X() < 0 && (a.Left < 0 || p.X() < minX) {
			a.Left, minX = i, p.X()
		}
		if p.X() > 0 && (a.Right < 0 || p.X() > maxX) {
			a.Right, maxX = i, p.X()
		}
	}
	return a, a.Left >= 0 && a.Right >= 0
}

// Force returns the anti-roll force for a pair of normalised travels.
// It is zero whenever the travels are equal.
func Force(travelLeft, travelRight, stiffness float64) float64 {
	return (travelLeft - travelRight) * stiffness
}

// Apply injects the anti-roll force of every axle into rb: the force pushes
// the more extended side down and the more compressed side up. Airborne
// wheels report full travel.
func Apply(rb *body.RigidBody, wheels []*body.Wheel, axles []Axle) {
	up := rb.Up()
	for _, a := range axles {
		l, r := wheels[a.Left], wheels[a.Right]
		f := Force(l.Travel(), r.Travel(), a.Stiffness)
		if f == 0 {
			continue
		}
		rb.AddForceAtPosition(up.Mul(-f), rb.TransformPoint(l.LocalPosition))
		rb.AddForceAtPosition(up.Mul(f), rb.TransformPoint(r.LocalPosition))
	}
}
