package controller

import (
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

// Hydraulics drives lowrider suspension: a hop impulse, front/rear lift,
// left/right tilt and a slam impulse.
type Hydraulics struct {
	hopHeld  bool
	slamHeld bool
}

// Apply writes this tick's hydraulic forces to rb. Hop and slam fire on the
// rising edge of their input only.
func (h *Hydraulics) Apply(rb *body.RigidBody, wheels []*body.Wheel, lr vehicleconf.Lowrider, in input.Snapshot) {
	if !lr.Enabled {
		return
	}
	up := rb.Up()

	if in.Hop && !h.hopHeld && grounded(wheels) {
		rb.ApplyImpulse(up.Mul(lr.HopForce))
	}
	h.hopHeld = in.Hop
	if in.Slam && !h.slamHeld {
		rb.ApplyImpulse(up.Mul(-lr.SlamForce))
	}
	h.slamHeld = in.Slam

	var front, rear, left, right []*body.Wheel
	for _, w := range wheels {
		if w.LocalPosition.Z() > 0 {
			front = append(front, w)
		} else {
			rear = append(rear, w)
		}
		if w.LocalPosition.X() < 0 {
			left = append(left, w)
		} else {
			right = append(right, w)
		}
	}
	switch {
	case in.Lifts > 0:
		push(rb, front, up.Mul(in.Lifts*lr.LiftForce))
	case in.Lifts < 0:
		push(rb, rear, up.Mul(-in.Lifts*lr.LiftForce))
	}
	switch {
	case in.Tilts > 0:
		push(rb, right, up.Mul(in.Tilts*lr.TiltForce))
	case in.Tilts < 0:
		push(rb, left, up.Mul(-in.Tilts*lr.TiltForce))
	}
}

// push spreads force evenly over the mounts of ws.
func push(rb *body.RigidBody, ws []*body.Wheel, force mgl64.Vec3) {
	if len(ws) == 0 {
		return
	}
	share := force.Mul(1 / float64(len(ws)))
	for _, w := range ws {
		rb.AddForceAtPosition(share, rb.TransformPoint(w.LocalPosition))
	}
}

func grounded(wheels []*body.Wheel) bool {
	if len(wheels) == 0 {
		return true
	}
	for _, w := range wheels {
		if _, ok := w.GroundHit(); ok {
			return true
		}
	}
	return false
}
