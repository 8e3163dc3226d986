package controller

import (
	"log/slog"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/water"
	"github.com/go-gl/mathgl/mgl64"
)

// BoatController floats a hull on a water surface and drives it with a
// propeller and a rudder torque.
type BoatController struct {
	base
	submerged float64
}

// NewBoat creates a disabled boat controller.
func NewBoat(logger *slog.Logger) *BoatController {
	return &BoatController{base: newBase(Boat, logger)}
}

// Submerged returns the mean submerged fraction of the buoyancy points in
// the last tick, 0 dry to 1 fully submerged.
func (c *BoatController) Submerged() float64 { return c.submerged }

// FixedUpdate applies buoyancy straight up at every configured point, drag
// scaled by how much of the hull is in the water, then propulsion and
// turning.
func (c *BoatController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	rb, in, w := f.Body, f.Input, s.Water()
	var surface water.Surface = water.Flat{}
	if f.Water != nil {
		surface = f.Water
	}
	if len(w.Points) == 0 {
		c.warnOnce("points", "boat has no buoyancy points")
	}

	var frac float64
	for _, p := range w.Points {
		wp := rb.TransformPoint(p.Position)
		depth := surface.HeightAt(wp.X(), wp.Z(), f.Time) - wp.Y()
		if depth <= 0 {
			continue
		}
		force := water.Buoyancy(p, depth, w.Density, w.BuoyancyMultiplier)
		rb.AddForceAtPosition(body.WorldUp.Mul(force), wp)
		if p.MaxSubmersion > 0 {
			frac += mgl64.Clamp(depth/p.MaxSubmersion, 0, 1)
		} else {
			frac++
		}
	}
	if len(w.Points) > 0 {
		frac /= float64(len(w.Points))
	}
	c.submerged = frac
	if frac <= 0 {
		return
	}

	rb.AddForce(rb.Velocity.Mul(-w.LinearDrag * frac))
	rb.AddTorque(rb.AngularVelocity.Mul(-w.AngularDrag * frac))

	thrust := in.Throttle*w.PropulsionForce - in.Brake*w.ReverseForce
	if thrust != 0 {
		rb.AddForceAtPosition(rb.Forward().Mul(thrust*frac), rb.TransformPoint(w.PropellerOffset))
	}
	rb.AddRelativeTorque(mgl64.Vec3{0, in.Steer * w.TurnTorque * frac, 0})
}
