package controller

import (
	"log/slog"
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

// autoHoverThrottle is the throttle below which auto-hover takes over.
const autoHoverThrottle = 0.1

// AirController flies a fixed-wing aircraft, or a VTOL when the variant says
// so. VTOL aircraft hold their height with a PD loop while hovering.
type AirController struct {
	base
	hovering     bool
	targetHeight float64
}

// NewAir creates a disabled air controller.
func NewAir(logger *slog.Logger) *AirController {
	return &AirController{base: newBase(Air, logger)}
}

// Hovering reports whether the height-hold loop ran in the last tick.
func (c *AirController) Hovering() bool { return c.hovering }

// TargetHeight returns the height the hover loop is holding.
func (c *AirController) TargetHeight() float64 { return c.targetHeight }

// FixedUpdate applies lift, drag, thrust and attitude torques, then the
// hover loop for VTOL aircraft.
func (c *AirController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	rb, in, a := f.Body, f.Input, s.Air()

	airspeed := math.Max(0, rb.ForwardSpeed())
	lift := 0.5 * a.AirDensity * airspeed * airspeed * a.WingArea * a.LiftCoefficient
	rb.AddForce(rb.Up().Mul(lift))

	if v := rb.Velocity.Len(); v > 1e-6 {
		drag := 0.5 * a.AirDensity * v * v * a.DragCoefficient
		rb.AddForce(rb.Velocity.Mul(-drag / v))
	}

	rb.AddForce(rb.Forward().Mul(in.Throttle * a.MaxThrust))
	rb.AddRelativeTorque(attitude(in, a))

	if c.variant != VariantVTOL {
		c.hovering = false
		return
	}
	c.hover(rb, s.VTOL(), in, f.Dt)
}

// attitude returns the local control torque. Positive pitch raises the
// nose, positive roll lowers the right wing, positive yaw turns right.
func attitude(in input.Snapshot, a vehicleconf.Air) mgl64.Vec3 {
	return mgl64.Vec3{
		-deadzone(in.Pitch, a.Deadzone) * a.PitchTorque,
		deadzone(in.Yaw, a.Deadzone) * a.YawTorque,
		-deadzone(in.Roll, a.Deadzone) * a.RollTorque,
	}
}

// deadzone zeroes x inside ±dz and rescales the rest back onto [-1, 1].
func deadzone(x, dz float64) float64 {
	if dz <= 0 {
		return x
	}
	if dz >= 1 || math.Abs(x) <= dz {
		return 0
	}
	return math.Copysign((math.Abs(x)-dz)/(1-dz), x)
}

func (c *AirController) hover(rb *body.RigidBody, v vehicleconf.VTOL, in input.Snapshot, dt float64) {
	active := v.HoverMode || (v.AutoHover && in.Throttle < autoHoverThrottle)
	if !active {
		c.hovering = false
		return
	}
	if !c.hovering {
		c.targetHeight = rb.Position.Y()
		c.hovering = true
	}
	c.targetHeight += in.Vertical * v.ClimbRate * dt
	rb.AddForce(body.WorldUp.Mul(HoverForce(rb.Mass, c.targetHeight-rb.Position.Y(), rb.Velocity.Y(), v)))
}

// HoverForce returns the vertical force that holds a height: weight plus a
// proportional term on the height error, damped by vertical speed, clamped
// to [0, MaxLiftForce].
func HoverForce(mass, heightErr, verticalSpeed float64, v vehicleconf.VTOL) float64 {
	f := mass * (body.Gravity + v.HoverKp*heightErr - v.HoverKd*verticalSpeed)
	return mgl64.Clamp(f, 0, v.MaxLiftForce)
}
