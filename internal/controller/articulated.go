package controller

import (
	"log/slog"
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// yawLimitSpring and yawLimitDamper stiffen the joint once the trailer
	// swings past its maximum yaw angle.
	yawLimitSpring = 80000.0
	yawLimitDamper = 6000.0
	hitchEpsilon   = 1e-6
)

// ArticulatedController drives a tractor like a land vehicle and couples it
// to its trailer through a hitch joint.
type ArticulatedController struct {
	base
	wheeled
	hydraulics Hydraulics
	yaw        float64 // last relative yaw, radians
}

// NewArticulated creates a disabled articulated controller.
func NewArticulated(logger *slog.Logger) *ArticulatedController {
	c := &ArticulatedController{base: newBase(Articulated, logger), wheeled: newWheeled()}
	c.bound = c.seedIdle
	return c
}

// HitchYaw returns the trailer's yaw relative to the tractor, degrees.
func (c *ArticulatedController) HitchYaw() float64 { return mgl64.RadToDeg(c.yaw) }

// FixedUpdate drives the tractor, then applies the hitch joint forces.
func (c *ArticulatedController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	c.roadDrive(f, s)
	c.hydraulics.Apply(f.Body, f.Wheels, s.Lowrider(), f.Input)

	if f.Trailer == nil || f.Trailer.Body == nil {
		c.warnOnce("trailer", "articulated vehicle has no trailer attached")
		return
	}
	c.yaw = Hitch(f.Body, f.Trailer.Body, s.Trailer())
}

// Hitch applies the joint between tractor and trailer and returns the
// relative yaw in radians, positive when the tractor points right of the
// trailer.
//
// Translation is held by a stiff spring/damper between the two hitch
// points. Yaw is free up to MaxYawAngle, driven by the configured yaw
// spring and damper, and stiffened beyond it. The arcade drive model adds a
// torque that turns the trailer into line with the tractor.
func Hitch(tractor, trailer *body.RigidBody, t vehicleconf.Trailer) float64 {
	pa := tractor.TransformPoint(t.HitchOffset)
	pb := trailer.TransformPoint(t.TrailerHitchOffset)
	sep := pa.Sub(pb)
	rel := tractor.PointVelocity(pa).Sub(trailer.PointVelocity(pb))
	pull := sep.Mul(t.LinearSpring).Add(rel.Mul(t.LinearDamper))
	if pull.Len() > hitchEpsilon {
		trailer.AddForceAtPosition(pull, pb)
		tractor.AddForceAtPosition(pull.Mul(-1), pa)
	}

	fa := flatten(tractor.Forward())
	fb := flatten(trailer.Forward())
	if fa.Len() < hitchEpsilon || fb.Len() < hitchEpsilon {
		return 0
	}
	fa, fb = fa.Normalize(), fb.Normalize()
	yaw := math.Atan2(fb.Cross(fa).Dot(body.WorldUp), fb.Dot(fa))
	yawRate := tractor.AngularVelocity.Y() - trailer.AngularVelocity.Y()

	torque := t.YawSpring*yaw + t.YawDamper*yawRate
	if limit := mgl64.DegToRad(t.MaxYawAngle); limit > 0 && math.Abs(yaw) > limit {
		over := math.Copysign(math.Abs(yaw)-limit, yaw)
		torque += yawLimitSpring*over + yawLimitDamper*yawRate
	}
	joint := body.WorldUp.Mul(torque)
	trailer.AddTorque(joint)
	tractor.AddTorque(joint.Mul(-1))

	if t.DriveModel == vehicleconf.DriveArcade {
		trailer.AddTorque(body.WorldUp.Mul(t.AlignTorque * yaw))
	}
	return yaw
}

func flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}
