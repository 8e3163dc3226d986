package controller

import (
	"log/slog"
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/drivetrain"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
)

// pivotInput is the steer deflection above which the holding brake is
// released so the tracks can turn the vehicle on the spot.
const pivotInput = 0.1

// TrackController drives a tracked vehicle by differential torque between
// the left and right track wheels.
type TrackController struct {
	base
	wheeled
}

// NewTrack creates a disabled track controller.
func NewTrack(logger *slog.Logger) *TrackController {
	c := &TrackController{base: newBase(Track, logger), wheeled: newWheeled()}
	c.bound = c.seedIdle
	return c
}

// FixedUpdate runs the drivetrain over both tracks, scales the drive torque
// down toward the track speed limit and adds steer × differential strength
// to the left track and subtracts it from the right. Torque a side gains
// from the differential is scaled like the drive torque, so steering never
// pushes past the speed limit.
func (c *TrackController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	td := s.TrackDrive()
	in := f.Input
	speed := f.Body.ForwardSpeed()

	c.flip.Update(f.Body, s.Assist(), in.Recover, f.Dt)

	left := f.Roles.Indices(wheelrole.TrackLeft)
	right := f.Roles.Indices(wheelrole.TrackRight)
	if len(left) == 0 || len(right) == 0 {
		c.warnOnce("tracks", "tracked vehicle is missing a track side, differential disabled",
			"left", len(left), "right", len(right))
	}

	differential := len(left) > 0 && len(right) > 0

	intent := intentFrom(in)
	intent.Release = differential && math.Abs(in.Steer) > pivotInput
	layout := drivetrain.LayoutFor(f.Roles, f.Wheels, true)
	c.train.Update(s, speed, f.Wheels, layout, intent, f.Dt)

	scale := 1.0
	if td.MaxSpeed > 0 {
		scale = mgl64.Clamp(1-math.Abs(speed)/td.MaxSpeed, 0, 1)
		for _, i := range layout.Powered {
			f.Wheels[i].MotorTorque *= scale
		}
	}
	if differential {
		d := in.Steer * td.DifferentialStrength
		addTrackTorque(f.Wheels, left, d, scale)
		addTrackTorque(f.Wheels, right, -d, scale)
	}

	c.steerWheels(f, s.Steering(), in.Steer*s.Steering().MaxAngle*td.SteerBlend)
	antiRoll(f.Body, f.Wheels, s.Suspension())
}

// addTrackTorque adds t to every wheel of one track side, scaling a gain by
// scale.
func addTrackTorque(wheels []*body.Wheel, side []int, t, scale float64) {
	if t > 0 {
		t *= scale
	}
	for _, i := range side {
		wheels[i].MotorTorque += t
	}
}
