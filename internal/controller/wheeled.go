package controller

import (
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/drivetrain"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/suspension"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
)

// Powertrain is implemented by controllers that drive wheels through a
// drivetrain.
type Powertrain interface {
	Drivetrain() *drivetrain.Drivetrain
}

// wheeled is the state shared by the wheel-driven controllers.
type wheeled struct {
	train *drivetrain.Drivetrain
	flip  Flip
	steer float64 // current steering angle, degrees
}

func newWheeled() wheeled {
	return wheeled{train: drivetrain.New(0)}
}

// seedIdle starts the engine at the idle speed of o.
func (w *wheeled) seedIdle(o *vehicleconf.Owner) {
	if s := o.Snapshot(); s.Valid() {
		w.train.Seed(s.Engine().IdleRPM)
	}
}

// Drivetrain returns the controller's drivetrain.
func (w *wheeled) Drivetrain() *drivetrain.Drivetrain { return w.train }

// Flip returns the flip-recovery state.
func (w *wheeled) Flip() *Flip { return &w.flip }

// SteerAngle returns the current smoothed steering angle in degrees.
func (w *wheeled) SteerAngle() float64 { return w.steer }

// steerWheels moves the steering angle a fixed fraction toward target and
// writes it to every FrontSteer wheel.
func (w *wheeled) steerWheels(f *Frame, st vehicleconf.Steering, target float64) {
	lerp := mgl64.Clamp(st.Lerp, 0, 1)
	w.steer += (target - w.steer) * lerp
	for _, i := range f.Roles.Indices(wheelrole.FrontSteer) {
		if i < len(f.Wheels) {
			f.Wheels[i].SteerAngle = w.steer
		}
	}
}

func intentFrom(in input.Snapshot) drivetrain.Intent {
	return drivetrain.Intent{
		Throttle:  in.Throttle,
		Brake:     in.Brake,
		Handbrake: in.Handbrake,
	}
}

// antiRoll applies the configured anti-roll bars to the body's wheels.
func antiRoll(rb *body.RigidBody, wheels []*body.Wheel, s vehicleconf.Suspension) {
	suspension.Apply(rb, wheels, suspension.Axles(wheels, s.AntiRollFront, s.AntiRollRear))
}

// roadDrive runs the common land sequence: flip recovery, steering,
// drivetrain and anti-roll.
func (w *wheeled) roadDrive(f *Frame, s vehicleconf.Snapshot) {
	w.flip.Update(f.Body, s.Assist(), f.Input.Recover, f.Dt)
	w.steerWheels(f, s.Steering(), f.Input.Steer*s.Steering().MaxAngle)
	layout := drivetrain.LayoutFor(f.Roles, f.Wheels, false)
	w.train.Update(s, f.Body.ForwardSpeed(), f.Wheels, layout, intentFrom(f.Input), f.Dt)
	antiRoll(f.Body, f.Wheels, s.Suspension())
}
