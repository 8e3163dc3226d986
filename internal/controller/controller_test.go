package controller

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/drivetrain"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.02

type testRig struct {
	owner  *vehicleconf.Owner
	body   *body.RigidBody
	wheels []*body.Wheel
	roles  wheelrole.Set
	world  *body.World
}

func newRig(t *testing.T, v vehicleconf.Vehicle) *testRig {
	t.Helper()
	owner := vehicleconf.NewOwner(v)
	s := owner.Snapshot()
	susp := s.Suspension()
	rb := body.NewRigidBody(s.Chassis().Mass, s.Chassis().Dimensions)

	var wheels []*body.Wheel
	var mounts []mgl64.Vec3
	for _, rec := range s.Wheels() {
		w := body.NewWheel(rec.Name, rec.LocalPosition, rec.Radius, rec.Mass, susp.Distance, susp.Spring, susp.Damper)
		w.ForwardFriction = rec.Friction
		w.SidewaysFriction = rec.SideFriction
		wheels = append(wheels, w)
		mounts = append(mounts, rec.LocalPosition)
	}
	if len(wheels) > 0 {
		rb.Position = mgl64.Vec3{0, body.SettleHeight(0, wheels[0].Radius, susp.Distance), 0}
	}
	return &testRig{
		owner:  owner,
		body:   rb,
		wheels: wheels,
		roles:  wheelrole.Resolve(mounts, s.Wheels(), 0),
		world:  body.NewWorld(),
	}
}

func (r *testRig) frame(in input.Snapshot) *Frame {
	return &Frame{Body: r.body, Wheels: r.wheels, Roles: r.roles, Input: in, Dt: dt}
}

func bind(c DomainController, r *testRig) {
	c.BindConfig(r.owner)
	c.SetEnabled(true)
}

func TestNewSet(t *testing.T) {
	set := NewSet(nil)
	for d := Domain(0); d < NumDomains; d++ {
		require.NotNil(t, set[d])
		assert.Equal(t, d, set[d].Domain())
		assert.False(t, set[d].Enabled())
		assert.Nil(t, set[d].Config())
	}
	assert.Equal(t, "articulated", Articulated.String())
	assert.Equal(t, "unknown", NumDomains.String())
	assert.Equal(t, "vtol", VariantVTOL.String())
}

func TestMissingConfigLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := newRig(t, vehicleconf.Default())

	c := NewLand(logger)
	c.SetEnabled(true)
	for i := 0; i < 5; i++ {
		c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "no vehicle configuration"))
	assert.Contains(t, buf.String(), "domain=land")
	assert.Equal(t, mgl64.Vec3{}, r.body.AccumulatedForce())
	assert.Equal(t, drivetrain.Neutral, c.Drivetrain().Gear())
}

func TestDisabledControllerDoesNothing(t *testing.T) {
	r := newRig(t, vehicleconf.Default())
	c := NewLand(nil)
	c.BindConfig(r.owner)

	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1, Steer: 1}))

	assert.Equal(t, drivetrain.Neutral, c.Drivetrain().Gear())
	for _, w := range r.wheels {
		assert.Zero(t, w.MotorTorque)
		assert.Zero(t, w.SteerAngle)
	}
}

func TestLandController_Launch(t *testing.T) {
	r := newRig(t, vehicleconf.Default())
	c := NewLand(nil)
	bind(c, r)

	for i := 0; i < int(2/dt); i++ {
		c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))
		r.world.Step(r.body, r.wheels, dt)
	}

	assert.True(t, c.Drivetrain().Gear().Forward())
	assert.Greater(t, r.body.ForwardSpeed(), 0.0)
	assert.Zero(t, c.Flip().Fired(), "upright car never flips")
}

func TestLandController_SteeringLerp(t *testing.T) {
	r := newRig(t, vehicleconf.Default())
	c := NewLand(nil)
	bind(c, r)

	c.FixedUpdate(r.frame(input.Snapshot{Steer: 1}))

	want := 32 * 0.25
	assert.InDelta(t, want, c.SteerAngle(), 1e-9)
	for i, w := range r.wheels {
		if r.roles[i] == wheelrole.FrontSteer {
			assert.InDelta(t, want, w.SteerAngle, 1e-9, w.Name)
		} else {
			assert.Zero(t, w.SteerAngle, w.Name)
		}
	}

	for i := 0; i < 100; i++ {
		c.FixedUpdate(r.frame(input.Snapshot{Steer: 1}))
	}
	assert.InDelta(t, 32, c.SteerAngle(), 1e-6)
}

func TestLandController_Lowrider(t *testing.T) {
	v := vehicleconf.Default()
	v.Lowrider.Enabled = true
	r := newRig(t, v)
	for _, w := range r.wheels {
		w.SetContact(body.Hit{Normal: body.WorldUp}, true, 0.5)
	}
	c := NewLand(nil)
	bind(c, r)

	c.FixedUpdate(r.frame(input.Snapshot{Hop: true}))
	vy := r.body.Velocity.Y()
	assert.InDelta(t, v.Lowrider.HopForce/v.Chassis.Mass, vy, 1e-9)

	c.FixedUpdate(r.frame(input.Snapshot{Hop: true}))
	assert.Equal(t, vy, r.body.Velocity.Y(), "hop fires on the press edge only")

	r.body.ClearForces()
	c.hydraulics.Apply(r.body, r.wheels, v.Lowrider, input.Snapshot{Lifts: 1})
	assert.InDelta(t, v.Lowrider.LiftForce, r.body.AccumulatedForce().Y(), 1e-6)
	assert.Less(t, r.body.AccumulatedTorque().X(), 0.0, "raising the front pitches the nose up")
}

func TestFlip_UpsideDown(t *testing.T) {
	a := vehicleconf.Default().Assist
	rb := body.NewRigidBody(1200, mgl64.Vec3{1.8, 1.4, 4.5})
	rb.Rotation = mgl64.QuatRotate(mgl64.DegToRad(180), body.WorldForward)
	require.InDelta(t, 180, rb.TiltAngle(), 1e-3)

	var fl Flip
	require.True(t, fl.Update(rb, a, false, dt))
	assert.Equal(t, 1, fl.Fired())
	assert.Equal(t, a.FlipCooldown, fl.Cooldown())
	assert.Greater(t, rb.AngularVelocity.Len(), 0.0)

	// The body is still inverted, but nothing fires until the cooldown elapses.
	ticks := int(a.FlipCooldown/dt) - 1
	for i := 0; i < ticks; i++ {
		assert.False(t, fl.Update(rb, a, false, dt))
	}
	assert.Equal(t, 1, fl.Fired())

	for i := 0; i < 3 && fl.Fired() == 1; i++ {
		fl.Update(rb, a, false, dt)
	}
	assert.Equal(t, 2, fl.Fired())
}

func TestFlip_Conditions(t *testing.T) {
	a := vehicleconf.Default().Assist
	tilted := func(deg float64) *body.RigidBody {
		rb := body.NewRigidBody(1200, mgl64.Vec3{1.8, 1.4, 4.5})
		rb.Rotation = mgl64.QuatRotate(mgl64.DegToRad(deg), body.WorldForward)
		return rb
	}

	t.Run("rights toward world up", func(t *testing.T) {
		rb := tilted(100)
		var fl Flip
		require.True(t, fl.Update(rb, a, false, dt))
		assert.Less(t, rb.AngularVelocity.Z(), 0.0)
	})
	t.Run("too fast", func(t *testing.T) {
		rb := tilted(100)
		rb.Velocity = mgl64.Vec3{0, 0, a.FlipSpeedCeiling + 1}
		var fl Flip
		assert.False(t, fl.Update(rb, a, true, dt))
	})
	t.Run("small tilt needs recover", func(t *testing.T) {
		var fl Flip
		assert.False(t, fl.Update(tilted(30), a, false, dt))
		assert.True(t, fl.Update(tilted(30), a, true, dt))
	})
	t.Run("upright recover is a no-op", func(t *testing.T) {
		var fl Flip
		assert.False(t, fl.Update(tilted(0), a, true, dt))
	})
	t.Run("auto flip disabled", func(t *testing.T) {
		off := a
		off.AutoFlip = false
		var fl Flip
		assert.False(t, fl.Update(tilted(180), off, false, dt))
	})
}

func tankConfig() vehicleconf.Vehicle {
	v := vehicleconf.Default()
	v.Classification.Tank = true
	for i := range v.Wheels {
		if v.Wheels[i].LocalPosition.X() < 0 {
			v.Wheels[i].Role = "track_left"
		} else {
			v.Wheels[i].Role = "track_right"
		}
	}
	return v
}

func trackTorques(r *testRig) (left, right float64) {
	for i, w := range r.wheels {
		switch r.roles[i] {
		case wheelrole.TrackLeft:
			left += w.MotorTorque
		case wheelrole.TrackRight:
			right += w.MotorTorque
		}
	}
	return left, right
}

func TestTrackController_NeutralSteer(t *testing.T) {
	r := newRig(t, tankConfig())
	require.True(t, r.roles.HasTrack())
	c := NewTrack(nil)
	c.SetVariant(VariantTank)
	bind(c, r)

	c.FixedUpdate(r.frame(input.Snapshot{Steer: 1}))

	left, right := trackTorques(r)
	d := tankConfig().TrackDrive.DifferentialStrength
	assert.InDelta(t, 2*d, left, 1e-9)
	assert.InDelta(t, -2*d, right, 1e-9)
	for _, w := range r.wheels {
		assert.Zero(t, w.BrakeTorque, "no holding brake while pivoting")
	}
}

func TestTrackController_DifferentialAtRest(t *testing.T) {
	v := tankConfig()
	v.Classification.Tank = false
	d := v.TrackDrive.DifferentialStrength
	r := newRig(t, v)
	c := NewTrack(nil)
	bind(c, r)

	c.FixedUpdate(r.frame(input.Snapshot{Steer: 1}))
	left, right := trackTorques(r)
	assert.InDelta(t, 2*d, left, 1e-9)
	assert.InDelta(t, -2*d, right, 1e-9)
	for _, w := range r.wheels {
		assert.Zero(t, w.BrakeTorque, "no holding brake while pivoting")
	}

	for _, w := range r.wheels {
		w.MotorTorque = 0
	}
	c.FixedUpdate(r.frame(input.Snapshot{Steer: 0.05}))
	left, right = trackTorques(r)
	assert.InDelta(t, 2*0.05*d, left, 1e-9)
	assert.InDelta(t, -2*0.05*d, right, 1e-9)
}

func TestTrackController_SpeedCap(t *testing.T) {
	v := tankConfig()
	r := newRig(t, v)
	c := NewTrack(nil)
	bind(c, r)

	r.body.Velocity = mgl64.Vec3{0, 0, v.TrackDrive.MaxSpeed}
	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))
	left, right := trackTorques(r)
	assert.InDelta(t, 0, left, 1e-9)
	assert.InDelta(t, 0, right, 1e-9)

	r.body.Velocity = mgl64.Vec3{0, 0, v.TrackDrive.MaxSpeed / 2}
	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))
	left, right = trackTorques(r)
	assert.Greater(t, left, 0.0)
	assert.InDelta(t, left, right, 1e-9)
}

func TestTrackController_SteerAtSpeedCap(t *testing.T) {
	v := tankConfig()
	r := newRig(t, v)
	c := NewTrack(nil)
	bind(c, r)

	r.body.Velocity = mgl64.Vec3{0, 0, v.TrackDrive.MaxSpeed}
	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1, Steer: 1}))
	left, right := trackTorques(r)
	assert.InDelta(t, 0, left, 1e-9, "outer track gains nothing at the limit")
	assert.InDelta(t, -2*v.TrackDrive.DifferentialStrength, right, 1e-9)
}

func TestWheeledControllers_StartAtIdle(t *testing.T) {
	idle := vehicleconf.Default().Engine.IdleRPM
	r := newRig(t, vehicleconf.Default())
	for _, c := range []interface {
		DomainController
		Powertrain
	}{NewLand(nil), NewTrack(nil), NewArticulated(nil)} {
		assert.Zero(t, c.Drivetrain().RPM())
		c.BindConfig(r.owner)
		assert.Equal(t, idle, c.Drivetrain().RPM(), c.Domain().String())
	}
	assert.NotPanics(t, func() { NewLand(nil).BindConfig(nil) })
}

func TestHitch(t *testing.T) {
	tr := vehicleconf.Default().Trailer
	tr.YawSpring = 1000
	tr.YawDamper = 0

	tractor := body.NewRigidBody(8000, mgl64.Vec3{2.5, 3, 6})
	trailer := body.NewRigidBody(tr.Mass, tr.Dimensions)
	trailer.Rotation = body.YawRotation(30)
	pa := tractor.TransformPoint(tr.HitchOffset)
	trailer.Position = pa.Sub(trailer.Rotation.Rotate(tr.TrailerHitchOffset))

	yaw := Hitch(tractor, trailer, tr)
	assert.InDelta(t, -30, mgl64.RadToDeg(yaw), 1e-6, "trailer swung right of the tractor")
	assert.Equal(t, mgl64.Vec3{}, trailer.AccumulatedForce(), "hitch points coincide")
	assert.Less(t, trailer.AccumulatedTorque().Y(), 0.0, "spring turns the trailer back left")
	assert.InDelta(t, -trailer.AccumulatedTorque().Y(), tractor.AccumulatedTorque().Y(), 1e-9)

	t.Run("separation pulls both bodies together", func(t *testing.T) {
		tractor.ClearForces()
		trailer.ClearForces()
		trailer.Position = trailer.Position.Add(mgl64.Vec3{-0.1, 0, 0})
		Hitch(tractor, trailer, tr)
		ft, fa := trailer.AccumulatedForce(), tractor.AccumulatedForce()
		assert.InDelta(t, 0.1*tr.LinearSpring, ft.X(), 1e-6)
		assert.True(t, ft.Add(fa).ApproxEqualThreshold(mgl64.Vec3{}, 1e-9))
	})

	t.Run("arcade adds alignment", func(t *testing.T) {
		trailer.Position = pa.Sub(trailer.Rotation.Rotate(tr.TrailerHitchOffset))
		trailer.ClearForces()
		Hitch(tractor, trailer, tr)
		realistic := trailer.AccumulatedTorque().Y()

		arcade := tr
		arcade.DriveModel = vehicleconf.DriveArcade
		trailer.ClearForces()
		Hitch(tractor, trailer, arcade)
		assert.InDelta(t, realistic+arcade.AlignTorque*yaw, trailer.AccumulatedTorque().Y(), 1e-6)
	})

	t.Run("degenerate forward axis", func(t *testing.T) {
		vertical := body.NewRigidBody(1000, mgl64.Vec3{1, 1, 1})
		vertical.Rotation = mgl64.QuatRotate(mgl64.DegToRad(-90), body.WorldRight)
		vertical.Position = tractor.TransformPoint(tr.HitchOffset).Sub(vertical.Rotation.Rotate(tr.TrailerHitchOffset))
		assert.Zero(t, Hitch(tractor, vertical, tr))
	})
}

func TestArticulatedController_NoTrailer(t *testing.T) {
	var buf bytes.Buffer
	r := newRig(t, vehicleconf.Default())
	c := NewArticulated(slog.New(slog.NewTextHandler(&buf, nil)))
	bind(c, r)

	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))
	c.FixedUpdate(r.frame(input.Snapshot{Throttle: 1}))

	assert.Equal(t, 1, strings.Count(buf.String(), "no trailer"))
	assert.True(t, c.Drivetrain().Gear().Forward(), "tractor still drives")
}
