package drivetrain

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.02

func newCar(t *testing.T, s vehicleconf.Snapshot) (*body.RigidBody, []*body.Wheel, Layout) {
	t.Helper()
	ch := s.Chassis()
	susp := s.Suspension()
	rb := body.NewRigidBody(ch.Mass, ch.Dimensions)

	var wheels []*body.Wheel
	var mounts []mgl64.Vec3
	for _, rec := range s.Wheels() {
		w := body.NewWheel(rec.Name, rec.LocalPosition, rec.Radius, rec.Mass, susp.Distance, susp.Spring, susp.Damper)
		w.ForwardFriction = rec.Friction
		w.SidewaysFriction = rec.SideFriction
		wheels = append(wheels, w)
		mounts = append(mounts, rec.LocalPosition)
	}
	require.NotEmpty(t, wheels)
	rb.Position = mgl64.Vec3{0, body.SettleHeight(0, wheels[0].Radius, susp.Distance), 0}
	roles := wheelrole.Resolve(mounts, s.Wheels(), 0)
	return rb, wheels, LayoutFor(roles, wheels, false)
}

func TestLandLaunch(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	eng := s.Engine()
	rb, wheels, layout := newCar(t, s)
	world := body.NewWorld()

	d := New(eng.IdleRPM)
	var shifts [][2]Gear
	d.OnShift = func(from, to Gear) { shifts = append(shifts, [2]Gear{from, to}) }

	for i := 0; i < int(2/dt); i++ {
		d.Update(s, rb.ForwardSpeed(), wheels, layout, Intent{Throttle: 1}, dt)
		if i == 0 {
			assert.Equal(t, First, d.Gear(), "first tick engages first gear")
		}
		require.GreaterOrEqual(t, d.RPM(), eng.IdleRPM)
		require.LessOrEqual(t, d.RPM(), eng.RedlineRPM)
		world.Step(rb, wheels, dt)
	}

	require.NotEmpty(t, shifts)
	assert.Equal(t, [2]Gear{Neutral, First}, shifts[0])
	assert.Greater(t, d.RPM(), eng.IdleRPM+500)
	assert.Greater(t, rb.ForwardSpeed(), 0.0)
	assert.True(t, d.Gear().Forward())
}

// TestGearInvariant drives random pedal and speed sequences through the
// gearbox and checks that direction changes only happen near rest.
func TestGearInvariant(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	tr := s.Transmission()
	rng := rand.New(rand.NewPCG(7, 11))

	for run := 0; run < 200; run++ {
		d := New(s.Engine().IdleRPM)
		speed := 0.0
		for tick := 0; tick < 300; tick++ {
			in := Intent{
				Throttle:  rng.Float64(),
				Brake:     rng.Float64() * float64(rng.IntN(2)),
				Handbrake: rng.IntN(10) == 0,
			}
			if rng.IntN(3) == 0 {
				in.Throttle = 0
			}
			speed += (rng.Float64() - 0.5) * 2
			speed = mgl64.Clamp(speed, -15, 40)

			before := d.Gear()
			d.Update(s, speed, nil, Layout{}, in, dt)
			after := d.Gear()

			if after == Reverse && before != Reverse {
				require.Less(t, math.Abs(speed), tr.ReverseEngageSpeed, "reverse engaged at %.2f m/s", speed)
			}
			if before == Reverse && after.Forward() {
				require.Less(t, math.Abs(speed), tr.ReverseEngageSpeed, "reverse left for drive at %.2f m/s", speed)
			}
		}
	}
}

func TestShiftCooldown(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	d := New(900)

	d.Update(s, 0, nil, Layout{}, Intent{Brake: 1}, dt)
	require.Equal(t, Reverse, d.Gear())

	// Throttle straight away is blocked by the cooldown.
	d.Update(s, 0, nil, Layout{}, Intent{Throttle: 1}, dt)
	assert.Equal(t, Reverse, d.Gear())

	for i := 0; i < int(0.4/dt); i++ {
		d.Update(s, 0, nil, Layout{}, Intent{Throttle: 1}, dt)
	}
	assert.Equal(t, First, d.Gear())
}

func TestReverseExitsWhenRollingForward(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	d := New(900)
	d.Update(s, 0, nil, Layout{}, Intent{Brake: 1}, dt)
	require.Equal(t, Reverse, d.Gear())

	d.Update(s, 2.0, nil, Layout{}, Intent{}, dt)
	assert.Equal(t, Neutral, d.Gear())
}

func TestHandbrakeDoesNotSelectReverse(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	d := New(900)
	d.Update(s, 0, nil, Layout{}, Intent{Brake: 1, Handbrake: true}, dt)
	assert.Equal(t, Neutral, d.Gear())
}

func TestAutomaticShifting(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	_, wheels, layout := newCar(t, s)
	d := New(900)
	d.gear = First
	d.rpm = 6300
	for _, i := range layout.Powered {
		wheels[i].SetAngularVelocity(62)
	}

	d.Update(s, 10, wheels, layout, Intent{Throttle: 1}, dt)
	assert.Equal(t, First+1, d.Gear())

	// Cooldown blocks an immediate downshift even with the RPM at idle.
	for _, i := range layout.Powered {
		wheels[i].SetAngularVelocity(0)
	}
	d.rpm = 900
	d.Update(s, 10, wheels, layout, Intent{Throttle: 1}, dt)
	assert.Equal(t, First+1, d.Gear())

	d.cooldown = 0
	d.Update(s, 10, wheels, layout, Intent{Throttle: 1}, dt)
	assert.Equal(t, First, d.Gear())
}

func TestTorqueSplitAndBrakes(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	_, wheels, layout := newCar(t, s)
	d := New(900)
	d.gear = First
	d.cooldown = 1

	d.Update(s, 5, wheels, layout, Intent{Throttle: 0.5}, dt)
	want := 0.5 * 250 * 3.2 * 3.4 / 2
	for _, i := range layout.Powered {
		assert.InDelta(t, want, wheels[i].MotorTorque, 1e-9)
	}
	for _, i := range layout.Front {
		assert.Zero(t, wheels[i].MotorTorque)
	}

	d.Update(s, 5, wheels, layout, Intent{Brake: 1}, dt)
	total := 0.33 * 9000.0
	assert.InDelta(t, total*0.65/2, wheels[0].BrakeTorque, 1e-9)
	assert.InDelta(t, total*0.35/2, wheels[2].BrakeTorque, 1e-9)
}

func TestHandbrakeAndHoldingFloor(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	_, wheels, layout := newCar(t, s)
	d := New(900)

	d.Update(s, 3, wheels, layout, Intent{Handbrake: true}, dt)
	for _, i := range layout.Rear {
		assert.Equal(t, 1500.0, wheels[i].BrakeTorque)
	}
	for _, i := range layout.Front {
		assert.Zero(t, wheels[i].BrakeTorque)
	}

	d.Update(s, 0.1, wheels, layout, Intent{}, dt)
	for _, w := range wheels {
		assert.GreaterOrEqual(t, w.BrakeTorque, 300.0)
	}

	d.Update(s, 0.1, wheels, layout, Intent{Release: true}, dt)
	for _, w := range wheels {
		assert.Zero(t, w.BrakeTorque)
	}
}

func TestSpinKill(t *testing.T) {
	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	_, wheels, layout := newCar(t, s)
	d := New(900)
	wheels[2].SetAngularVelocity(20)

	d.Update(s, 0.7, wheels, layout, Intent{}, dt)

	assert.Equal(t, 800.0, wheels[2].BrakeTorque)
	assert.Zero(t, wheels[0].BrakeTorque)
}

func TestEngineBrakeTorque(t *testing.T) {
	assert.Zero(t, EngineBrakeTorque(60, 0))
	assert.InDelta(t, 6, EngineBrakeTorque(60, 0.1), 1e-9)
	assert.InDelta(t, -60, EngineBrakeTorque(60, -30), 1e-9)
	assert.Equal(t, 60.0, EngineBrakeTorque(60, 1e6), "bounded at high speed")

	s := vehicleconf.NewOwner(vehicleconf.Default()).Snapshot()
	_, wheels, layout := newCar(t, s)
	d := New(900)
	d.gear = First + 1
	d.cooldown = 1
	d.Update(s, 12, wheels, layout, Intent{}, dt)
	for _, i := range layout.Powered {
		assert.InDelta(t, -30, wheels[i].MotorTorque, 1e-9)
	}
}

func TestGearString(t *testing.T) {
	assert.Equal(t, "R", Reverse.String())
	assert.Equal(t, "N", Neutral.String())
	assert.Equal(t, "1", First.String())
	assert.Equal(t, "3", (First + 2).String())
}
