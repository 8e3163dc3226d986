package vehicle

import (
	"testing"

	"github.com/cxd309/vehicle-engine/internal/ai"
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.02

func build(t *testing.T, cfg vehicleconf.Vehicle) *Vehicle {
	t.Helper()
	v, err := New(Options{ID: "v1", Config: cfg})
	require.NoError(t, err)
	return v
}

func script(t *testing.T, in input.Snapshot) *input.Scripted {
	t.Helper()
	s, err := input.NewScripted([]input.Keyframe{{Time: 0, Snapshot: in}}, 0)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresID(t *testing.T) {
	_, err := New(Options{Config: vehicleconf.Default()})
	assert.Error(t, err)
}

func TestNew_Car(t *testing.T) {
	v := build(t, vehicleconf.Default())

	require.NotNil(t, v.Active())
	assert.Equal(t, controller.Land, v.Active().Domain())
	assert.False(t, v.Body.Kinematic)
	assert.Zero(t, v.Body.ContactRadius)
	assert.Len(t, v.Wheels, 4)
	assert.Nil(t, v.Trailer)
	assert.InDelta(t, body.SettleHeight(0, 0.34, v.Owner.Snapshot().Suspension().Distance), v.Body.Position.Y(), 1e-9)
}

func TestNew_DomainShapesBody(t *testing.T) {
	rail := vehicleconf.Default()
	rail.Classification = vehicleconf.Classification{Type: vehicleconf.TypeRail}
	v := build(t, rail)
	assert.Equal(t, controller.Train, v.Active().Domain())
	assert.True(t, v.Body.Kinematic)

	plane := vehicleconf.Default()
	plane.Classification = vehicleconf.Classification{Type: vehicleconf.TypeAir}
	plane.Wheels = nil
	v = build(t, plane)
	assert.Equal(t, controller.Air, v.Active().Domain())
	assert.Equal(t, controller.VariantFixedWing, v.Active().Variant())
	assert.InDelta(t, plane.Chassis.Dimensions.Y()/2, v.Body.ContactRadius, 1e-9)
	assert.InDelta(t, v.Body.ContactRadius, v.Body.Position.Y(), 1e-9)

	boat := vehicleconf.Default()
	boat.Classification = vehicleconf.Classification{Type: vehicleconf.TypeWater}
	boat.Wheels = nil
	v = build(t, boat)
	assert.Equal(t, controller.Boat, v.Active().Domain())
	assert.Zero(t, v.Body.ContactRadius)
	assert.False(t, v.Body.Kinematic)
}

func TestNew_SemiGetsTrailer(t *testing.T) {
	cfg := vehicleconf.Default()
	cfg.Classification.Category = vehicleconf.CategorySemi
	v, err := New(Options{ID: "semi", Config: cfg, Position: mgl64.Vec3{10, 0, 5}, Heading: 90})
	require.NoError(t, err)

	require.NotNil(t, v.Trailer)
	assert.Equal(t, controller.Articulated, v.Active().Domain())
	assert.Len(t, v.Trailer.Wheels, len(cfg.Trailer.Wheels))

	a := v.Body.TransformPoint(cfg.Trailer.HitchOffset)
	b := v.Trailer.Body.TransformPoint(cfg.Trailer.TrailerHitchOffset)
	assert.InDelta(t, 0, a.Sub(b).Len(), 1e-9)
	// Facing +X the trailer trails toward -X.
	assert.Less(t, v.Trailer.Body.Position.X(), v.Body.Position.X())
}

func TestReconfigure(t *testing.T) {
	v := build(t, vehicleconf.Default())
	v.Reconfigure(func(c *vehicleconf.Vehicle) { c.Classification.Category = vehicleconf.CategoryTractor })
	assert.Equal(t, controller.Articulated, v.Active().Domain())
	require.NotNil(t, v.Trailer)

	v.Reconfigure(func(c *vehicleconf.Vehicle) { c.Classification.Type = vehicleconf.TypeRail })
	assert.Equal(t, controller.Train, v.Active().Domain())
	assert.Nil(t, v.Trailer)
	assert.True(t, v.Body.Kinematic)
}

func TestHumanNeedsDriverSeat(t *testing.T) {
	v := build(t, vehicleconf.Default())
	v.SetHuman(script(t, input.Snapshot{Throttle: 1}))

	v.Step(Env{}, dt)
	assert.Equal(t, input.AuthorityNone, v.Hub.Authority())

	id, err := v.Seats.Enter(RoleDriver)
	require.NoError(t, err)
	v.Step(Env{}, dt)
	assert.Equal(t, input.AuthorityHuman, v.Hub.Authority())
	assert.Equal(t, 1.0, v.Hub.Current().Throttle)

	require.NoError(t, v.Seats.Exit(id))
	v.Step(Env{}, dt)
	assert.Equal(t, input.AuthorityNone, v.Hub.Authority())
}

func TestAgentOutranksHuman(t *testing.T) {
	v := build(t, vehicleconf.Default())
	v.SetHuman(script(t, input.Snapshot{Throttle: 1}))
	_, err := v.Seats.Enter(RoleDriver)
	require.NoError(t, err)

	v.SetAgent(ai.New("v1", ai.DefaultProfile(), 1, nil))
	v.Step(Env{}, dt)
	assert.Equal(t, input.AuthorityAI, v.Hub.Authority())
	assert.Equal(t, ai.Park, v.Agent.State())
	assert.Equal(t, input.Snapshot{Brake: 1}, v.Hub.Current())

	v.SetAgent(nil)
	v.Step(Env{}, dt)
	assert.Equal(t, input.AuthorityHuman, v.Hub.Authority())
}

func TestStep_CarDrivesForward(t *testing.T) {
	v := build(t, vehicleconf.Default())
	v.SetHuman(script(t, input.Snapshot{Throttle: 1}))
	_, err := v.Seats.Enter(RoleDriver)
	require.NoError(t, err)

	world := body.NewWorld()
	for i := 0; i < int(3/dt); i++ {
		v.Step(Env{World: world, Time: float64(i) * dt}, dt)
	}
	assert.Greater(t, v.Body.ForwardSpeed(), 0.0)
	assert.Greater(t, v.Body.Position.Z(), 0.0)
}

func TestStep_TrainFollowsCurve(t *testing.T) {
	cfg := vehicleconf.Default()
	cfg.Classification = vehicleconf.Classification{Type: vehicleconf.TypeRail}
	cfg.Wheels = nil
	cfg.Train.Curve = []mgl64.Vec3{{0, 0, 0}, {0, 0, 500}}
	v := build(t, cfg)
	v.SetHuman(script(t, input.Snapshot{Throttle: 1}))
	_, err := v.Seats.Enter(RoleDriver)
	require.NoError(t, err)

	for i := 0; i < int(5/dt); i++ {
		v.Step(Env{}, dt)
	}
	train := v.Active().(*controller.TrainController)
	assert.Greater(t, train.Distance(), 5.0)
	assert.InDelta(t, 0, v.Body.Position.X(), 1e-9)
	assert.InDelta(t, cfg.Train.RideHeight, v.Body.Position.Y(), 1e-9)
}

func TestSeats(t *testing.T) {
	rb := body.NewRigidBody(1000, mgl64.Vec3{2, 1.5, 4})
	rb.SetPose(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent())
	s := NewMemorySeats(rb, DefaultSeats())

	assert.False(t, s.Occupied(RoleDriver))
	id, err := s.Enter(RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, "driver", id)
	assert.True(t, s.Occupied(RoleDriver))

	_, err = s.Enter(RoleDriver)
	assert.ErrorIs(t, err, ErrNoFreeSeat)
	assert.ErrorIs(t, s.EnterByID("driver"), ErrSeatTaken)
	assert.ErrorIs(t, s.EnterByID("roof"), ErrNoSeat)
	assert.ErrorIs(t, s.Exit("passenger"), ErrSeatVacant)
	assert.ErrorIs(t, s.Exit("roof"), ErrNoSeat)

	require.NoError(t, s.EnterByID("passenger"))
	assert.True(t, s.Occupied(RolePassenger))

	pos, _, ok := s.WorldPose("passenger")
	require.True(t, ok)
	assert.InDelta(t, 5.4, pos.X(), 1e-9)
	_, _, ok = s.WorldPose("roof")
	assert.False(t, ok)
}
