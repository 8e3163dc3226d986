// Package vehicle assembles one simulated vehicle: body, wheels, the
// domain controller set behind a dispatch router, the input hub, the sensor
// rig and an optional AI driver.
package vehicle

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cxd309/vehicle-engine/internal/ai"
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/dispatch"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/sensor"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/water"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultTrailerWheelRadius = 0.45
	sensorRange               = 40.0
)

var defaultWorld = body.NewWorld()

// Options describe a vehicle to build.
type Options struct {
	ID     string
	Config vehicleconf.Vehicle
	// Position is the ground point under the vehicle; wheeled bodies are
	// raised so their suspension starts half compressed.
	Position mgl64.Vec3
	Heading  float64 // degrees, 0 along +Z
	Seats    []Seat  // nil means DefaultSeats
	Logger   *slog.Logger
}

// Env is the shared scene a vehicle steps in.
type Env struct {
	World  *body.World
	Caster sensor.Caster
	Water  water.Surface
	Routes graph.RouteProvider
	Time   float64
}

// Vehicle is one assembled vehicle.
type Vehicle struct {
	ID      string
	Owner   *vehicleconf.Owner
	Body    *body.RigidBody
	Wheels  []*body.Wheel
	Roles   wheelrole.Set
	Trailer *controller.Trailer
	Router  *dispatch.Router
	Hub     *input.Hub
	Rig     *sensor.Rig
	Seats   *MemorySeats
	Agent   *ai.Agent

	log *slog.Logger
}

// New builds a vehicle and selects its controller.
func New(opts Options) (*Vehicle, error) {
	if opts.ID == "" {
		return nil, errors.New("vehicle id is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("vehicle", opts.ID)

	owner := vehicleconf.NewOwner(opts.Config)
	s := owner.Snapshot()
	ch, susp := s.Chassis(), s.Suspension()

	rb := body.NewRigidBody(ch.Mass, ch.Dimensions)
	var wheels []*body.Wheel
	var mounts []mgl64.Vec3
	for _, rec := range s.Wheels() {
		w := body.NewWheel(rec.Name, rec.LocalPosition, rec.Radius, rec.Mass, susp.Distance, susp.Spring, susp.Damper)
		if rec.Friction > 0 {
			w.ForwardFriction = rec.Friction
		}
		if rec.SideFriction > 0 {
			w.SidewaysFriction = rec.SideFriction
		}
		wheels = append(wheels, w)
		mounts = append(mounts, rec.LocalPosition)
	}
	roles := wheelrole.Resolve(mounts, s.Wheels(), 0)

	controllers := controller.NewSet(logger)
	controllers[controller.Land].BindConfig(owner)
	router, err := dispatch.NewRouter(controllers, roles, logger)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch router: %w", err)
	}

	seats := opts.Seats
	if seats == nil {
		seats = DefaultSeats()
	}
	v := &Vehicle{
		ID:     opts.ID,
		Owner:  owner,
		Body:   rb,
		Wheels: wheels,
		Roles:  roles,
		Router: router,
		Hub:    input.NewHub(nil, nil),
		Rig:    sensor.NewRig(opts.ID, mgl64.Vec3{0, ch.Dimensions.Y() * 0.5, ch.Dimensions.Z() * 0.5}, sensorRange),
		Seats:  NewMemorySeats(rb, seats),
		log:    logger,
	}
	v.applyMode()
	v.place(opts.Position, opts.Heading)
	return v, nil
}

// applyMode runs the router and adapts the body to the chosen domain.
func (v *Vehicle) applyMode() {
	if !v.Router.ApplyMode() {
		return
	}
	s := v.Owner.Snapshot()
	dims := s.Chassis().Dimensions
	d := v.Router.Active().Domain()

	v.Body.Kinematic = d == controller.Train
	v.Body.ContactRadius = 0
	if len(v.Wheels) == 0 && d != controller.Boat && d != controller.Train {
		v.Body.ContactRadius = dims.Y() * 0.5
	}
	if d == controller.Articulated && v.Trailer == nil {
		v.Trailer = v.buildTrailer(s)
	}
	if d != controller.Articulated {
		v.Trailer = nil
	}
}

func (v *Vehicle) buildTrailer(s vehicleconf.Snapshot) *controller.Trailer {
	t := s.Trailer()
	if t.Mass <= 0 {
		return nil
	}
	susp := s.Suspension()
	radius := defaultTrailerWheelRadius
	if len(v.Wheels) > 0 {
		radius = v.Wheels[0].Radius
	}
	tr := &controller.Trailer{Body: body.NewRigidBody(t.Mass, t.Dimensions)}
	for i, m := range t.Wheels {
		w := body.NewWheel(fmt.Sprintf("trailer_%d", i), m, radius, 25, susp.Distance, susp.Spring, susp.Damper)
		tr.Wheels = append(tr.Wheels, w)
	}
	return tr
}

// place poses the body (and the trailer behind its hitch) at ground point
// pos facing heading.
func (v *Vehicle) place(pos mgl64.Vec3, heading float64) {
	s := v.Owner.Snapshot()
	rot := body.YawRotation(heading)
	switch {
	case len(v.Wheels) > 0:
		pos = pos.Add(body.WorldUp.Mul(body.SettleHeight(0, v.Wheels[0].Radius, s.Suspension().Distance)))
	case v.Body.ContactRadius > 0:
		pos = pos.Add(body.WorldUp.Mul(v.Body.ContactRadius))
	}
	v.Body.SetPose(pos, rot)
	v.hitchTrailer()
}

// hitchTrailer poses the trailer in line behind the tractor with the two
// hitch points coincident.
func (v *Vehicle) hitchTrailer() {
	if v.Trailer == nil {
		return
	}
	t := v.Owner.Snapshot().Trailer()
	rot := body.YawRotation(v.Body.Heading())
	hitch := v.Body.TransformPoint(t.HitchOffset)
	v.Trailer.Body.SetPose(hitch.Sub(rot.Rotate(t.TrailerHitchOffset)), rot)
	v.Trailer.Body.Velocity = v.Body.Velocity
}

// Reconfigure applies an authoring-time edit and re-runs dispatch. Wheel
// layout changes need a new vehicle.
func (v *Vehicle) Reconfigure(fn func(*vehicleconf.Vehicle)) {
	v.Owner.Update(fn)
	hadTrailer := v.Trailer != nil
	v.applyMode()
	if !hadTrailer {
		v.hitchTrailer()
	}
}

// SetHuman installs a human source. It only has authority while the driver
// seat is occupied.
func (v *Vehicle) SetHuman(src input.Source) {
	if src == nil {
		v.Hub.Human = nil
		return
	}
	v.Hub.Human = seated{src: src, seats: v.Seats}
}

// SetAgent installs an AI driver as the hub's AI source.
func (v *Vehicle) SetAgent(a *ai.Agent) {
	v.Agent = a
	if a == nil {
		v.Hub.AI = nil
		return
	}
	v.Hub.AI = a
}

// Active returns the enabled controller, or nil.
func (v *Vehicle) Active() controller.DomainController { return v.Router.Active() }

// Step runs one tick: sensors, AI decision, input poll, the active
// controller, then the physics world.
func (v *Vehicle) Step(env Env, dt float64) {
	hits := v.Rig.Refresh(v.Body, env.Caster)
	if v.Agent != nil {
		v.Agent.Update(v.Body, hits, dt)
	}
	in := v.Hub.Poll()

	if c := v.Router.Active(); c != nil {
		c.FixedUpdate(&controller.Frame{
			Body:    v.Body,
			Wheels:  v.Wheels,
			Roles:   v.Roles,
			Trailer: v.Trailer,
			Input:   in,
			Water:   env.Water,
			Routes:  env.Routes,
			Time:    env.Time,
			Dt:      dt,
		})
	}
	if a, ok := v.Hub.Human.(input.Advancer); ok {
		a.Advance(dt)
	}

	world := env.World
	if world == nil {
		world = defaultWorld
	}
	world.Step(v.Body, v.Wheels, dt)
	if v.Trailer != nil {
		world.Step(v.Trailer.Body, v.Trailer.Wheels, dt)
	}
}
