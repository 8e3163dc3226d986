// Package engine implements the fixed-timestep simulation loop over a scene
// of vehicles.
//
// The simulation advances in fixed timesteps. Each step has two passes:
//
//  1. Publish pass - every vehicle moves its sensor proxy to its current
//     pose, so all vehicles sense the same snapshot of the scene.
//
//  2. Motion pass - every vehicle whose departure delay has elapsed gets its
//     driver, then runs sensors, AI, input arbitration, its active domain
//     controller and the physics step.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cxd309/vehicle-engine/internal/ai"
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/metrics"
	"github.com/cxd309/vehicle-engine/internal/sensor"
	"github.com/cxd309/vehicle-engine/internal/storage"
	"github.com/cxd309/vehicle-engine/internal/vehicle"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/water"
)

// Option configures a Sim.
type Option func(*Sim)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Sim) { s.log = l } }

// WithStorage records vehicle samples into b. The caller owns b's lifecycle.
func WithStorage(b storage.Backend) Option { return func(s *Sim) { s.backend = b } }

// WithSampleInterval sets the simulated time between recorded samples. Zero
// records every tick.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Sim) { s.sampleInterval = d.Seconds() }
}

// WithMetrics records tick and sample measurements on r.
func WithMetrics(r *metrics.Recorder) Option { return func(s *Sim) { s.metrics = r } }

// WithSeed sets the seed agents derive their own from when their driver
// gives none.
func WithSeed(seed uint64) Option { return func(s *Sim) { s.seed = seed } }

// simVehicle is a placed vehicle with the driver it receives on departure.
type simVehicle struct {
	spec     VehicleSpec
	v        *vehicle.Vehicle
	radius   float64
	agent    *ai.Agent
	script   *input.Scripted
	departed bool
}

// Sim is the simulation state.
type Sim struct {
	meta     SimulationMeta
	graph    *graph.Graph
	routes   graph.RouteProvider
	field    *sensor.Field
	world    *body.World
	water    water.Surface
	vehicles []*simVehicle
	byID     map[string]*simVehicle
	curTime  float64
	tick     int

	log            *slog.Logger
	backend        storage.Backend
	sampleInterval float64
	nextSample     float64
	metrics        *metrics.Recorder
	seed           uint64
}

// NewSim builds the scene described by input: the route network, the
// obstacles, the water surface and every vehicle with its driver.
func NewSim(in SimulationInput, opts ...Option) (*Sim, error) {
	if in.Meta.TimeStep <= 0 {
		return nil, fmt.Errorf("time step must be positive, got %g", in.Meta.TimeStep)
	}
	if in.Meta.RunTime < 0 {
		return nil, fmt.Errorf("run time must not be negative, got %g", in.Meta.RunTime)
	}

	s := &Sim{
		meta:  in.Meta,
		field: sensor.NewField(in.Obstacles...),
		world: body.NewWorld(),
		byID:  make(map[string]*simVehicle, len(in.Vehicles)),
		seed:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("simulation", in.Meta.SimulationID)

	if len(in.GraphData.Nodes) > 0 {
		g, err := graph.NewGraph(in.GraphData)
		if err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
		s.graph, s.routes = g, g
	}
	if in.Water != nil {
		surface, err := in.Water.Surface()
		if err != nil {
			return nil, fmt.Errorf("water: %w", err)
		}
		s.water = surface
	}

	for i, spec := range in.Vehicles {
		sv, err := s.place(spec, uint64(i+1))
		if err != nil {
			return nil, fmt.Errorf("vehicle %q: %w", spec.VehicleID, err)
		}
		s.vehicles = append(s.vehicles, sv)
		s.byID[spec.VehicleID] = sv
	}
	if s.metrics != nil {
		s.metrics.Vehicles(context.Background(), int64(len(s.vehicles)))
	}
	return s, nil
}

// place builds one vehicle and prepares its driver.
func (s *Sim) place(spec VehicleSpec, index uint64) (*simVehicle, error) {
	if _, dup := s.byID[spec.VehicleID]; dup {
		return nil, errors.New("duplicate vehicle id")
	}
	cfg, err := vehicleconf.FromJSON(spec.Config)
	if err != nil {
		return nil, err
	}
	v, err := vehicle.New(vehicle.Options{
		ID:       spec.VehicleID,
		Config:   cfg,
		Position: spec.Position,
		Heading:  spec.Heading,
		Logger:   s.log,
	})
	if err != nil {
		return nil, err
	}

	sv := &simVehicle{spec: spec, v: v, radius: spec.ProxyRadius}
	if sv.radius <= 0 {
		dims := cfg.Chassis.Dimensions
		sv.radius = 0.5 * math.Max(dims.X(), dims.Z())
	}

	switch d := spec.Driver; {
	case d.AI != nil:
		seed := d.AI.Seed
		if seed == 0 {
			seed = s.seed*1000 + index
		}
		sv.agent = ai.New(spec.VehicleID, d.AI.Profile, seed, s.log)
		sv.agent.Plan(s.routes, spec.Route.From, spec.Route.To, spec.Waypoints, spec.Looping)
	case d.Script != nil:
		sc, err := input.NewScripted(d.Script.Keyframes, d.Script.Until)
		if err != nil {
			return nil, fmt.Errorf("script driver: %w", err)
		}
		if _, err := v.Seats.Enter(vehicle.RoleDriver); err != nil {
			return nil, fmt.Errorf("seating script driver: %w", err)
		}
		sv.script = sc
	}
	return sv, nil
}

// Vehicle returns the vehicle with the given id, or nil.
func (s *Sim) Vehicle(id string) *vehicle.Vehicle {
	if sv, ok := s.byID[id]; ok {
		return sv.v
	}
	return nil
}

// Time returns the simulated time of the next step.
func (s *Sim) Time() float64 { return s.curTime }

// Field returns the sensor field the vehicles cast against.
func (s *Sim) Field() *sensor.Field { return s.field }

// Run executes the full simulation and returns the log. Samples still
// buffered by the storage backend are flushed before returning.
func (s *Sim) Run() (SimulationLog, error) {
	ticks := int(math.Floor(s.meta.RunTime/s.meta.TimeStep + 1e-9))
	s.log.Info("simulation started", "vehicles", len(s.vehicles), "ticks", ticks+1)

	log := SimulationLog{Meta: s.meta}
	for s.tick <= ticks {
		log.Output = append(log.Output, s.Step())
	}

	if f, ok := s.backend.(storage.Flusher); ok {
		if err := f.Flush(); err != nil {
			return log, fmt.Errorf("flushing samples: %w", err)
		}
	}
	s.log.Info("simulation finished", "time", s.curTime-s.meta.TimeStep)
	return log, nil
}

// Step advances the simulation by one timestep and returns the resulting
// log row, timestamped with the time the step started at.
func (s *Sim) Step() SimulationLogRow {
	start := time.Now()
	dt := s.meta.TimeStep

	// Pass 1: publish every vehicle's proxy before anyone senses.
	for _, sv := range s.vehicles {
		s.field.Set(sensor.Sphere{ID: sv.spec.VehicleID, Center: sv.v.Body.Position, Radius: sv.radius})
	}

	// Pass 2: hand over drivers whose delay has elapsed, then move.
	env := vehicle.Env{
		World:  s.world,
		Caster: s.field,
		Water:  s.water,
		Routes: s.routes,
		Time:   s.curTime,
	}
	for _, sv := range s.vehicles {
		if !sv.departed && s.curTime >= sv.spec.DepartureDelay {
			s.depart(sv)
		}
		sv.v.Step(env, dt)
	}

	row := SimulationLogRow{Timestamp: s.curTime, VehicleLogs: make([]VehicleLog, len(s.vehicles))}
	for i, sv := range s.vehicles {
		row.VehicleLogs[i] = vehicleLog(sv.v)
	}
	s.record(row)

	if s.metrics != nil {
		s.metrics.Tick(context.Background(), s.meta.SimulationID, time.Since(start))
	}
	s.tick++
	s.curTime = float64(s.tick) * dt
	return row
}

func (s *Sim) depart(sv *simVehicle) {
	sv.departed = true
	switch {
	case sv.agent != nil:
		sv.v.SetAgent(sv.agent)
	case sv.script != nil:
		sv.v.SetHuman(sv.script)
	default:
		return
	}
	s.log.Debug("driver engaged", "vehicle", sv.spec.VehicleID, "time", s.curTime)
}

// record hands the row to the storage backend when a sample is due. A
// rejected sample is logged and counted; it never stops the run.
func (s *Sim) record(row SimulationLogRow) {
	if s.backend == nil || s.curTime+1e-9 < s.nextSample {
		return
	}
	s.nextSample = s.curTime + s.sampleInterval
	for i := range row.VehicleLogs {
		sample := row.VehicleLogs[i].sample(s.meta.SimulationID, row.Timestamp)
		err := s.backend.RecordSample(sample)
		if err != nil {
			s.log.Warn("failed to record sample", "backend", s.backend.Name(), "vehicle", sample.VehicleID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.Sample(context.Background(), s.backend.Name(), err)
		}
	}
}

// vehicleLog snapshots v.
func vehicleLog(v *vehicle.Vehicle) VehicleLog {
	l := VehicleLog{
		VehicleID: v.ID,
		Domain:    "none",
		Authority: v.Hub.Authority().String(),
		Position:  v.Body.Position,
		Heading:   v.Body.Heading(),
		Speed:     v.Body.Velocity.Len(),
		Input:     v.Hub.Current(),
	}
	if c := v.Active(); c != nil {
		l.Domain = c.Domain().String()
		l.Variant = c.Variant().String()
		if p, ok := c.(controller.Powertrain); ok {
			l.Gear = p.Drivetrain().Gear().String()
			l.RPM = p.Drivetrain().RPM()
		}
	}
	if v.Agent != nil {
		l.AIState = v.Agent.State().String()
	}
	return l
}

func (l VehicleLog) sample(simulationID string, at float64) *storage.Sample {
	return &storage.Sample{
		SimulationID: simulationID,
		VehicleID:    l.VehicleID,
		Time:         at,
		Domain:       l.Domain,
		Variant:      l.Variant,
		Authority:    l.Authority,
		AIState:      l.AIState,
		Gear:         l.Gear,
		X:            l.Position.X(),
		Y:            l.Position.Y(),
		Z:            l.Position.Z(),
		Heading:      l.Heading,
		Speed:        l.Speed,
		RPM:          l.RPM,
		Throttle:     l.Input.Throttle,
		Brake:        l.Input.Brake,
		Steer:        l.Input.Steer,
	}
}

// RunJSON is the primary entry point for the CLI and WASM targets.
// It accepts a JSON-encoded SimulationInput, runs the simulation, and returns a
// JSON-encoded SimulationLog.
func RunJSON(jsonInput string, opts ...Option) (string, error) {
	var in SimulationInput
	if err := json.Unmarshal([]byte(jsonInput), &in); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	sim, err := NewSim(in, opts...)
	if err != nil {
		return "", err
	}

	simLog, err := sim.Run()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
