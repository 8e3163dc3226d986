package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cxd309/vehicle-engine/internal/ai"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/sensor"
	"github.com/cxd309/vehicle-engine/internal/water"
	"github.com/go-gl/mathgl/mgl64"
)

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID string  `json:"simulation_id"`
	RunTime      float64 `json:"run_time"`  // seconds
	TimeStep     float64 `json:"time_step"` // seconds
}

// SimulationInput is the JSON-serialisable input to the engine.
type SimulationInput struct {
	Meta      SimulationMeta  `json:"simulation_meta"`
	GraphData graph.GraphData `json:"graph_data"`
	Vehicles  []VehicleSpec   `json:"vehicles"`
	Obstacles []sensor.Sphere `json:"obstacles,omitempty"`
	Water     *WaterSpec      `json:"water,omitempty"`
}

// RouteSpec names the network nodes a driver or train travels between.
type RouteSpec struct {
	From graph.NodeID `json:"from"`
	To   graph.NodeID `json:"to"`
}

// VehicleSpec places one vehicle in the scene.
type VehicleSpec struct {
	VehicleID string `json:"vehicle_id"`
	// Config overlays the default vehicle configuration.
	Config    json.RawMessage `json:"config,omitempty"`
	Position  mgl64.Vec3      `json:"position"`
	Heading   float64         `json:"heading"` // degrees
	Driver    DriverSpec      `json:"driver"`
	Route     RouteSpec       `json:"route"`
	Waypoints []mgl64.Vec3    `json:"waypoints,omitempty"`
	Looping   bool            `json:"looping,omitempty"`
	// DepartureDelay is the number of simulation-seconds the driver waits
	// before it is given control. Zero = immediate.
	DepartureDelay float64 `json:"departure_delay,omitempty"` // seconds
	// ProxyRadius is the radius other vehicles' sensors see; zero derives it
	// from the chassis footprint.
	ProxyRadius float64 `json:"proxy_radius,omitempty"`
}

// DriverKind selects who controls a vehicle.
type DriverKind string

const (
	DriverNone   DriverKind = "none"
	DriverAI     DriverKind = "ai"
	DriverScript DriverKind = "script"
)

// AIDriver configures a traffic agent.
type AIDriver struct {
	Profile ai.Profile `json:"profile"`
	Seed    uint64     `json:"seed,omitempty"` // zero derives one from the run seed
}

// ScriptDriver replays an input timeline.
type ScriptDriver struct {
	Keyframes []input.Keyframe `json:"keyframes"`
	Until     float64          `json:"until,omitempty"`
}

// DriverSpec is the driver of a vehicle. Exactly one of AI and Script is
// set for the matching kind.
type DriverSpec struct {
	Kind   DriverKind
	AI     *AIDriver
	Script *ScriptDriver
}

// driverDisc is the minimum JSON structure needed to read the driver kind.
type driverDisc struct {
	Kind DriverKind `json:"kind"`
}

// UnmarshalJSON implements json.Unmarshaler for DriverSpec.
// The "kind" discriminator selects the concrete driver; the rest of the
// object is decoded into it. A missing kind means no driver.
//
// Supported kinds:
//   - "none": the vehicle receives neutral input.
//   - "ai": profile and seed of a traffic agent.
//   - "script": keyframes replayed as human input.
func (d *DriverSpec) UnmarshalJSON(data []byte) error {
	var disc driverDisc
	if err := json.Unmarshal(data, &disc); err != nil {
		return fmt.Errorf("reading driver kind: %w", err)
	}
	*d = DriverSpec{Kind: disc.Kind}
	switch disc.Kind {
	case "", DriverNone:
		d.Kind = DriverNone
	case DriverAI:
		var a AIDriver
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("parsing ai driver: %w", err)
		}
		d.AI = &a
	case DriverScript:
		var s ScriptDriver
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parsing script driver: %w", err)
		}
		d.Script = &s
	default:
		return fmt.Errorf("unknown driver kind %q", disc.Kind)
	}
	return nil
}

// MarshalJSON writes the kind next to the fields of the concrete driver.
func (d DriverSpec) MarshalJSON() ([]byte, error) {
	switch {
	case d.AI != nil:
		return json.Marshal(struct {
			Kind DriverKind `json:"kind"`
			AIDriver
		}{DriverAI, *d.AI})
	case d.Script != nil:
		return json.Marshal(struct {
			Kind DriverKind `json:"kind"`
			ScriptDriver
		}{DriverScript, *d.Script})
	}
	return json.Marshal(driverDisc{Kind: DriverNone})
}

// Water surface kinds.
const (
	WaterFlat  = "flat"
	WaterWaves = "waves"
)

// WaterSpec describes the water surface of the scene.
type WaterSpec struct {
	Kind  string       `json:"kind"`
	Level float64      `json:"level"`
	Waves []water.Wave `json:"waves,omitempty"`
}

// Surface returns the surface described by w.
func (w *WaterSpec) Surface() (water.Surface, error) {
	switch w.Kind {
	case "", WaterFlat:
		return water.Flat{Level: w.Level}, nil
	case WaterWaves:
		return water.Waves{Level: w.Level, Components: w.Waves}, nil
	}
	return nil, fmt.Errorf("unknown water kind %q", w.Kind)
}

// VehicleLog is a point-in-time snapshot of one vehicle.
type VehicleLog struct {
	VehicleID string         `json:"vehicle_id"`
	Domain    string         `json:"domain"`
	Variant   string         `json:"variant"`
	Authority string         `json:"authority"`
	AIState   string         `json:"ai_state,omitempty"`
	Gear      string         `json:"gear,omitempty"`
	RPM       float64        `json:"rpm,omitempty"`
	Position  mgl64.Vec3     `json:"position"`
	Heading   float64        `json:"heading"` // degrees
	Speed     float64        `json:"speed"`   // m/s
	Input     input.Snapshot `json:"input"`
}

// SimulationLogRow is the state of all vehicles at a single simulation timestep.
type SimulationLogRow struct {
	Timestamp   float64      `json:"timestamp"` // seconds
	VehicleLogs []VehicleLog `json:"vehicle_logs"`
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta   SimulationMeta     `json:"simulation_meta"`
	Output []SimulationLogRow `json:"output"`
}
