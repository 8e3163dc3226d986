// Package vehicleconf defines the static vehicle configuration consumed by the
// simulation: engine, transmission, suspension, wheel list and the parameter
// blocks of every physical domain (air, water, track, rail, articulation).
//
// A configuration is owned by an Owner and read through immutable Snapshots.
// Mutation happens only through Owner.Update, which is an authoring-time
// operation; controllers never write to a configuration.
package vehicleconf

import (
	"github.com/go-gl/mathgl/mgl64"
)

// VehicleType is the top-level physical domain bucket of a vehicle.
type VehicleType string

const (
	TypeLand  VehicleType = "land"
	TypeAir   VehicleType = "air"
	TypeWater VehicleType = "water"
	TypeRail  VehicleType = "rail"
)

// Categories that select the articulated (tractor + trailer) model.
const (
	CategoryArticulatedTruck = "articulated-truck"
	CategorySemi             = "semi"
	CategoryTractor          = "tractor"
)

// Drive models for articulated vehicles.
const (
	DriveRealistic = "realistic"
	DriveArcade    = "arcade"
)

// Classification drives which domain controller the dispatch router enables.
type Classification struct {
	Type     VehicleType `json:"type"`
	Category string      `json:"category"`
	Tank     bool        `json:"tank"` // tank specialisation: neutral-steer tracks
	VTOL     bool        `json:"vtol"` // VTOL specialisation of an aircraft
}

// Chassis holds the rigid body parameters.
type Chassis struct {
	Mass       float64    `json:"mass"`       // kg
	Dimensions mgl64.Vec3 `json:"dimensions"` // width, height, length in metres
}

// Engine holds the torque source parameters.
type Engine struct {
	IdleRPM          float64 `json:"idle_rpm"`
	RedlineRPM       float64 `json:"redline_rpm"`
	MaxTorque        float64 `json:"max_torque"` // N·m at the crank
	TorqueMultiplier float64 `json:"torque_multiplier"`
	EngineBraking    float64 `json:"engine_braking"` // N·m, upper bound of the opposing torque
}

// Transmission holds the gear ratio table and the shift policy.
// GearRatios[0] is reverse (negative), GearRatios[1] is neutral (0) and
// GearRatios[2:] are the forward gears.
type Transmission struct {
	GearRatios          []float64 `json:"gear_ratios"`
	FinalDrive          float64   `json:"final_drive"`
	Automatic           bool      `json:"automatic"`
	ShiftCooldown       float64   `json:"shift_cooldown"`        // seconds
	ReverseEngageSpeed  float64   `json:"reverse_engage_speed"`  // m/s
	ReverseExitSpeed    float64   `json:"reverse_exit_speed"`    // m/s, forward roll that drops reverse
	UpshiftFraction     float64   `json:"upshift_fraction"`      // of redline
	DownshiftIdleFactor float64   `json:"downshift_idle_factor"` // multiple of idle
}

// ForwardGears returns the number of forward gears in the ratio table.
func (t Transmission) ForwardGears() int {
	if len(t.GearRatios) < 2 {
		return 0
	}
	return len(t.GearRatios) - 2
}

// Suspension holds spring, damper and anti-roll parameters.
type Suspension struct {
	Distance      float64 `json:"distance"` // metres of travel
	Spring        float64 `json:"spring"`   // N/m
	Damper        float64 `json:"damper"`   // N·s/m
	AntiRollFront float64 `json:"anti_roll_front"`
	AntiRollRear  float64 `json:"anti_roll_rear"`
}

// Brakes holds the brake torque model.
type Brakes struct {
	FrontDiscDiameter float64 `json:"front_disc_diameter"` // metres
	Multiplier        float64 `json:"multiplier"`
	FrontBias         float64 `json:"front_bias"`       // fraction of total torque sent to the front axle
	HandbrakeTorque   float64 `json:"handbrake_torque"` // N·m per rear wheel minimum
	HoldingTorque     float64 `json:"holding_torque"`   // N·m per wheel when parked without pedal input
}

// Steering holds the steering geometry.
type Steering struct {
	MaxAngle float64 `json:"max_angle"` // degrees
	Lerp     float64 `json:"lerp"`      // fraction of the remaining angle closed per tick
}

// TrackDrive holds the differential track parameters.
type TrackDrive struct {
	DifferentialStrength float64 `json:"differential_strength"` // N·m per unit steer
	MaxSpeed             float64 `json:"max_speed"`             // m/s
	SteerBlend           float64 `json:"steer_blend"`           // share of steering angle still given to steer wheels
}

// Air holds fixed-wing aerodynamic parameters.
type Air struct {
	WingArea        float64 `json:"wing_area"` // m²
	LiftCoefficient float64 `json:"lift_coefficient"`
	DragCoefficient float64 `json:"drag_coefficient"`
	AirDensity      float64 `json:"air_density"` // kg/m³
	MaxThrust       float64 `json:"max_thrust"`  // N
	PitchTorque     float64 `json:"pitch_torque"`
	RollTorque      float64 `json:"roll_torque"`
	YawTorque       float64 `json:"yaw_torque"`
	Deadzone        float64 `json:"deadzone"`
}

// VTOL holds the hover parameters of a VTOL aircraft.
type VTOL struct {
	HoverMode    bool    `json:"hover_mode"`
	AutoHover    bool    `json:"auto_hover"`
	HoverKp      float64 `json:"hover_kp"` // 1/s², per metre of height error
	HoverKd      float64 `json:"hover_kd"` // 1/s, per m/s of vertical speed
	MaxLiftForce float64 `json:"max_lift_force"`
	ClimbRate    float64 `json:"climb_rate"` // m/s of target height change at full vertical input
}

// BuoyancyPoint is a local-space sample used to compute submersion lift.
type BuoyancyPoint struct {
	Position      mgl64.Vec3 `json:"position"`
	Volume        float64    `json:"volume"`         // m³
	MaxSubmersion float64    `json:"max_submersion"` // metres
}

// Water holds the hull parameters of a boat.
type Water struct {
	Density            float64         `json:"density"` // kg/m³
	BuoyancyMultiplier float64         `json:"buoyancy_multiplier"`
	Points             []BuoyancyPoint `json:"points"`
	LinearDrag         float64         `json:"linear_drag"`
	AngularDrag        float64         `json:"angular_drag"`
	PropulsionForce    float64         `json:"propulsion_force"`
	ReverseForce       float64         `json:"reverse_force"`
	TurnTorque         float64         `json:"turn_torque"`
	PropellerOffset    mgl64.Vec3      `json:"propeller_offset"`
}

// Lowrider holds the hydraulic suspension parameters.
type Lowrider struct {
	Enabled   bool    `json:"enabled"`
	HopForce  float64 `json:"hop_force"`  // upward impulse, N·s
	LiftForce float64 `json:"lift_force"` // N at full lift input, per axle
	TiltForce float64 `json:"tilt_force"` // N at full tilt input, per side
	SlamForce float64 `json:"slam_force"` // downward impulse, N·s
}

// Assist holds driving-assist thresholds.
type Assist struct {
	AutoFlip            bool    `json:"auto_flip"`
	FlipAngle           float64 `json:"flip_angle"`         // degrees from world up
	FlipSpeedCeiling    float64 `json:"flip_speed_ceiling"` // m/s
	FlipCooldown        float64 `json:"flip_cooldown"`      // seconds
	FlipTorque          float64 `json:"flip_torque"`        // angular impulse, N·m·s
	SpinKill            bool    `json:"spin_kill"`
	SpinKillSpeed       float64 `json:"spin_kill_speed"` // m/s
	SpinKillRPM         float64 `json:"spin_kill_rpm"`
	SpinKillBrakeTorque float64 `json:"spin_kill_brake_torque"`
}

// Trailer holds the articulation joint parameters.
type Trailer struct {
	Mass               float64      `json:"mass"`
	Dimensions         mgl64.Vec3   `json:"dimensions"`
	HitchOffset        mgl64.Vec3   `json:"hitch_offset"`         // tractor local
	TrailerHitchOffset mgl64.Vec3   `json:"trailer_hitch_offset"` // trailer local
	Wheels             []mgl64.Vec3 `json:"wheels"`               // trailer local wheel mounts
	MaxYawAngle        float64      `json:"max_yaw_angle"`        // degrees
	YawSpring          float64      `json:"yaw_spring"`
	YawDamper          float64      `json:"yaw_damper"`
	LinearSpring       float64      `json:"linear_spring"`
	LinearDamper       float64      `json:"linear_damper"`
	DriveModel         string       `json:"drive_model"`
	AlignTorque        float64      `json:"align_torque"`
}

// Train holds the rail-constrained motion parameters.
type Train struct {
	Looping      bool         `json:"looping"`
	MaxSpeed     float64      `json:"max_speed"`    // m/s
	Acceleration float64      `json:"acceleration"` // m/s²
	Braking      float64      `json:"braking"`      // m/s²
	Curve        []mgl64.Vec3 `json:"curve"`        // manual curve control points, world space
	FromNode     string       `json:"from_node"`
	ToNode       string       `json:"to_node"`
	RideHeight   float64      `json:"ride_height"`
}

// WheelRecord describes one configured wheel. Role is optional; when empty
// the role resolver falls back to a geometric heuristic.
type WheelRecord struct {
	Name          string     `json:"name"`
	LocalPosition mgl64.Vec3 `json:"local_position"`
	Role          string     `json:"role,omitempty"`
	Radius        float64    `json:"radius"`
	Mass          float64    `json:"mass"`
	Friction      float64    `json:"friction"`
	SideFriction  float64    `json:"side_friction"`
}

// Vehicle is the complete configuration of one vehicle.
type Vehicle struct {
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	Chassis        Chassis        `json:"chassis"`
	Engine         Engine         `json:"engine"`
	Transmission   Transmission   `json:"transmission"`
	Suspension     Suspension     `json:"suspension"`
	Brakes         Brakes         `json:"brakes"`
	Steering       Steering       `json:"steering"`
	TrackDrive     TrackDrive     `json:"track_drive"`
	Air            Air            `json:"air"`
	VTOL           VTOL           `json:"vtol"`
	Water          Water          `json:"water"`
	Lowrider       Lowrider       `json:"lowrider"`
	Assist         Assist         `json:"assist"`
	Trailer        Trailer        `json:"trailer"`
	Train          Train          `json:"train"`
	Wheels         []WheelRecord  `json:"wheels"`
}

// clone returns a deep copy so no slice is shared between copies.
func (v Vehicle) clone() Vehicle {
	out := v
	out.Transmission.GearRatios = append([]float64(nil), v.Transmission.GearRatios...)
	out.Water.Points = append([]BuoyancyPoint(nil), v.Water.Points...)
	out.Trailer.Wheels = append([]mgl64.Vec3(nil), v.Trailer.Wheels...)
	out.Train.Curve = append([]mgl64.Vec3(nil), v.Train.Curve...)
	out.Wheels = append([]WheelRecord(nil), v.Wheels...)
	return out
}
