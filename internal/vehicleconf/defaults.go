package vehicleconf

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Default returns a fully populated rear-wheel-drive sedan configuration.
// Every other vehicle kind is expressed as an overlay on top of it.
func Default() Vehicle {
	return Vehicle{
		Name: "sedan",
		Classification: Classification{
			Type:     TypeLand,
			Category: "car",
		},
		Chassis: Chassis{
			Mass:       1200,
			Dimensions: mgl64.Vec3{1.8, 1.4, 4.5},
		},
		Engine: Engine{
			IdleRPM:          900,
			RedlineRPM:       6500,
			MaxTorque:        250,
			TorqueMultiplier: 1,
			EngineBraking:    60,
		},
		Transmission: Transmission{
			GearRatios:          []float64{-3.2, 0, 3.2, 2.1, 1.5, 1.15, 0.9},
			FinalDrive:          3.4,
			Automatic:           true,
			ShiftCooldown:       0.35,
			ReverseEngageSpeed:  1.0,
			ReverseExitSpeed:    1.5,
			UpshiftFraction:     0.92,
			DownshiftIdleFactor: 2.2,
		},
		Suspension: Suspension{
			Distance:      0.3,
			Spring:        35000,
			Damper:        4500,
			AntiRollFront: 8000,
			AntiRollRear:  6000,
		},
		Brakes: Brakes{
			FrontDiscDiameter: 0.33,
			Multiplier:        9000,
			FrontBias:         0.65,
			HandbrakeTorque:   1500,
			HoldingTorque:     300,
		},
		Steering: Steering{
			MaxAngle: 32,
			Lerp:     0.25,
		},
		TrackDrive: TrackDrive{
			DifferentialStrength: 1500,
			MaxSpeed:             18,
			SteerBlend:           0.5,
		},
		Air: Air{
			WingArea:        16,
			LiftCoefficient: 1.2,
			DragCoefficient: 1.5,
			AirDensity:      1.225,
			MaxThrust:       6000,
			PitchTorque:     4000,
			RollTorque:      5000,
			YawTorque:       2500,
			Deadzone:        0.05,
		},
		VTOL: VTOL{
			HoverKp:      4.0,
			HoverKd:      2.5,
			MaxLiftForce: 30000,
			ClimbRate:    3,
		},
		Water: Water{
			Density:            1000,
			BuoyancyMultiplier: 1,
			Points: []BuoyancyPoint{
				{Position: mgl64.Vec3{-0.8, -0.3, 1.8}, Volume: 0.6, MaxSubmersion: 0.5},
				{Position: mgl64.Vec3{0.8, -0.3, 1.8}, Volume: 0.6, MaxSubmersion: 0.5},
				{Position: mgl64.Vec3{-0.8, -0.3, -1.8}, Volume: 0.6, MaxSubmersion: 0.5},
				{Position: mgl64.Vec3{0.8, -0.3, -1.8}, Volume: 0.6, MaxSubmersion: 0.5},
			},
			LinearDrag:      400,
			AngularDrag:     2000,
			PropulsionForce: 8000,
			ReverseForce:    3000,
			TurnTorque:      6000,
			PropellerOffset: mgl64.Vec3{0, 0, -2},
		},
		Lowrider: Lowrider{
			HopForce:  2400,
			LiftForce: 2500,
			TiltForce: 2000,
			SlamForce: 1800,
		},
		Assist: Assist{
			AutoFlip:            true,
			FlipAngle:           70,
			FlipSpeedCeiling:    2,
			FlipCooldown:        3,
			FlipTorque:          4000,
			SpinKill:            true,
			SpinKillSpeed:       1.0,
			SpinKillRPM:         30,
			SpinKillBrakeTorque: 800,
		},
		Trailer: Trailer{
			Mass:               2500,
			Dimensions:         mgl64.Vec3{2.4, 2.6, 8},
			HitchOffset:        mgl64.Vec3{0, 0.3, -2.4},
			TrailerHitchOffset: mgl64.Vec3{0, 0.3, 3.5},
			Wheels: []mgl64.Vec3{
				{-1.0, 0, -2.8}, {1.0, 0, -2.8},
			},
			MaxYawAngle:  70,
			YawDamper:    1500,
			LinearSpring: 120000,
			LinearDamper: 8000,
			DriveModel:   DriveRealistic,
			AlignTorque:  3000,
		},
		Train: Train{
			MaxSpeed:     30,
			Acceleration: 1.0,
			Braking:      1.5,
			RideHeight:   0.5,
		},
		Wheels: []WheelRecord{
			{Name: "front_left", LocalPosition: mgl64.Vec3{-0.8, 0, 1.35}, Radius: 0.34, Mass: 20, Friction: 1.2, SideFriction: 1.0},
			{Name: "front_right", LocalPosition: mgl64.Vec3{0.8, 0, 1.35}, Radius: 0.34, Mass: 20, Friction: 1.2, SideFriction: 1.0},
			{Name: "rear_left", LocalPosition: mgl64.Vec3{-0.8, 0, -1.35}, Radius: 0.34, Mass: 20, Friction: 1.2, SideFriction: 1.0},
			{Name: "rear_right", LocalPosition: mgl64.Vec3{0.8, 0, -1.35}, Radius: 0.34, Mass: 20, Friction: 1.2, SideFriction: 1.0},
		},
	}
}

// FromJSON decodes a configuration overlay on top of Default. Fields absent
// from data keep their default value; slices present in data replace the
// default slice entirely.
func FromJSON(data []byte) (Vehicle, error) {
	v := Default()
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return Vehicle{}, fmt.Errorf("decoding vehicle configuration: %w", err)
	}
	return v, nil
}
