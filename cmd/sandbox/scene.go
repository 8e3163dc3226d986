package main

import (
	"fmt"
	"math"

	"github.com/cxd309/vehicle-engine/internal/ai"
	"github.com/cxd309/vehicle-engine/internal/engine"
	"github.com/cxd309/vehicle-engine/internal/sensor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	playerID   = "player"
	timeStep   = 1.0 / 60
	loopSize   = 60.0 // m, side of the square traffic loop
	maxTraffic = 8
)

// loop is the closed square the traffic follows, corners rounded off by the
// agents' lookahead.
func loop() []mgl64.Vec3 {
	h := loopSize / 2
	return []mgl64.Vec3{
		{-h, 0, -h},
		{-h, 0, h},
		{h, 0, h},
		{h, 0, -h},
	}
}

// newScene is a player car at the origin, traffic cars spread around the
// loop and a few rocks inside it.
func newScene(traffic int) engine.SimulationInput {
	traffic = max(0, min(traffic, maxTraffic))
	in := engine.SimulationInput{
		Meta: engine.SimulationMeta{SimulationID: "sandbox", TimeStep: timeStep},
		Vehicles: []engine.VehicleSpec{
			{VehicleID: playerID},
		},
		Obstacles: []sensor.Sphere{
			{ID: "rock-1", Center: mgl64.Vec3{8, 1, 18}, Radius: 2},
			{ID: "rock-2", Center: mgl64.Vec3{-12, 1, 6}, Radius: 1.5},
			{ID: "rock-3", Center: mgl64.Vec3{4, 1, -20}, Radius: 2.5},
		},
	}

	wps := loop()
	h := loopSize / 2
	perimeter := 4 * loopSize
	for i := range traffic {
		// Distance along the loop, starting on the first leg heading +Z.
		d := perimeter * float64(i) / float64(traffic)
		pos, heading := onLoop(d, h)
		profile := ai.DefaultProfile()
		profile.CruiseSpeed = 10 + 2*float64(i%3)
		in.Vehicles = append(in.Vehicles, engine.VehicleSpec{
			VehicleID: fmt.Sprintf("traffic-%d", i+1),
			Position:  pos,
			Heading:   heading,
			Waypoints: wps,
			Looping:   true,
			Driver: engine.DriverSpec{
				Kind: engine.DriverAI,
				AI:   &engine.AIDriver{Profile: profile},
			},
			DepartureDelay: 0.5 * float64(i),
		})
	}
	return in
}

// onLoop returns the point d metres along the loop and the heading of the
// leg it lies on.
func onLoop(d, h float64) (mgl64.Vec3, float64) {
	side := 2 * h
	d = math.Mod(d, 4*side)
	leg, along := int(d/side), math.Mod(d, side)
	switch leg {
	case 0:
		return mgl64.Vec3{-h, 0, -h + along}, 0
	case 1:
		return mgl64.Vec3{-h + along, 0, h}, 90
	case 2:
		return mgl64.Vec3{h, 0, h - along}, 180
	default:
		return mgl64.Vec3{h - along, 0, -h}, 270
	}
}
