package body

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Ground answers downward contact queries.
type Ground interface {
	// Raycast returns the first contact along dir within maxDist of origin.
	Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool)
	// HeightAt returns the ground height below (x, z).
	HeightAt(x, z float64) (float64, bool)
}

// Plane is an infinite horizontal ground plane.
type Plane struct {
	Height float64
}

// Raycast intersects the ray with the plane.
func (p Plane) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	if dir.Y() > -1e-9 {
		return Hit{}, false
	}
	t := (p.Height - origin.Y()) / dir.Y()
	if t < 0 || t > maxDist {
		return Hit{}, false
	}
	return Hit{
		Point:    origin.Add(dir.Mul(t)),
		Normal:   WorldUp,
		Distance: t,
	}, true
}

// HeightAt returns the plane height everywhere.
func (p Plane) HeightAt(_, _ float64) (float64, bool) { return p.Height, true }

// World steps bodies and their wheels against a ground.
type World struct {
	Gravity mgl64.Vec3
	Ground  Ground
}

// NewWorld creates a world with standard gravity over a plane at height 0.
func NewWorld() *World {
	return &World{
		Gravity: mgl64.Vec3{0, -Gravity, 0},
		Ground:  Plane{},
	}
}

// Step resolves wheel contacts for rb, then integrates it by dt.
func (w *World) Step(rb *RigidBody, wheels []*Wheel, dt float64) {
	if dt <= 0 {
		return
	}
	if !rb.Kinematic && w.Ground != nil {
		if len(wheels) > 0 {
			share := rb.Mass / float64(len(wheels))
			for _, wh := range wheels {
				wh.simulate(rb, w.Ground, share, dt)
			}
		}
	}
	rb.Integrate(dt, w.Gravity)
	if !rb.Kinematic && rb.ContactRadius > 0 && w.Ground != nil {
		w.resolveFloor(rb, dt)
	}
}

// resolveFloor keeps a wheel-less body above the ground and applies
// sliding friction while it rests there.
func (w *World) resolveFloor(rb *RigidBody, dt float64) {
	h, ok := w.Ground.HeightAt(rb.Position.X(), rb.Position.Z())
	if !ok {
		return
	}
	floor := h + rb.ContactRadius
	if rb.Position.Y() >= floor {
		return
	}
	rb.Position[1] = floor
	if rb.Velocity.Y() < 0 {
		rb.Velocity[1] = 0
	}
	damp := 1 / (1 + 2*dt)
	rb.Velocity[0] *= damp
	rb.Velocity[2] *= damp
	rb.AngularVelocity = rb.AngularVelocity.Mul(damp)
}

// SettleHeight returns the body height at which wheels configured with the
// given travel and radius start out half compressed.
func SettleHeight(ground float64, radius, travel float64) float64 {
	return ground + radius + travel*0.5
}
