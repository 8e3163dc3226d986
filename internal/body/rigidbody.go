// Package body provides the rigid body, wheel elements and the physics world
// step that the domain controllers write forces into.
//
// Frame convention: right-handed, Y up, Z forward, X right. All quantities
// are SI (metres, kilograms, seconds, newtons).
package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Gravity is the standard gravitational acceleration, m/s².
const Gravity = 9.81

// World axes.
var (
	WorldUp      = mgl64.Vec3{0, 1, 0}
	WorldForward = mgl64.Vec3{0, 0, 1}
	WorldRight   = mgl64.Vec3{1, 0, 0}
)

// RigidBody is a single rigid body with a diagonal local inertia tensor.
// Forces and torques accumulate between steps and are cleared by Integrate.
type RigidBody struct {
	Mass            float64
	Inertia         mgl64.Vec3 // principal moments in local space
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3 // world space, rad/s

	LinearDamping  float64
	AngularDamping float64
	UseGravity     bool
	// Kinematic bodies are posed directly by their controller and ignore forces.
	Kinematic bool
	// ContactRadius > 0 keeps a wheel-less body from sinking through the ground.
	ContactRadius float64

	force  mgl64.Vec3
	torque mgl64.Vec3
}

// NewRigidBody creates a dynamic body with box inertia for the given dimensions
// (width, height, length).
func NewRigidBody(mass float64, dims mgl64.Vec3) *RigidBody {
	if mass <= 0 {
		mass = 1
	}
	return &RigidBody{
		Mass:           mass,
		Inertia:        BoxInertia(mass, dims),
		Rotation:       mgl64.QuatIdent(),
		UseGravity:     true,
		AngularDamping: 0.05,
	}
}

// BoxInertia returns the principal moments of a solid box.
func BoxInertia(mass float64, dims mgl64.Vec3) mgl64.Vec3 {
	w, h, l := dims.X(), dims.Y(), dims.Z()
	k := mass / 12
	in := mgl64.Vec3{k * (h*h + l*l), k * (w*w + l*l), k * (w*w + h*h)}
	for i := range in {
		if in[i] < 1e-3 {
			in[i] = 1e-3
		}
	}
	return in
}

// Up returns the body's up axis in world space.
func (rb *RigidBody) Up() mgl64.Vec3 { return rb.Rotation.Rotate(WorldUp) }

// Forward returns the body's forward axis in world space.
func (rb *RigidBody) Forward() mgl64.Vec3 { return rb.Rotation.Rotate(WorldForward) }

// Right returns the body's right axis in world space.
func (rb *RigidBody) Right() mgl64.Vec3 { return rb.Rotation.Rotate(WorldRight) }

// TransformPoint maps a local point to world space.
func (rb *RigidBody) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return rb.Position.Add(rb.Rotation.Rotate(local))
}

// InverseTransformPoint maps a world point to local space.
func (rb *RigidBody) InverseTransformPoint(world mgl64.Vec3) mgl64.Vec3 {
	return rb.Rotation.Conjugate().Rotate(world.Sub(rb.Position))
}

// InverseTransformDirection maps a world direction to local space.
func (rb *RigidBody) InverseTransformDirection(dir mgl64.Vec3) mgl64.Vec3 {
	return rb.Rotation.Conjugate().Rotate(dir)
}

// LocalVelocity returns the linear velocity in local space; Z() is the
// longitudinal speed.
func (rb *RigidBody) LocalVelocity() mgl64.Vec3 {
	return rb.InverseTransformDirection(rb.Velocity)
}

// ForwardSpeed returns the signed longitudinal speed.
func (rb *RigidBody) ForwardSpeed() float64 {
	return rb.Velocity.Dot(rb.Forward())
}

// PointVelocity returns the world velocity of a world-space point on the body.
func (rb *RigidBody) PointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(p.Sub(rb.Position)))
}

// AddForce accumulates a force through the centre of mass.
func (rb *RigidBody) AddForce(f mgl64.Vec3) { rb.force = rb.force.Add(f) }

// AddTorque accumulates a world-space torque.
func (rb *RigidBody) AddTorque(t mgl64.Vec3) { rb.torque = rb.torque.Add(t) }

// AddRelativeTorque accumulates a torque given in local space.
func (rb *RigidBody) AddRelativeTorque(t mgl64.Vec3) {
	rb.AddTorque(rb.Rotation.Rotate(t))
}

// AddForceAtPosition accumulates a force applied at a world point.
func (rb *RigidBody) AddForceAtPosition(f, p mgl64.Vec3) {
	rb.force = rb.force.Add(f)
	rb.torque = rb.torque.Add(p.Sub(rb.Position).Cross(f))
}

// ApplyImpulse changes linear velocity instantly.
func (rb *RigidBody) ApplyImpulse(j mgl64.Vec3) {
	rb.Velocity = rb.Velocity.Add(j.Mul(1 / rb.Mass))
}

// ApplyAngularImpulse changes angular velocity instantly by I⁻¹·j.
func (rb *RigidBody) ApplyAngularImpulse(j mgl64.Vec3) {
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.applyInverseInertia(j))
}

// AccumulatedForce returns the force accumulated since the last step.
func (rb *RigidBody) AccumulatedForce() mgl64.Vec3 { return rb.force }

// AccumulatedTorque returns the torque accumulated since the last step.
func (rb *RigidBody) AccumulatedTorque() mgl64.Vec3 { return rb.torque }

// SetPose places a body directly; used by kinematic controllers.
func (rb *RigidBody) SetPose(pos mgl64.Vec3, rot mgl64.Quat) {
	rb.Position = pos
	rb.Rotation = rot.Normalize()
}

// ClearForces discards accumulated forces and torques.
func (rb *RigidBody) ClearForces() {
	rb.force = mgl64.Vec3{}
	rb.torque = mgl64.Vec3{}
}

func (rb *RigidBody) applyInverseInertia(world mgl64.Vec3) mgl64.Vec3 {
	local := rb.Rotation.Conjugate().Rotate(world)
	local = mgl64.Vec3{local.X() / rb.Inertia.X(), local.Y() / rb.Inertia.Y(), local.Z() / rb.Inertia.Z()}
	return rb.Rotation.Rotate(local)
}

// Integrate advances the body by dt with semi-implicit Euler and clears the
// accumulators.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	defer rb.ClearForces()
	if rb.Kinematic || dt <= 0 {
		return
	}

	acc := rb.force.Mul(1 / rb.Mass)
	if rb.UseGravity {
		acc = acc.Add(gravity)
	}
	rb.Velocity = rb.Velocity.Add(acc.Mul(dt))
	if rb.LinearDamping > 0 {
		rb.Velocity = rb.Velocity.Mul(1 / (1 + rb.LinearDamping*dt))
	}

	rb.AngularVelocity = rb.AngularVelocity.Add(rb.applyInverseInertia(rb.torque).Mul(dt))
	if rb.AngularDamping > 0 {
		rb.AngularVelocity = rb.AngularVelocity.Mul(1 / (1 + rb.AngularDamping*dt))
	}

	rb.Position = rb.Position.Add(rb.Velocity.Mul(dt))

	// q' = q + ½·dt·ω⊗q
	spin := mgl64.Quat{W: 0, V: rb.AngularVelocity}.Mul(rb.Rotation).Scale(0.5 * dt)
	rb.Rotation = rb.Rotation.Add(spin).Normalize()
}

// TiltAngle returns the angle in degrees between the body's up axis and world up.
func (rb *RigidBody) TiltAngle() float64 {
	d := mgl64.Clamp(rb.Up().Dot(WorldUp), -1, 1)
	return mgl64.RadToDeg(math.Acos(d))
}

// Heading returns the yaw of the body in degrees, 0 along +Z, positive toward +X.
func (rb *RigidBody) Heading() float64 {
	f := rb.Forward()
	return mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
}

// LookRotation returns the rotation whose forward axis is fwd and whose up
// axis is as close to up as possible.
func LookRotation(fwd, up mgl64.Vec3) mgl64.Quat {
	if fwd.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	fwd = fwd.Normalize()
	right := up.Cross(fwd)
	if right.Len() < 1e-9 {
		right = WorldForward.Cross(fwd)
		if right.Len() < 1e-9 {
			right = WorldRight
		}
	}
	right = right.Normalize()
	up = fwd.Cross(right)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(right, up, fwd).Mat4()).Normalize()
}

// YawRotation returns the rotation for a heading in degrees about world up.
func YawRotation(headingDeg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(headingDeg), WorldUp)
}
