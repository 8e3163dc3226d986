package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// tractionRelax is the rate (1/s) at which wheel spin relative to the
	// rolling speed decays back once grip is available.
	tractionRelax = 10.0
	// lateralGrip is the share of sideways contact velocity cancelled per step.
	lateralGrip = 0.5
	// airDecay is the free-spin decay rate (1/s) of an airborne wheel.
	airDecay = 0.5
)

// Hit is a ground contact.
type Hit struct {
	Point        mgl64.Vec3
	Normal       mgl64.Vec3
	Distance     float64 // from the suspension mount along the cast
	ForwardSlip  float64 // wheel surface speed minus ground speed, m/s
	SidewaysSlip float64 // lateral contact speed, m/s
}

// Wheel is one physical contact element. Controllers write MotorTorque,
// BrakeTorque and SteerAngle; the world step reads them and fills in RPM and
// the ground contact.
type Wheel struct {
	Name               string
	LocalPosition      mgl64.Vec3 // suspension mount in body space
	Radius             float64
	Mass               float64
	SuspensionDistance float64
	Spring             float64
	Damper             float64
	ForwardFriction    float64
	SidewaysFriction   float64

	MotorTorque float64 // N·m, signed
	BrakeTorque float64 // N·m, ≥ 0
	SteerAngle  float64 // degrees, positive toward +X

	RPM float64

	omega       float64 // rad/s
	spin        float64 // rad/s above rolling speed
	compression float64
	travel      float64
	load        float64
	grounded    bool
	hit         Hit
}

// NewWheel creates a wheel with the given geometry and suspension.
func NewWheel(name string, local mgl64.Vec3, radius, mass, travel, spring, damper float64) *Wheel {
	return &Wheel{
		Name:               name,
		LocalPosition:      local,
		Radius:             radius,
		Mass:               mass,
		SuspensionDistance: travel,
		Spring:             spring,
		Damper:             damper,
		ForwardFriction:    1,
		SidewaysFriction:   1,
		travel:             1,
	}
}

// GroundHit returns the contact of the last physics step.
func (w *Wheel) GroundHit() (Hit, bool) {
	return w.hit, w.grounded
}

// Travel returns the normalised suspension extension of the last step:
// 0 fully compressed, 1 fully extended or airborne.
func (w *Wheel) Travel() float64 { return w.travel }

// Load returns the suspension force of the last step, N.
func (w *Wheel) Load() float64 { return w.load }

// AngularVelocity returns the wheel spin rate in rad/s.
func (w *Wheel) AngularVelocity() float64 { return w.omega }

// SetContact overrides the contact state. Used to pose wheels in tests and
// replays without running the world step.
func (w *Wheel) SetContact(hit Hit, grounded bool, travel float64) {
	w.hit = hit
	w.grounded = grounded
	w.travel = travel
}

// SetAngularVelocity overrides the spin rate.
func (w *Wheel) SetAngularVelocity(omega float64) {
	w.omega = omega
	w.RPM = omega * 60 / (2 * math.Pi)
}

func (w *Wheel) inertia() float64 {
	in := 0.5 * w.Mass * w.Radius * w.Radius
	if in < 0.05 {
		return 0.05
	}
	return in
}

func (w *Wheel) reach() float64 { return w.SuspensionDistance + w.Radius }

// simulate resolves suspension, traction and spin for one wheel and applies
// the resulting forces to rb. share is the body mass carried per wheel.
func (w *Wheel) simulate(rb *RigidBody, ground Ground, share, dt float64) {
	up := rb.Up()
	mount := rb.TransformPoint(w.LocalPosition)

	hit, ok := ground.Raycast(mount, up.Mul(-1), w.reach())
	if !ok {
		w.airborne(dt)
		return
	}

	compression := w.reach() - hit.Distance
	if !w.grounded {
		w.compression = compression
	}
	compressionRate := (compression - w.compression) / dt
	w.compression = compression
	load := w.Spring*compression + w.Damper*compressionRate
	if load < 0 {
		load = 0
	}
	w.load = load
	w.grounded = true
	w.travel = mgl64.Clamp((hit.Distance-w.Radius)/math.Max(w.SuspensionDistance, 1e-6), 0, 1)
	rb.AddForceAtPosition(hit.Normal.Mul(load), hit.Point)

	steer := mgl64.QuatRotate(mgl64.DegToRad(w.SteerAngle), up)
	fwd := steer.Rotate(rb.Forward())
	fwd = fwd.Sub(hit.Normal.Mul(fwd.Dot(hit.Normal)))
	if fwd.Len() < 1e-9 {
		w.airborne(dt)
		return
	}
	fwd = fwd.Normalize()
	side := hit.Normal.Cross(fwd).Normalize()

	v := rb.PointVelocity(hit.Point)
	vLong := v.Dot(fwd)
	vLat := v.Dot(side)

	maxLong := w.ForwardFriction * load
	drive := w.MotorTorque / w.Radius
	brake := 0.0
	if w.BrakeTorque > 0 {
		stop := math.Abs(vLong) * share / dt
		brake = -sign(vLong) * math.Min(w.BrakeTorque/w.Radius, stop)
	}
	fx := mgl64.Clamp(drive+brake, -maxLong, maxLong)

	// Torque the contact patch cannot transmit spins the wheel up.
	transmitted := mgl64.Clamp(drive, -maxLong, maxLong) * w.Radius
	w.spin += (w.MotorTorque - transmitted) / w.inertia() * dt
	decay := (tractionRelax*math.Abs(w.spin) + w.BrakeTorque/w.inertia()) * dt
	w.spin -= sign(w.spin) * math.Min(math.Abs(w.spin), decay)
	w.omega = vLong/w.Radius + w.spin
	w.RPM = w.omega * 60 / (2 * math.Pi)

	maxLat := w.SidewaysFriction * load
	fy := mgl64.Clamp(-vLat*share/dt*lateralGrip, -maxLat, maxLat)

	rb.AddForceAtPosition(fwd.Mul(fx).Add(side.Mul(fy)), hit.Point)

	hit.ForwardSlip = w.spin * w.Radius
	hit.SidewaysSlip = vLat
	w.hit = hit
}

func (w *Wheel) airborne(dt float64) {
	w.grounded = false
	w.travel = 1
	w.load = 0
	w.compression = 0
	w.spin = 0
	w.omega += w.MotorTorque / w.inertia() * dt
	brake := w.BrakeTorque / w.inertia() * dt
	w.omega -= sign(w.omega) * math.Min(math.Abs(w.omega), brake)
	w.omega *= 1 / (1 + airDecay*dt)
	w.RPM = w.omega * 60 / (2 * math.Pi)
	w.hit = Hit{}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
