package kinematics

import "math"

// ConstantAcceleration speeds up and slows down at fixed rates, as a train
// block configures them.
type ConstantAcceleration struct {
	Accel   float64 // m/s²
	Braking float64 // m/s², positive
	Top     float64 // m/s
}

// NewConstantAcceleration builds a model from acceleration, braking and
// top-speed values.
func NewConstantAcceleration(accel, braking, top float64) ConstantAcceleration {
	return ConstantAcceleration{Accel: accel, Braking: braking, Top: top}
}

func (c ConstantAcceleration) TopSpeed() float64 { return c.Top }

// StoppingDistance is infinite without brakes.
func (c ConstantAcceleration) StoppingDistance(v float64) float64 {
	if c.Braking <= 0 {
		return math.Inf(1)
	}
	return v * v / (2 * c.Braking)
}

func (c ConstantAcceleration) Advance(v, target, dt float64) (float64, float64) {
	rate := c.Accel
	if target < v {
		rate = c.Braking
	}
	return ramp(v, target, rate, dt)
}

// ramp changes v toward target at rate for dt. A zero rate coasts at v.
func ramp(v, target, rate, dt float64) (float64, float64) {
	if rate <= 0 {
		return v * dt, v
	}
	reach := math.Abs(target-v) / rate
	if reach <= dt {
		return 0.5*(v+target)*reach + target*(dt-reach), target
	}
	newV := v + math.Copysign(rate*dt, target-v)
	return 0.5 * (v + newV) * dt, newV
}
