// Package kinematics models the longitudinal speed of rail-constrained
// vehicles.
//
// The train controller advances along its curve by asking a MotionModel how
// far it moves in one step. Traction models are interchangeable.
package kinematics

// MotionModel is a longitudinal traction model. Distances are in metres,
// speeds in m/s and times in seconds.
type MotionModel interface {
	// TopSpeed is the highest speed the model will reach.
	TopSpeed() float64

	// StoppingDistance is the shortest distance in which speed v comes to
	// rest.
	StoppingDistance(v float64) float64

	// Advance moves speed v toward target for dt seconds and returns the
	// distance covered and the new speed. A target reached mid-step is held
	// for the rest of the step.
	Advance(v, target, dt float64) (dist, newV float64)
}

// Step is Advance with target limited to [0, TopSpeed].
func Step(m MotionModel, v, target, dt float64) (dist, newV float64) {
	target = min(max(target, 0), m.TopSpeed())
	return m.Advance(v, target, dt)
}
