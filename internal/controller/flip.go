package controller

import (
	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
)

// Flip rights an overturned vehicle with a single angular impulse about the
// axis that rotates the body's up toward world up.
type Flip struct {
	cooldown float64
	fired    int
}

// Cooldown returns the time left before the next impulse may fire.
func (fl *Flip) Cooldown() float64 { return fl.cooldown }

// Fired returns how many impulses have been applied.
func (fl *Flip) Fired() int { return fl.fired }

// Update ticks the cooldown and fires if the vehicle is tilted beyond the
// configured angle (or recover is held), slow enough and off cooldown.
// It reports whether an impulse was applied.
func (fl *Flip) Update(rb *body.RigidBody, a vehicleconf.Assist, recover bool, dt float64) bool {
	if fl.cooldown > 0 {
		fl.cooldown = max(0, fl.cooldown-dt)
		if fl.cooldown > 0 {
			return false
		}
	}
	if rb.Velocity.Len() > a.FlipSpeedCeiling {
		return false
	}
	tilt := rb.TiltAngle()
	if !recover && !(a.AutoFlip && tilt > a.FlipAngle) {
		return false
	}

	axis := rb.Up().Cross(body.WorldUp)
	if axis.Len() < 1e-6 {
		// Upright or exactly inverted: no unique axis. Roll over the
		// forward axis when inverted, otherwise there is nothing to do.
		if tilt <= 90 {
			return false
		}
		axis = rb.Forward()
	}
	rb.ApplyAngularImpulse(axis.Normalize().Mul(a.FlipTorque))
	fl.cooldown = a.FlipCooldown
	fl.fired++
	return true
}
