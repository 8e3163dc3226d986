package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantAcceleration_Advance(t *testing.T) {
	m := NewConstantAcceleration(1, 2, 30)

	tests := []struct {
		name       string
		v, target  float64
		dist, newV float64
	}{
		{"accelerating", 0, 10, 0.5, 1},
		{"reaches target mid-step", 9.5, 10, 9.75*0.5 + 10*0.5, 10},
		{"braking", 10, 0, 9, 8},
		{"stops mid-step", 1, 0, 0.25, 0},
		{"holding", 7, 7, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, v := m.Advance(tt.v, tt.target, 1)
			assert.InDelta(t, tt.dist, dist, 1e-12)
			assert.InDelta(t, tt.newV, v, 1e-12)
		})
	}
}

func TestConstantAcceleration_NoBrakes(t *testing.T) {
	m := NewConstantAcceleration(1, 0, 30)

	assert.True(t, math.IsInf(m.StoppingDistance(5), 1))
	dist, v := m.Advance(5, 0, 0.5)
	assert.Equal(t, 5.0, v, "coasts without brakes")
	assert.Equal(t, 2.5, dist)
}

func TestStoppingDistance(t *testing.T) {
	m := NewConstantAcceleration(1, 2, 30)
	assert.InDelta(t, 25, m.StoppingDistance(10), 1e-12)
	assert.Zero(t, m.StoppingDistance(0))
}

func TestStep(t *testing.T) {
	m := NewConstantAcceleration(1, 2, 20)

	_, v := Step(m, 19.9, 50, 1)
	assert.Equal(t, 20.0, v, "target capped at top speed")

	_, v = Step(m, 5, -3, 1)
	assert.Equal(t, 3.0, v, "negative target brakes toward zero")

	dist, v := Step(m, 7, 7, 0.5)
	assert.Equal(t, 7.0, v)
	assert.Equal(t, 3.5, dist)
}
