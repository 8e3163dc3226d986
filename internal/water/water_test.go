package water

import (
	"math"
	"testing"

	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestDisplacedVolume(t *testing.T) {
	tests := []struct {
		name   string
		depth  float64
		expect float64
	}{
		{"above water", -0.5, 0},
		{"surface", 0, 0},
		{"half", 0.5, 0.5},
		{"exactly max", 1, 1},
		{"beyond max saturates", 2, 1},
		{"far beyond max saturates", 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, DisplacedVolume(1, tt.depth, 1), 1e-12)
		})
	}
	assert.Equal(t, 2.0, DisplacedVolume(2, 1, 0), "zero max submersion treated as fully wet")
	assert.Zero(t, DisplacedVolume(2, -1, 0))
}

func TestBuoyancy_Saturated(t *testing.T) {
	p := vehicleconf.BuoyancyPoint{Volume: 1, MaxSubmersion: 1}

	got := Buoyancy(p, 2.0, 1000, 1.0)
	assert.Equal(t, 1000*9.81*1.0*1.0, got)
	assert.Equal(t, got, Buoyancy(p, 7.5, 1000, 1.0), "independent of depth beyond max")
}

func TestFlat(t *testing.T) {
	f := Flat{Level: 2}
	assert.Equal(t, 2.0, f.HeightAt(10, -4, 3))
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, f.NormalAt(0, 0, 0))
}

func TestWaves(t *testing.T) {
	ws := Waves{Level: 1, Components: []Wave{
		{Amplitude: 0.5, Wavelength: 10, Speed: 2, Direction: mgl64.Vec2{1, 0}},
	}}

	assert.InDelta(t, 1, ws.HeightAt(0, 0, 0), 1e-12)
	assert.InDelta(t, 1.5, ws.HeightAt(2.5, 0, 0), 1e-12, "quarter wavelength is a crest")
	assert.InDelta(t, 1.5, ws.HeightAt(4.5, 0, 1), 1e-12, "crest moves with the phase speed")

	n := ws.NormalAt(0, 0, 0)
	assert.InDelta(t, 1, n.Len(), 1e-12)
	assert.Less(t, n.X(), 0.0, "rising slope tilts the normal back")
	assert.InDelta(t, 0, ws.NormalAt(2.5, 0, 0).X(), 1e-12)

	degenerate := Waves{Level: 3, Components: []Wave{{Amplitude: 1, Wavelength: 0}}}
	assert.Equal(t, 3.0, degenerate.HeightAt(1, 1, 1))
	assert.False(t, math.IsNaN(degenerate.NormalAt(1, 1, 1).Y()))
}
