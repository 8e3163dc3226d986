// Package water provides the procedural water surface and the buoyancy
// model used by the boat controller.
package water

import (
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

// Surface is a time-varying height field.
type Surface interface {
	// HeightAt returns the water height at (x, z) and time t.
	HeightAt(x, z, t float64) float64
	// NormalAt returns the unit surface normal at (x, z) and time t.
	NormalAt(x, z, t float64) mgl64.Vec3
}

// Flat is a still water plane.
type Flat struct {
	Level float64 `json:"level"`
}

func (f Flat) HeightAt(_, _, _ float64) float64     { return f.Level }
func (f Flat) NormalAt(_, _, _ float64) mgl64.Vec3 { return body.WorldUp }

// Wave is one directional sine component.
type Wave struct {
	Amplitude  float64    `json:"amplitude"`  // metres
	Wavelength float64    `json:"wavelength"` // metres
	Speed      float64    `json:"speed"`      // m/s phase speed
	Direction  mgl64.Vec2 `json:"direction"`  // (x, z), need not be normalised
}

func (w Wave) params() (k float64, d mgl64.Vec2, ok bool) {
	if w.Wavelength <= 0 || w.Direction.Len() < 1e-9 {
		return 0, mgl64.Vec2{}, false
	}
	return 2 * math.Pi / w.Wavelength, w.Direction.Normalize(), true
}

// Waves is a sum of sine waves around a mean level.
type Waves struct {
	Level      float64 `json:"level"`
	Components []Wave  `json:"components"`
}

// HeightAt sums the wave components at (x, z).
func (ws Waves) HeightAt(x, z, t float64) float64 {
	h := ws.Level
	for _, w := range ws.Components {
		k, d, ok := w.params()
		if !ok {
			continue
		}
		h += w.Amplitude * math.Sin(k*(d.X()*x+d.Y()*z-w.Speed*t))
	}
	return h
}

// NormalAt returns the analytic normal from the height gradient.
func (ws Waves) NormalAt(x, z, t float64) mgl64.Vec3 {
	var dx, dz float64
	for _, w := range ws.Components {
		k, d, ok := w.params()
		if !ok {
			continue
		}
		c := w.Amplitude * k * math.Cos(k*(d.X()*x+d.Y()*z-w.Speed*t))
		dx += c * d.X()
		dz += c * d.Y()
	}
	return mgl64.Vec3{-dx, 1, -dz}.Normalize()
}

// DisplacedVolume returns the volume a point displaces at depth. Depth is
// clamped to [0, maxSubmersion], so the result saturates at volume.
func DisplacedVolume(volume, depth, maxSubmersion float64) float64 {
	if maxSubmersion <= 0 {
		if depth > 0 {
			return volume
		}
		return 0
	}
	d := mgl64.Clamp(depth, 0, maxSubmersion)
	return volume * d / maxSubmersion
}

// Buoyancy returns the upward force magnitude, N, on point p submerged to
// depth in a fluid of the given density.
func Buoyancy(p vehicleconf.BuoyancyPoint, depth, density, multiplier float64) float64 {
	return density * body.Gravity * DisplacedVolume(p.Volume, depth, p.MaxSubmersion) * multiplier
}
