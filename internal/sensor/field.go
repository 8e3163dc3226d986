package sensor

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is a spherical obstacle or a vehicle proxy.
type Sphere struct {
	ID     string     `json:"id"`
	Center mgl64.Vec3 `json:"center"`
	Radius float64    `json:"radius"`
}

// Field is a Caster over a set of spheres. Vehicles move their proxy with
// Set every tick; static obstacles are added once.
type Field struct {
	mu      sync.RWMutex
	spheres map[string]Sphere
}

// NewField creates a field holding the given spheres.
func NewField(spheres ...Sphere) *Field {
	f := &Field{spheres: make(map[string]Sphere, len(spheres))}
	for _, s := range spheres {
		f.spheres[s.ID] = s
	}
	return f
}

// Set adds or moves a sphere.
func (f *Field) Set(s Sphere) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spheres[s.ID] = s
}

// Remove deletes the sphere with the given ID.
func (f *Field) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.spheres, id)
}

// Len returns the number of spheres.
func (f *Field) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.spheres)
}

// Cast returns the closest sphere hit by the ray within maxDist, skipping
// the sphere whose ID is ignore. dir must be a unit vector.
func (f *Field) Cast(origin, dir mgl64.Vec3, maxDist float64, ignore string) (Hit, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	best := Hit{Distance: maxDist}
	found := false
	for id, s := range f.spheres {
		if id == ignore {
			continue
		}
		t, ok := raySphere(origin, dir, s.Center, s.Radius)
		if !ok || t > maxDist {
			continue
		}
		// Ties go to the lower ID so map order never changes the result.
		if !found || t < best.Distance || (t == best.Distance && id < best.Target) {
			best = Hit{Distance: t, Point: origin.Add(dir.Mul(t)), Target: id}
			found = true
		}
	}
	return best, found
}

// raySphere returns the distance to the first intersection in front of the
// origin. An origin inside the sphere hits at distance 0.
func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	c := oc.Dot(oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := oc.Dot(dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}
