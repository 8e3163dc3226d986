// Package sensor implements the six-ray proximity rig the traffic AI reads.
package sensor

import (
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/go-gl/mathgl/mgl64"
)

// Direction indexes the rays of a Rig.
type Direction int

const (
	Forward Direction = iota
	ForwardLeft
	ForwardRight
	Left
	Right
	Rear
	NumDirections
)

// Yaw of each ray in degrees from the vehicle forward axis, positive right.
var yaws = [NumDirections]float64{0, -30, 30, -90, 90, 180}

var directionNames = [NumDirections]string{"forward", "forward_left", "forward_right", "left", "right", "rear"}

func (d Direction) String() string {
	if d < 0 || d >= NumDirections {
		return "unknown"
	}
	return directionNames[d]
}

// Hit is the result of one ray. Distance is the rig's max length when
// nothing was hit.
type Hit struct {
	Hit      bool       `json:"hit"`
	Distance float64    `json:"distance"`
	Point    mgl64.Vec3 `json:"point"`
	Target   string     `json:"target,omitempty"`
}

// Hits holds one Hit per Direction.
type Hits [NumDirections]Hit

// Within reports whether ray d hit something closer than dist.
func (h Hits) Within(d Direction, dist float64) bool {
	return h[d].Hit && h[d].Distance < dist
}

// Caster answers ray queries against the scene. ignore is the ID of the
// casting vehicle.
type Caster interface {
	Cast(origin, dir mgl64.Vec3, maxDist float64, ignore string) (Hit, bool)
}

// DefaultMaxLength is the ray length used when a Rig has none set.
const DefaultMaxLength = 30.0

// Rig casts the six rays from a point on a vehicle.
type Rig struct {
	Owner     string     // ID of the vehicle carrying the rig
	Offset    mgl64.Vec3 // ray origin in body space
	MaxLength float64

	hits Hits
}

// NewRig creates a rig for the vehicle with the given ID.
func NewRig(owner string, offset mgl64.Vec3, maxLength float64) *Rig {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Rig{Owner: owner, Offset: offset, MaxLength: maxLength}
}

// Refresh recasts every ray from the body pose. A nil caster reports no hits.
func (r *Rig) Refresh(rb *body.RigidBody, c Caster) Hits {
	origin := rb.TransformPoint(r.Offset)
	for d := range NumDirections {
		r.hits[d] = Hit{Distance: r.MaxLength}
		if c == nil {
			continue
		}
		dir := rb.Rotation.Rotate(rayDirection(yaws[d]))
		if h, ok := c.Cast(origin, dir, r.MaxLength, r.Owner); ok {
			h.Hit = true
			r.hits[d] = h
		}
	}
	return r.hits
}

// Hits returns the result of the last Refresh.
func (r *Rig) Hits() Hits { return r.hits }

// rayDirection returns the body-space unit vector yawed from forward.
func rayDirection(yawDeg float64) mgl64.Vec3 {
	a := mgl64.DegToRad(yawDeg)
	v := mgl64.Vec3{math.Sin(a), 0, math.Cos(a)}
	// Sin(π) is not exactly zero.
	if math.Abs(v.X()) < 1e-12 {
		v[0] = 0
	}
	return v
}
