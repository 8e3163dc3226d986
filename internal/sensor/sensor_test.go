package sensor

import (
	"testing"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBody(pos mgl64.Vec3, heading float64) *body.RigidBody {
	rb := body.NewRigidBody(1000, mgl64.Vec3{2, 1.5, 4})
	rb.SetPose(pos, body.YawRotation(heading))
	return rb
}

func TestRayDirection(t *testing.T) {
	tests := []struct {
		dir  Direction
		want mgl64.Vec3
	}{
		{Forward, mgl64.Vec3{0, 0, 1}},
		{Right, mgl64.Vec3{1, 0, 0}},
		{Left, mgl64.Vec3{-1, 0, 0}},
		{Rear, mgl64.Vec3{0, 0, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got := rayDirection(yaws[tt.dir])
			assert.InDelta(t, tt.want.X(), got.X(), 1e-9)
			assert.InDelta(t, tt.want.Z(), got.Z(), 1e-9)
		})
	}
	fl := rayDirection(yaws[ForwardLeft])
	assert.Less(t, fl.X(), 0.0)
	assert.InDelta(t, 1, fl.Len(), 1e-12)
}

func TestRig_NoHitReportsMaxLength(t *testing.T) {
	rig := NewRig("car", mgl64.Vec3{}, 25)
	hits := rig.Refresh(newBody(mgl64.Vec3{}, 0), NewField())
	for d, h := range hits {
		assert.False(t, h.Hit, Direction(d).String())
		assert.Equal(t, 25.0, h.Distance)
	}

	hits = rig.Refresh(newBody(mgl64.Vec3{}, 0), nil)
	assert.Equal(t, 25.0, hits[Rear].Distance)
}

func TestRig_DefaultLength(t *testing.T) {
	assert.Equal(t, DefaultMaxLength, NewRig("car", mgl64.Vec3{}, 0).MaxLength)
}

func TestRig_ForwardHit(t *testing.T) {
	field := NewField(Sphere{ID: "box", Center: mgl64.Vec3{0, 0, 10}, Radius: 1})
	rig := NewRig("car", mgl64.Vec3{}, 30)
	hits := rig.Refresh(newBody(mgl64.Vec3{}, 0), field)

	require.True(t, hits[Forward].Hit)
	assert.InDelta(t, 9, hits[Forward].Distance, 1e-9)
	assert.Equal(t, "box", hits[Forward].Target)
	assert.InDelta(t, 9, hits[Forward].Point.Z(), 1e-9)
	assert.False(t, hits[Rear].Hit)
	assert.True(t, hits.Within(Forward, 10))
	assert.False(t, hits.Within(Forward, 9))
	assert.Equal(t, hits, rig.Hits())
}

func TestRig_FollowsBodyHeading(t *testing.T) {
	field := NewField(Sphere{ID: "box", Center: mgl64.Vec3{10, 0, 0}, Radius: 1})
	rig := NewRig("car", mgl64.Vec3{}, 30)

	hits := rig.Refresh(newBody(mgl64.Vec3{}, 0), field)
	assert.True(t, hits[Right].Hit)
	assert.False(t, hits[Forward].Hit)

	// Facing +X the same obstacle is straight ahead.
	hits = rig.Refresh(newBody(mgl64.Vec3{}, 90), field)
	assert.True(t, hits[Forward].Hit)
	assert.False(t, hits[Right].Hit)
}

func TestField_IgnoresOwner(t *testing.T) {
	field := NewField(
		Sphere{ID: "car", Center: mgl64.Vec3{}, Radius: 2},
		Sphere{ID: "truck", Center: mgl64.Vec3{0, 0, 20}, Radius: 2},
	)
	rig := NewRig("car", mgl64.Vec3{}, 30)
	hits := rig.Refresh(newBody(mgl64.Vec3{}, 0), field)
	assert.Equal(t, "truck", hits[Forward].Target)
	assert.InDelta(t, 18, hits[Forward].Distance, 1e-9)
}

func TestField_Cast(t *testing.T) {
	field := NewField(
		Sphere{ID: "far", Center: mgl64.Vec3{0, 0, 20}, Radius: 1},
		Sphere{ID: "near", Center: mgl64.Vec3{0, 0, 8}, Radius: 1},
		Sphere{ID: "behind", Center: mgl64.Vec3{0, 0, -5}, Radius: 1},
	)
	fwd := mgl64.Vec3{0, 0, 1}

	h, ok := field.Cast(mgl64.Vec3{}, fwd, 50, "")
	require.True(t, ok)
	assert.Equal(t, "near", h.Target)

	_, ok = field.Cast(mgl64.Vec3{}, fwd, 5, "")
	assert.False(t, ok, "beyond max length")

	h, ok = field.Cast(mgl64.Vec3{0, 0, 8}, fwd, 50, "")
	require.True(t, ok)
	assert.Equal(t, "near", h.Target, "origin inside a sphere")
	assert.Zero(t, h.Distance)

	field.Remove("near")
	field.Set(Sphere{ID: "far", Center: mgl64.Vec3{0, 0, 40}, Radius: 1})
	h, ok = field.Cast(mgl64.Vec3{}, fwd, 50, "")
	require.True(t, ok)
	assert.InDelta(t, 39, h.Distance, 1e-9)
	assert.Equal(t, 2, field.Len())

	_, ok = field.Cast(mgl64.Vec3{0, 3, 0}, fwd, 50, "")
	assert.False(t, ok, "ray passes above")
}
