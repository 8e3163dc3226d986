package wheelrole

import (
	"testing"

	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	records := []vehicleconf.WheelRecord{
		{Name: "fl", LocalPosition: mgl64.Vec3{-1, 0, 2}, Role: "track_left"},
		{Name: "fr", LocalPosition: mgl64.Vec3{1, 0, 2}},
		{Name: "mid", LocalPosition: mgl64.Vec3{0, 0, 0}, Role: "free"},
	}

	tests := []struct {
		name  string
		mount mgl64.Vec3
		want  Role
	}{
		{"explicit role within tolerance", mgl64.Vec3{-1.1, 0, 2.1}, TrackLeft},
		{"matched record without role uses heuristic", mgl64.Vec3{1, 0, 2}, FrontSteer},
		{"explicit free role", mgl64.Vec3{0, 0, 0.1}, Free},
		{"no match forward", mgl64.Vec3{5, 0, 3}, FrontSteer},
		{"no match rearward", mgl64.Vec3{5, 0, -3}, RearDrive},
		{"origin is rearward", mgl64.Vec3{5, 0, 0}, RearDrive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve([]mgl64.Vec3{tt.mount}, records, 0)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestResolve_NearestRecordWins(t *testing.T) {
	records := []vehicleconf.WheelRecord{
		{LocalPosition: mgl64.Vec3{0, 0, -1.2}, Role: "track_left"},
		{LocalPosition: mgl64.Vec3{0, 0, -1.0}, Role: "track_right"},
	}
	got := Resolve([]mgl64.Vec3{{0, 0, -1.05}}, records, 0.5)
	assert.Equal(t, TrackRight, got[0])
}

func TestResolve_EmptyConfig(t *testing.T) {
	got := Resolve([]mgl64.Vec3{{0, 0, 1}, {0, 0, -1}}, nil, 0)
	assert.Equal(t, Set{FrontSteer, RearDrive}, got)
}

func TestSet(t *testing.T) {
	s := Set{FrontSteer, FrontSteer, TrackRight, RearDrive}

	assert.True(t, s.Has(RearDrive))
	assert.False(t, s.Has(TrackLeft))
	assert.True(t, s.HasTrack())
	assert.Equal(t, []int{0, 1}, s.Indices(FrontSteer))
	assert.Nil(t, s.Indices(Free))
	assert.False(t, Set{FrontSteer, RearDrive}.HasTrack())
}

func TestParse(t *testing.T) {
	r, ok := Parse(" Rear_Drive ")
	assert.True(t, ok)
	assert.Equal(t, RearDrive, r)

	_, ok = Parse("wing")
	assert.False(t, ok)
	assert.Equal(t, "track_left", TrackLeft.String())
}
