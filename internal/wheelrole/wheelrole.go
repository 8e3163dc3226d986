// Package wheelrole assigns a functional role to each physical wheel of a
// vehicle, either from the configuration wheel list or from the wheel's
// position on the body.
package wheelrole

import (
	"math"
	"strings"

	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

// Role is the function of a wheel within the drivetrain.
type Role int

const (
	Free Role = iota
	FrontSteer
	RearDrive
	TrackLeft
	TrackRight
)

// DefaultTolerance is the maximum distance in metres between a wheel and a
// configuration record for the record to be considered a match.
const DefaultTolerance = 0.25

var roleNames = map[Role]string{
	Free:       "free",
	FrontSteer: "front_steer",
	RearDrive:  "rear_drive",
	TrackLeft:  "track_left",
	TrackRight: "track_right",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// Parse converts a configuration role name. Unknown names report false.
func Parse(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return Free, false
}

// Heuristic returns the role of a wheel with no configuration match:
// forward of the body origin steers, everything else is driven.
func Heuristic(local mgl64.Vec3) Role {
	if local.Z() > 0 {
		return FrontSteer
	}
	return RearDrive
}

// Set holds the resolved role of every wheel, indexed like the wheel list.
type Set []Role

// Resolve assigns a role to each wheel mount. Each wheel takes the role of the
// nearest configuration record within tol; wheels without a match, or whose
// record carries no recognised role, fall back to Heuristic. A non-positive
// tol selects DefaultTolerance.
func Resolve(mounts []mgl64.Vec3, records []vehicleconf.WheelRecord, tol float64) Set {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	roles := make(Set, len(mounts))
	for i, m := range mounts {
		roles[i] = Heuristic(m)

		best := -1
		bestDist := math.Inf(1)
		for j, rec := range records {
			d := rec.LocalPosition.Sub(m).Len()
			if d <= tol && d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			continue
		}
		if r, ok := Parse(records[best].Role); ok {
			roles[i] = r
		}
	}
	return roles
}

// Has reports whether any wheel has role r.
func (s Set) Has(r Role) bool {
	for _, x := range s {
		if x == r {
			return true
		}
	}
	return false
}

// Indices returns the positions of the wheels with role r.
func (s Set) Indices(r Role) []int {
	var out []int
	for i, x := range s {
		if x == r {
			out = append(out, i)
		}
	}
	return out
}

// HasTrack reports whether at least one wheel is a track side.
func (s Set) HasTrack() bool {
	return s.Has(TrackLeft) || s.Has(TrackRight)
}
