package vehicleconf

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Owner is the single owner of one vehicle configuration. All controllers on
// a body share the same *Owner and read it through Snapshot.
type Owner struct {
	mu      sync.RWMutex
	cur     *Vehicle
	version uint64
}

// NewOwner takes a private copy of v.
func NewOwner(v Vehicle) *Owner {
	c := v.clone()
	return &Owner{cur: &c, version: 1}
}

// Snapshot returns the current frozen configuration. A nil Owner yields an
// invalid snapshot, which controllers treat as "no configuration".
func (o *Owner) Snapshot() Snapshot {
	if o == nil {
		return Snapshot{}
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Snapshot{v: o.cur, version: o.version}
}

// Update applies an authoring-time edit. fn receives a private copy; the
// result replaces the current configuration so snapshots already handed out
// keep their values. Call only between simulation ticks.
func (o *Owner) Update(fn func(*Vehicle)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.cur.clone()
	fn(&next)
	next = next.clone()
	o.cur = &next
	o.version++
}

// Version returns the number of configurations this owner has held.
func (o *Owner) Version() uint64 {
	if o == nil {
		return 0
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.version
}

// Snapshot is a read-only view of a configuration version. Accessors return
// copies, so nothing reachable from a Snapshot can modify the configuration.
type Snapshot struct {
	v       *Vehicle
	version uint64
}

// Valid reports whether the snapshot refers to a configuration.
func (s Snapshot) Valid() bool { return s.v != nil }

// Version returns the configuration version captured by the snapshot.
func (s Snapshot) Version() uint64 { return s.version }

func (s Snapshot) Name() string                   { return s.v.Name }
func (s Snapshot) Classification() Classification { return s.v.Classification }
func (s Snapshot) Chassis() Chassis               { return s.v.Chassis }
func (s Snapshot) Engine() Engine                 { return s.v.Engine }
func (s Snapshot) Suspension() Suspension         { return s.v.Suspension }
func (s Snapshot) Brakes() Brakes                 { return s.v.Brakes }
func (s Snapshot) Steering() Steering             { return s.v.Steering }
func (s Snapshot) TrackDrive() TrackDrive         { return s.v.TrackDrive }
func (s Snapshot) Air() Air                       { return s.v.Air }
func (s Snapshot) VTOL() VTOL                     { return s.v.VTOL }
func (s Snapshot) Lowrider() Lowrider             { return s.v.Lowrider }
func (s Snapshot) Assist() Assist                 { return s.v.Assist }

// Transmission returns the transmission block with a private ratio table.
func (s Snapshot) Transmission() Transmission {
	t := s.v.Transmission
	t.GearRatios = append([]float64(nil), t.GearRatios...)
	return t
}

// GearRatio returns the ratio for gear index i, or 0 when i is out of range.
func (s Snapshot) GearRatio(i int) float64 {
	r := s.v.Transmission.GearRatios
	if i < 0 || i >= len(r) {
		return 0
	}
	return r[i]
}

// Water returns the hull block with a private buoyancy point list.
func (s Snapshot) Water() Water {
	w := s.v.Water
	w.Points = append([]BuoyancyPoint(nil), w.Points...)
	return w
}

// Trailer returns the articulation block with a private wheel list.
func (s Snapshot) Trailer() Trailer {
	t := s.v.Trailer
	t.Wheels = append([]mgl64.Vec3(nil), t.Wheels...)
	return t
}

// Train returns the rail block with a private curve.
func (s Snapshot) Train() Train {
	t := s.v.Train
	t.Curve = append([]mgl64.Vec3(nil), t.Curve...)
	return t
}

// Wheels returns a copy of the configured wheel records.
func (s Snapshot) Wheels() []WheelRecord {
	return append([]WheelRecord(nil), s.v.Wheels...)
}
