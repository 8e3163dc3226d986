// Package controller implements the mutually exclusive domain controllers
// (land, track, articulated, air, boat, train) that turn a control snapshot
// and a vehicle configuration into forces on one rigid body.
//
// Every controller attached to a body shares the same configuration owner
// and the same body. Only the controller enabled by the dispatch router does
// any work in a tick; disabled controllers keep their state untouched so they
// can resume where they left off.
package controller

import (
	"log/slog"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/water"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
)

// Domain indexes the fixed controller array of a vehicle.
type Domain int

const (
	Land Domain = iota
	Track
	Articulated
	Air
	Boat
	Train
	NumDomains
)

var domainNames = [NumDomains]string{"land", "track", "articulated", "air", "boat", "train"}

func (d Domain) String() string {
	if d < 0 || d >= NumDomains {
		return "unknown"
	}
	return domainNames[d]
}

// Variant selects a specialisation inside a domain.
type Variant int

const (
	VariantStandard Variant = iota
	VariantTank
	VariantFixedWing
	VariantVTOL
)

func (v Variant) String() string {
	switch v {
	case VariantTank:
		return "tank"
	case VariantFixedWing:
		return "fixed-wing"
	case VariantVTOL:
		return "vtol"
	}
	return "standard"
}

// Trailer is the second body of an articulated vehicle.
type Trailer struct {
	Body   *body.RigidBody
	Wheels []*body.Wheel
}

// Frame carries everything a controller may read or write in one tick.
type Frame struct {
	Body    *body.RigidBody
	Wheels  []*body.Wheel
	Roles   wheelrole.Set
	Trailer *Trailer // nil unless the vehicle tows one
	Input   input.Snapshot
	Water   water.Surface       // nil means calm water at height 0
	Routes  graph.RouteProvider // nil when no network is loaded
	Time    float64
	Dt      float64
}

// DomainController is one physical model of a vehicle.
type DomainController interface {
	Domain() Domain
	Enabled() bool
	SetEnabled(bool)
	Variant() Variant
	SetVariant(Variant)
	Config() *vehicleconf.Owner
	BindConfig(*vehicleconf.Owner)
	FixedUpdate(f *Frame)
}

// NewSet creates one controller per domain, indexed by Domain, all disabled.
func NewSet(logger *slog.Logger) [NumDomains]DomainController {
	return [NumDomains]DomainController{
		Land:        NewLand(logger),
		Track:       NewTrack(logger),
		Articulated: NewArticulated(logger),
		Air:         NewAir(logger),
		Boat:        NewBoat(logger),
		Train:       NewTrain(logger),
	}
}

// base holds the state every controller shares.
type base struct {
	domain  Domain
	enabled bool
	variant Variant
	owner   *vehicleconf.Owner
	log     *slog.Logger
	warned  map[string]bool
	bound   func(*vehicleconf.Owner) // called after BindConfig with a non-nil owner
}

func newBase(d Domain, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{domain: d, log: logger.With("domain", d.String())}
}

func (b *base) Domain() Domain             { return b.domain }
func (b *base) Enabled() bool              { return b.enabled }
func (b *base) SetEnabled(on bool)         { b.enabled = on }
func (b *base) Variant() Variant           { return b.variant }
func (b *base) SetVariant(v Variant)       { b.variant = v }
func (b *base) Config() *vehicleconf.Owner { return b.owner }

// BindConfig sets the configuration the controller reads.
func (b *base) BindConfig(o *vehicleconf.Owner) {
	b.owner = o
	if o != nil && b.bound != nil {
		b.bound(o)
	}
}

// warnOnce logs msg the first time key is seen.
func (b *base) warnOnce(key, msg string, args ...any) {
	if b.warned[key] {
		return
	}
	if b.warned == nil {
		b.warned = make(map[string]bool)
	}
	b.warned[key] = true
	b.log.Warn(msg, args...)
}

// ready returns the configuration snapshot if the controller should run.
func (b *base) ready(f *Frame) (vehicleconf.Snapshot, bool) {
	if !b.enabled || f == nil || f.Body == nil {
		return vehicleconf.Snapshot{}, false
	}
	s := b.owner.Snapshot()
	if !s.Valid() {
		b.warnOnce("config", "no vehicle configuration bound, controller idle")
		return s, false
	}
	return s, true
}
