// Package dispatch selects the single active domain controller of a vehicle
// from its classification and wires the shared configuration into it.
package dispatch

import (
	"slices"

	"github.com/cxd309/vehicle-engine/internal/controller"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
)

// Class is the input of the classification table.
type Class struct {
	vehicleconf.Classification
	HasTrackRoles bool
}

// Decision is the controller a Class maps to.
type Decision struct {
	Domain  controller.Domain
	Variant controller.Variant
}

// Rule is one row of the classification table.
type Rule struct {
	Name     string
	Match    func(Class) bool
	Decision Decision
}

var articulatedCategories = []string{
	vehicleconf.CategoryArticulatedTruck,
	vehicleconf.CategorySemi,
	vehicleconf.CategoryTractor,
}

func isType(t vehicleconf.VehicleType) func(Class) bool {
	return func(c Class) bool { return c.Type == t }
}

// Rules is the ordered classification table. The first matching row wins;
// the last row matches everything so every class resolves.
var Rules = []Rule{
	{"rail", isType(vehicleconf.TypeRail), Decision{controller.Train, controller.VariantStandard}},
	{"water", isType(vehicleconf.TypeWater), Decision{controller.Boat, controller.VariantStandard}},
	{"vtol", func(c Class) bool { return c.Type == vehicleconf.TypeAir && c.VTOL },
		Decision{controller.Air, controller.VariantVTOL}},
	{"fixed-wing", isType(vehicleconf.TypeAir), Decision{controller.Air, controller.VariantFixedWing}},
	{"tank", func(c Class) bool { return c.Tank }, Decision{controller.Track, controller.VariantTank}},
	{"tracked", func(c Class) bool { return c.HasTrackRoles }, Decision{controller.Track, controller.VariantStandard}},
	{"articulated", func(c Class) bool { return slices.Contains(articulatedCategories, c.Category) },
		Decision{controller.Articulated, controller.VariantStandard}},
	{"land", func(Class) bool { return true }, Decision{controller.Land, controller.VariantStandard}},
}

// Classify returns the decision of the first rule matching c and the rule's
// name.
func Classify(c Class) (Decision, string) {
	for _, r := range Rules {
		if r.Match(c) {
			return r.Decision, r.Name
		}
	}
	return Decision{controller.Land, controller.VariantStandard}, "land"
}
