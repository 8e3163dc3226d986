package controller

import (
	"log/slog"
)

// LandController drives a wheeled road vehicle.
type LandController struct {
	base
	wheeled
	hydraulics Hydraulics
}

// NewLand creates a disabled land controller.
func NewLand(logger *slog.Logger) *LandController {
	c := &LandController{base: newBase(Land, logger), wheeled: newWheeled()}
	c.bound = c.seedIdle
	return c
}

// FixedUpdate runs flip recovery, steering, the drivetrain, anti-roll and,
// when fitted, the lowrider hydraulics.
func (c *LandController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	c.roadDrive(f, s)
	c.hydraulics.Apply(f.Body, f.Wheels, s.Lowrider(), f.Input)
}
