package controller

import (
	"log/slog"
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/kinematics"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/go-gl/mathgl/mgl64"
)

const trainBrakeInput = 0.1

// TrainController moves a kinematic body along a rail curve: either the
// manual curve of the configuration or the route between two network nodes.
type TrainController struct {
	base
	route   *graph.Route
	version uint64 // configuration version the route was built from
	s       float64
	speed   float64
}

// NewTrain creates a disabled train controller.
func NewTrain(logger *slog.Logger) *TrainController {
	return &TrainController{base: newBase(Train, logger)}
}

// Route returns the route being followed, or nil.
func (c *TrainController) Route() *graph.Route { return c.route }

// Distance returns the distance travelled along the route.
func (c *TrainController) Distance() float64 { return c.s }

// Progress returns the normalised position along the route, 0 to 1.
func (c *TrainController) Progress() float64 {
	if c.route == nil {
		return 0
	}
	if l := c.route.Length(); l > 0 {
		return c.s / l
	}
	return 0
}

// Speed returns the speed along the route, m/s.
func (c *TrainController) Speed() float64 { return c.speed }

// FixedUpdate advances along the route toward the throttle-derived target
// speed and poses the body on the curve.
func (c *TrainController) FixedUpdate(f *Frame) {
	s, ok := c.ready(f)
	if !ok {
		return
	}
	tr := s.Train()
	if c.route == nil || c.version != s.Version() {
		if !c.build(f, tr) {
			return
		}
		c.version = s.Version()
	}

	model := kinematics.NewConstantAcceleration(tr.Acceleration, tr.Braking, tr.MaxSpeed)
	target := f.Input.Throttle * tr.MaxSpeed
	if lim, ok := c.route.SpeedLimitAt(c.s); ok {
		target = math.Min(target, lim)
	}
	if f.Input.Brake > trainBrakeInput {
		target = 0
	}
	looping := tr.Looping
	remaining := c.route.Length() - c.s
	if !looping && remaining <= model.StoppingDistance(c.speed) {
		target = 0
	}

	dist, v := kinematics.Step(model, c.speed, target, f.Dt)
	if looping {
		// An open network route loops by jumping back to its start.
		c.s = math.Mod(c.s+dist, c.route.Length())
	} else {
		if dist >= remaining {
			dist, v = remaining, 0
		}
		c.s = math.Min(c.s+dist, c.route.Length())
	}
	c.speed = v

	pos, tan := c.route.Sample(c.s)
	rb := f.Body
	rb.SetPose(pos.Add(body.WorldUp.Mul(tr.RideHeight)), body.LookRotation(tan, body.WorldUp))
	rb.Velocity = tan.Mul(v)
	rb.AngularVelocity = mgl64.Vec3{}
}

// build resolves the route: the manual curve when one is configured,
// otherwise the network route between the configured nodes. The body is
// placed at the closest point of the new route.
func (c *TrainController) build(f *Frame, tr vehicleconf.Train) bool {
	var r *graph.Route
	switch {
	case len(tr.Curve) >= 2:
		r = graph.RouteFromCurve(graph.NewCurve(tr.Curve, tr.Looping))
	case f.Routes != nil && tr.FromNode != "" && tr.ToNode != "":
		if edges, ok := f.Routes.TryFindRoute(tr.FromNode, tr.ToNode); ok {
			r = graph.NewRoute(edges)
		}
	}
	if r == nil || r.Length() <= 0 {
		c.warnOnce("route", "train has no usable route, holding position",
			"from", tr.FromNode, "to", tr.ToNode, "curve_points", len(tr.Curve))
		c.speed = 0
		return false
	}
	first := c.route == nil
	c.route = r
	if first {
		c.s = r.Project(f.Body.Position)
	} else {
		c.s = r.Wrap(c.s)
	}
	return true
}
