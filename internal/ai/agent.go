// Package ai implements the traffic driver: a finite-state machine fed by
// the sensor rig that produces control snapshots in place of a human.
package ai

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/graph"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/cxd309/vehicle-engine/internal/sensor"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the behaviour the agent is in.
type State int

const (
	Cruise State = iota
	Follow
	Avoid
	Yield
	Overtake
	Drift
	Park
)

var stateNames = [...]string{"cruise", "follow", "avoid", "yield", "overtake", "drift", "park"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Fractions of the follow distance and pedal settings per state.
const (
	avoidFraction  = 0.6
	yieldFraction  = 0.5
	followThrottle = 0.4
	followBrake    = 0.3
	avoidBrake     = 0.6
	yieldBrake     = 0.4
	overtakeSteer  = -0.35 // bias toward the left lane
	overtakeSpeed  = 1.2
)

// Agent drives one vehicle along a route. It implements input.Source.
type Agent struct {
	id      string
	profile Profile
	rng     *rand.Rand
	log     *slog.Logger

	route *graph.Route
	s     float64

	active    bool
	state     State
	decision  float64 // time to the next decision
	drift     float64 // drift time left
	driftDir  float64
	overtake  float64 // overtake time left
	following float64 // time spent in Follow
	avoidDir  float64
	decisions int
	out       input.Snapshot
}

var _ input.Source = (*Agent)(nil)

// New creates an active agent with no route. The seed makes reaction times
// and drift choices reproducible.
func New(id string, p Profile, seed uint64, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		id:      id,
		profile: p.withDefaults(),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:     logger.With("agent", id),
		active:  true,
		state:   Park,
		out:     input.Snapshot{Brake: 1},
	}
}

// Plan sets the route: the network route between from and to when routes
// can supply one, otherwise the waypoints. Without either the agent parks.
func (a *Agent) Plan(routes graph.RouteProvider, from, to graph.NodeID, waypoints []mgl64.Vec3, looping bool) bool {
	var r *graph.Route
	if routes != nil && from != "" && to != "" {
		if edges, ok := routes.TryFindRoute(from, to); ok {
			r = graph.NewRoute(edges)
		} else {
			a.log.Warn("no network route, using waypoints", "from", from, "to", to, "waypoints", len(waypoints))
		}
	}
	if r == nil && len(waypoints) >= 2 {
		r = graph.RouteFromCurve(graph.NewPolyline(waypoints, looping))
	}
	a.route, a.s = r, 0
	if r == nil {
		a.log.Warn("agent has no route, parking")
	}
	return r != nil
}

// Route returns the route being followed, or nil.
func (a *Agent) Route() *graph.Route { return a.route }

// Distance returns the projected distance along the route.
func (a *Agent) Distance() float64 { return a.s }

// State returns the current state.
func (a *Agent) State() State { return a.state }

// Decisions returns how many times the agent has re-evaluated its state.
func (a *Agent) Decisions() int { return a.decisions }

// Profile returns the effective driver profile.
func (a *Agent) Profile() Profile { return a.profile }

// SetActive hands control to or takes it from the agent.
func (a *Agent) SetActive(on bool) { a.active = on }

// Active reports whether the agent wants control.
func (a *Agent) Active() bool { return a.active }

// Read returns the snapshot computed by the last Update.
func (a *Agent) Read() input.Snapshot { return a.out }

// Update advances the timers, re-evaluates the state when the decision
// timer runs out, and computes this tick's snapshot. Call it after the
// sensor rig has been refreshed.
func (a *Agent) Update(rb *body.RigidBody, hits sensor.Hits, dt float64) {
	if !a.active || rb == nil {
		return
	}
	a.drift = math.Max(a.drift-dt, 0)
	a.overtake = math.Max(a.overtake-dt, 0)
	if a.state == Follow {
		a.following += dt
	}
	if a.route != nil {
		a.s = a.route.Project(rb.Position)
	}

	a.decision -= dt
	if a.decision <= 0 {
		a.decide(hits)
		a.decision = a.reactionTime()
	}
	a.out = a.command(rb)
}

func (a *Agent) reactionTime() float64 {
	p := a.profile
	return p.ReactionTimeMin + a.rng.Float64()*(p.ReactionTimeMax-p.ReactionTimeMin)
}

// decide applies the transition policy. Order matters: the first matching
// case wins.
func (a *Agent) decide(hits sensor.Hits) {
	a.decisions++
	p := a.profile
	fd := p.FollowDistance

	next := Cruise
	switch {
	case a.route == nil:
		next = Park
	case !a.route.Closed() && a.route.Remaining(a.s) <= p.ParkDistance:
		next = Park
	case a.drift > 0:
		next = Drift
	case hits.Within(sensor.Forward, avoidFraction*fd):
		next = Avoid
		a.avoidDir = clearerSide(hits)
	case a.overtake > 0:
		next = Overtake
	case hits.Within(sensor.Forward, fd):
		next = Follow
		if a.state == Follow && a.following >= p.Patience && leftClear(hits, fd) {
			next = Overtake
			a.overtake = p.OvertakeTime
		}
	case hits.Within(sensor.ForwardLeft, yieldFraction*fd) || hits.Within(sensor.ForwardRight, yieldFraction*fd):
		next = Yield
	case p.DriftTendency > 0 && a.rng.Float64() < p.DriftTendency:
		next = Drift
		a.drift = p.DriftTime
		a.driftDir = 1
		if a.rng.IntN(2) == 0 {
			a.driftDir = -1
		}
	}

	if next != Follow {
		a.following = 0
	}
	if next != a.state {
		a.log.Debug("ai state change", "from", a.state.String(), "to", next.String())
		a.state = next
	}
}

// command turns the state into pedals and steering.
func (a *Agent) command(rb *body.RigidBody) input.Snapshot {
	if a.state == Park || a.route == nil {
		return input.Snapshot{Brake: 1}
	}
	p := a.profile

	target := p.CruiseSpeed
	if lim, ok := a.route.SpeedLimitAt(a.s); ok {
		target = math.Min(target, lim)
	}
	steer := a.routeSteer(rb)
	if a.state == Overtake {
		target *= overtakeSpeed
		steer += overtakeSteer
	}

	err := target - rb.ForwardSpeed()
	out := input.Snapshot{
		Throttle: mgl64.Clamp(err*p.SpeedGain, 0, 1),
		Brake:    mgl64.Clamp(-err*p.SpeedGain, 0, 1),
		Steer:    steer,
	}
	switch a.state {
	case Follow:
		out.Throttle *= followThrottle
		out.Brake = math.Max(out.Brake, followBrake)
	case Avoid:
		out.Throttle = 0
		out.Brake = math.Max(out.Brake, avoidBrake)
		out.Steer = a.avoidDir
	case Yield:
		out.Throttle = 0
		out.Brake = math.Max(out.Brake, yieldBrake)
	case Drift:
		out.Throttle, out.Brake = 1, 0
		out.Handbrake = true
		out.Steer = a.driftDir
	}
	return out.Clamp()
}

// routeSteer maps the bearing of the lookahead point in the body frame to
// a steering command, full lock at MaxSteerAngle.
func (a *Agent) routeSteer(rb *body.RigidBody) float64 {
	pt, _ := a.route.Sample(a.s + a.profile.Lookahead)
	local := rb.InverseTransformPoint(pt)
	bearing := mgl64.RadToDeg(math.Atan2(local.X(), local.Z()))
	return mgl64.Clamp(bearing/a.profile.MaxSteerAngle, -1, 1)
}

// clearerSide returns +1 to steer right or -1 to steer left, toward the
// side with more clearance. Ties go right.
func clearerSide(h sensor.Hits) float64 {
	left := math.Min(h[sensor.ForwardLeft].Distance, h[sensor.Left].Distance)
	right := math.Min(h[sensor.ForwardRight].Distance, h[sensor.Right].Distance)
	if left > right {
		return -1
	}
	return 1
}

func leftClear(h sensor.Hits, dist float64) bool {
	return !h.Within(sensor.Left, dist) && !h.Within(sensor.ForwardLeft, dist)
}
