package input

// Action is a discrete keyboard command.
type Action int

const (
	ActThrottle Action = iota
	ActBrake
	ActSteerLeft
	ActSteerRight
	ActHandbrake
	ActPitchUp
	ActPitchDown
	ActRollLeft
	ActRollRight
	ActYawLeft
	ActYawRight
	ActClimb
	ActDescend
	ActLiftFront
	ActLiftRear
	ActTiltLeft
	ActTiltRight
	ActHop
	ActSlam
	ActRecover
	numActions
)

// DefaultHold is how long, in seconds, a key press keeps its axis engaged.
const DefaultHold = 0.25

// Keyboard turns key presses into a snapshot. Terminals report presses but
// not releases, so each press holds its axis at full deflection and lets it
// decay to zero over Hold seconds. Hop, Slam and Recover are one-shot and
// are cleared by the Read that reports them.
type Keyboard struct {
	Hold float64

	held   [numActions]float64 // remaining hold, seconds
	pulse  [numActions]bool
	active bool
}

// NewKeyboard creates an inactive keyboard source.
func NewKeyboard() *Keyboard {
	return &Keyboard{Hold: DefaultHold}
}

// SetActive switches the source on or off, typically from seat occupancy.
func (k *Keyboard) SetActive(on bool) { k.active = on }

// Active implements Source.
func (k *Keyboard) Active() bool { return k.active }

// Press registers a key press.
func (k *Keyboard) Press(a Action) {
	if a < 0 || a >= numActions {
		return
	}
	switch a {
	case ActHop, ActSlam, ActRecover:
		k.pulse[a] = true
	default:
		k.held[a] = k.Hold
	}
}

// Advance decays held axes by dt.
func (k *Keyboard) Advance(dt float64) {
	for i := range k.held {
		k.held[i] = max(0, k.held[i]-dt)
	}
}

func (k *Keyboard) axis(a Action) float64 {
	if k.Hold <= 0 {
		return 0
	}
	return k.held[a] / k.Hold
}

func (k *Keyboard) pair(neg, pos Action) float64 {
	return k.axis(pos) - k.axis(neg)
}

// Read implements Source.
func (k *Keyboard) Read() Snapshot {
	s := Snapshot{
		Throttle:  k.axis(ActThrottle),
		Brake:     k.axis(ActBrake),
		Steer:     k.pair(ActSteerLeft, ActSteerRight),
		Handbrake: k.held[ActHandbrake] > 0,
		Pitch:     k.pair(ActPitchDown, ActPitchUp),
		Roll:      k.pair(ActRollLeft, ActRollRight),
		Yaw:       k.pair(ActYawLeft, ActYawRight),
		Vertical:  k.pair(ActDescend, ActClimb),
		Lifts:     k.pair(ActLiftRear, ActLiftFront),
		Tilts:     k.pair(ActTiltLeft, ActTiltRight),
		Hop:       k.pulse[ActHop],
		Slam:      k.pulse[ActSlam],
		Recover:   k.pulse[ActRecover],
	}
	k.pulse = [numActions]bool{}
	return s
}
