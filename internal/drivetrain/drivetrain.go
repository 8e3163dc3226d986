// Package drivetrain implements gear selection, engine speed estimation and
// the distribution of drive and brake torque over a vehicle's wheels.
//
// Gear indices follow the configuration ratio table: 0 is reverse, 1 is
// neutral and 2..N+1 are the forward gears. Changing direction (into or out
// of reverse) is only permitted below the configured reverse engage speed,
// and every shift starts a cooldown that blocks the next one.
package drivetrain

import (
	"fmt"
	"math"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/vehicleconf"
	"github.com/cxd309/vehicle-engine/internal/wheelrole"
	"github.com/go-gl/mathgl/mgl64"
)

// Gear is an index into the transmission ratio table.
type Gear int

const (
	Reverse Gear = 0
	Neutral Gear = 1
	First   Gear = 2
)

func (g Gear) String() string {
	switch {
	case g == Reverse:
		return "R"
	case g == Neutral:
		return "N"
	case g >= First:
		return fmt.Sprintf("%d", int(g-First)+1)
	}
	return "?"
}

// Forward reports whether g is a forward gear.
func (g Gear) Forward() bool { return g >= First }

const (
	// intentThreshold is the pedal position above which the pedal counts as pressed.
	intentThreshold = 0.1
	// rpmSmoothing is the rate (1/s) at which the RPM follows its estimate.
	rpmSmoothing = 8.0
	// stationarySpeed is the speed below which the vehicle is considered at rest.
	stationarySpeed = 0.1
	// holdSpeed is the speed below which the holding brake engages.
	holdSpeed = 0.5
)

// Intent is the driver request for one tick.
type Intent struct {
	Throttle  float64 // [0, 1]
	Brake     float64 // [0, 1]
	Handbrake bool
	// Release suppresses the holding brake and spin-kill, for vehicles that
	// must turn on the spot.
	Release bool
}

// Layout lists wheel indices by drivetrain function.
type Layout struct {
	Powered []int
	Front   []int
	Rear    []int
}

// LayoutFor derives the wheel layout from the resolved roles. Driven wheels
// are RearDrive wheels, or the track sides when drive is a track. A vehicle
// with no driven role drives every wheel that is not Free.
func LayoutFor(roles wheelrole.Set, wheels []*body.Wheel, tracks bool) Layout {
	var l Layout
	if tracks {
		l.Powered = append(roles.Indices(wheelrole.TrackLeft), roles.Indices(wheelrole.TrackRight)...)
	} else {
		l.Powered = roles.Indices(wheelrole.RearDrive)
	}
	if len(l.Powered) == 0 {
		for i, r := range roles {
			if r != wheelrole.Free {
				l.Powered = append(l.Powered, i)
			}
		}
	}
	for i, w := range wheels {
		if w.LocalPosition.Z() > 0 {
			l.Front = append(l.Front, i)
		} else {
			l.Rear = append(l.Rear, i)
		}
	}
	return l
}

// Drivetrain holds the gear, engine speed and shift cooldown of one vehicle.
type Drivetrain struct {
	gear     Gear
	rpm      float64
	rawRPM   float64
	cooldown float64

	// OnShift, if set, is called after every gear change.
	OnShift func(from, to Gear)
}

// New returns a drivetrain in neutral at idle.
func New(idleRPM float64) *Drivetrain {
	return &Drivetrain{gear: Neutral, rpm: idleRPM}
}

// Seed raises the engine speed to idle if it is below it.
func (d *Drivetrain) Seed(idleRPM float64) { d.rpm = math.Max(d.rpm, idleRPM) }

// Gear returns the current gear.
func (d *Drivetrain) Gear() Gear { return d.gear }

// RPM returns the smoothed engine speed.
func (d *Drivetrain) RPM() float64 { return d.rpm }

// Cooldown returns the time left before the next shift is permitted.
func (d *Drivetrain) Cooldown() float64 { return d.cooldown }

// ShiftUp requests a manual upshift. It honours the cooldown and never
// crosses between reverse and the forward gears.
func (d *Drivetrain) ShiftUp(tr vehicleconf.Transmission) bool {
	if d.cooldown > 0 || !d.gear.Forward() || int(d.gear) >= len(tr.GearRatios)-1 {
		return false
	}
	d.shift(d.gear+1, tr.ShiftCooldown)
	return true
}

// ShiftDown requests a manual downshift within the forward gears.
func (d *Drivetrain) ShiftDown(tr vehicleconf.Transmission) bool {
	if d.cooldown > 0 || d.gear <= First {
		return false
	}
	d.shift(d.gear-1, tr.ShiftCooldown)
	return true
}

// Update runs one tick: engine speed, gear selection, drive torque, brakes and
// the spin-kill assist, in that order. speed is the signed longitudinal
// speed of the body. The computed torques overwrite MotorTorque and
// BrakeTorque on every wheel.
func (d *Drivetrain) Update(s vehicleconf.Snapshot, speed float64, wheels []*body.Wheel, l Layout, in Intent, dt float64) {
	tr := s.Transmission()
	eng := s.Engine()

	if d.cooldown > 0 {
		d.cooldown = math.Max(0, d.cooldown-dt)
	}
	d.updateRPM(s, eng, wheels, l, speed, dt)
	d.selectGear(tr, eng, speed, in)

	for _, w := range wheels {
		w.MotorTorque = 0
		w.BrakeTorque = 0
	}
	drive, brake := in.Throttle, in.Brake
	if d.gear == Reverse {
		drive, brake = in.Brake, in.Throttle
	}
	d.applyTorque(s, eng, tr, speed, wheels, l, drive, brake)
	applyBrakes(s.Brakes(), wheels, l, brake, in, speed)
	spinKill(s.Assist(), wheels, in, speed)
}

func (d *Drivetrain) shift(to Gear, cooldown float64) {
	from := d.gear
	if from == to {
		return
	}
	d.gear = to
	d.cooldown = cooldown
	if d.OnShift != nil {
		d.OnShift(from, to)
	}
}

func (d *Drivetrain) updateRPM(s vehicleconf.Snapshot, eng vehicleconf.Engine, wheels []*body.Wheel, l Layout, speed, dt float64) {
	lo, hi := eng.IdleRPM, math.Max(eng.IdleRPM, eng.RedlineRPM)
	target := lo
	d.rawRPM = 0
	if d.gear != Neutral && len(l.Powered) > 0 {
		var sum float64
		for _, i := range l.Powered {
			sum += math.Abs(wheels[i].AngularVelocity())
		}
		ratio := math.Abs(s.GearRatio(int(d.gear))) * s.Transmission().FinalDrive
		d.rawRPM = sum / float64(len(l.Powered)) * ratio * 60 / (2 * math.Pi)
		if math.Abs(speed) >= stationarySpeed {
			target = d.rawRPM
		}
	}
	d.rpm += (target - d.rpm) * math.Min(1, rpmSmoothing*dt)
	d.rpm = mgl64.Clamp(d.rpm, lo, hi)
}

func (d *Drivetrain) selectGear(tr vehicleconf.Transmission, eng vehicleconf.Engine, speed float64, in Intent) {
	forward := in.Throttle > intentThreshold
	reverse := in.Brake > intentThreshold && !forward && !in.Handbrake
	slow := math.Abs(speed) < tr.ReverseEngageSpeed
	last := Gear(len(tr.GearRatios) - 1)

	switch {
	case d.gear == Reverse:
		if speed > tr.ReverseExitSpeed {
			d.shift(Neutral, tr.ShiftCooldown)
			return
		}
		if forward && slow && d.cooldown <= 0 && last >= First {
			d.shift(First, tr.ShiftCooldown)
		}

	case d.gear == Neutral:
		if d.cooldown > 0 {
			return
		}
		if reverse && slow {
			d.shift(Reverse, tr.ShiftCooldown)
		} else if forward && speed > -tr.ReverseEngageSpeed && last >= First {
			d.shift(First, tr.ShiftCooldown)
		}

	default:
		if d.cooldown > 0 {
			return
		}
		if reverse && slow {
			d.shift(Reverse, tr.ShiftCooldown)
			return
		}
		if !tr.Automatic {
			return
		}
		if d.rpm > tr.UpshiftFraction*eng.RedlineRPM && d.gear < last {
			d.shift(d.gear+1, tr.ShiftCooldown)
		} else if d.rpm < tr.DownshiftIdleFactor*eng.IdleRPM && d.gear > First {
			d.shift(d.gear-1, tr.ShiftCooldown)
		}
	}
}

func (d *Drivetrain) applyTorque(s vehicleconf.Snapshot, eng vehicleconf.Engine, tr vehicleconf.Transmission, speed float64, wheels []*body.Wheel, l Layout, drive, brake float64) {
	n := len(l.Powered)
	if n == 0 || d.gear == Neutral {
		return
	}
	ratio := s.GearRatio(int(d.gear))
	if ratio == 0 {
		return
	}

	var per float64
	switch {
	case drive > 0 && d.rawRPM < eng.RedlineRPM:
		total := drive * eng.MaxTorque * eng.TorqueMultiplier * math.Abs(ratio) * tr.FinalDrive
		per = total / float64(n) * math.Copysign(1, ratio)
	case drive <= intentThreshold && brake <= intentThreshold:
		per = -EngineBrakeTorque(eng.EngineBraking, speed) / float64(n)
	}
	for _, i := range l.Powered {
		wheels[i].MotorTorque = per
	}
}

// EngineBrakeTorque returns the signed total engine-braking torque for the
// given longitudinal speed. It opposes motion, never exceeds limit, and fades
// linearly to zero below 1 m/s so it cannot push a vehicle at rest.
func EngineBrakeTorque(limit, speed float64) float64 {
	if limit <= 0 || speed == 0 {
		return 0
	}
	return math.Copysign(limit*math.Min(1, math.Abs(speed)), speed)
}

func applyBrakes(b vehicleconf.Brakes, wheels []*body.Wheel, l Layout, brake float64, in Intent, speed float64) {
	total := brake * b.FrontDiscDiameter * b.Multiplier
	front, rear := total*b.FrontBias, total*(1-b.FrontBias)
	switch {
	case len(l.Front) == 0:
		rear = total
	case len(l.Rear) == 0:
		front = total
	}
	for _, i := range l.Front {
		wheels[i].BrakeTorque = front / float64(len(l.Front))
	}
	for _, i := range l.Rear {
		wheels[i].BrakeTorque = rear / float64(len(l.Rear))
		if in.Handbrake {
			wheels[i].BrakeTorque = math.Max(wheels[i].BrakeTorque, b.HandbrakeTorque)
		}
	}

	idle := in.Throttle <= intentThreshold && in.Brake <= intentThreshold
	if idle && !in.Release && math.Abs(speed) < holdSpeed {
		for _, w := range wheels {
			w.BrakeTorque = math.Max(w.BrakeTorque, b.HoldingTorque)
		}
	}
}

func spinKill(a vehicleconf.Assist, wheels []*body.Wheel, in Intent, speed float64) {
	if !a.SpinKill || in.Handbrake || in.Release {
		return
	}
	if in.Throttle > intentThreshold || in.Brake > intentThreshold || math.Abs(speed) >= a.SpinKillSpeed {
		return
	}
	for _, w := range wheels {
		if math.Abs(w.RPM) > a.SpinKillRPM {
			w.BrakeTorque = math.Max(w.BrakeTorque, a.SpinKillBrakeTorque)
		}
	}
}
