package main

import (
	"math"

	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// runeActions maps letter keys to actions. Arrows and space are handled in
// actionFor.
var runeActions = map[rune]input.Action{
	'w': input.ActThrottle,
	's': input.ActBrake,
	'a': input.ActSteerLeft,
	'd': input.ActSteerRight,
	'i': input.ActPitchDown,
	'k': input.ActPitchUp,
	'j': input.ActRollLeft,
	'l': input.ActRollRight,
	'u': input.ActYawLeft,
	'o': input.ActYawRight,
	'r': input.ActClimb,
	'f': input.ActDescend,
	't': input.ActLiftFront,
	'g': input.ActLiftRear,
	'z': input.ActTiltLeft,
	'x': input.ActTiltRight,
	'h': input.ActHop,
	'b': input.ActSlam,
	'v': input.ActRecover,
}

// actionFor returns the vehicle action bound to ev.
func actionFor(ev *tcell.EventKey) (input.Action, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return input.ActThrottle, true
	case tcell.KeyDown:
		return input.ActBrake, true
	case tcell.KeyLeft:
		return input.ActSteerLeft, true
	case tcell.KeyRight:
		return input.ActSteerRight, true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return input.ActHandbrake, true
		}
		a, ok := runeActions[ev.Rune()]
		return a, ok
	}
	return 0, false
}

// isQuit reports whether ev ends the sandbox.
func isQuit(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
		(ev.Key() == tcell.KeyRune && ev.Rune() == 'q')
}

// view is a top-down projection centred on a world point, +Z up the screen.
// Terminal cells are about twice as tall as wide, so one cell spans Scale
// metres vertically and Scale/2 horizontally.
type view struct {
	Center        mgl64.Vec3
	Scale         float64 // m per cell row
	Width, Height int
}

// project returns the cell showing p and whether it is on screen.
func (v view) project(p mgl64.Vec3) (int, int, bool) {
	dx := (p.X() - v.Center.X()) * 2 / v.Scale
	dz := (p.Z() - v.Center.Z()) / v.Scale
	x := v.Width/2 + int(math.Round(dx))
	y := v.Height/2 - int(math.Round(dz))
	return x, y, x >= 0 && x < v.Width && y >= 0 && y < v.Height
}

// headingGlyph is an arrow pointing along heading, in degrees.
func headingGlyph(heading float64) rune {
	glyphs := []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}
	i := int(math.Round(heading/45)) % len(glyphs)
	if i < 0 {
		i += len(glyphs)
	}
	return glyphs[i]
}
