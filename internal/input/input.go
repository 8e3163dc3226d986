// Package input defines the per-tick control snapshot and the hub that picks
// exactly one authoritative source (AI or human) each tick.
package input

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is the normalised control state for one tick.
type Snapshot struct {
	Throttle  float64 `json:"throttle"` // [0, 1]
	Brake     float64 `json:"brake"`    // [0, 1]
	Steer     float64 `json:"steer"`    // [-1, 1], positive right
	Handbrake bool    `json:"handbrake"`

	Pitch    float64 `json:"pitch"`    // [-1, 1], positive nose up
	Roll     float64 `json:"roll"`     // [-1, 1], positive right wing down
	Yaw      float64 `json:"yaw"`      // [-1, 1], positive right
	Vertical float64 `json:"vertical"` // [-1, 1], positive climb

	Hop   bool    `json:"hop"`
	Lifts float64 `json:"lifts"` // [-1, 1], positive raises the front
	Tilts float64 `json:"tilts"` // [-1, 1], positive raises the right side
	Slam  bool    `json:"slam"`

	Recover bool `json:"recover"`
}

// Clamp returns s with every axis limited to its range.
func (s Snapshot) Clamp() Snapshot {
	s.Throttle = mgl64.Clamp(s.Throttle, 0, 1)
	s.Brake = mgl64.Clamp(s.Brake, 0, 1)
	s.Steer = mgl64.Clamp(s.Steer, -1, 1)
	s.Pitch = mgl64.Clamp(s.Pitch, -1, 1)
	s.Roll = mgl64.Clamp(s.Roll, -1, 1)
	s.Yaw = mgl64.Clamp(s.Yaw, -1, 1)
	s.Vertical = mgl64.Clamp(s.Vertical, -1, 1)
	s.Lifts = mgl64.Clamp(s.Lifts, -1, 1)
	s.Tilts = mgl64.Clamp(s.Tilts, -1, 1)
	return s
}

// Source produces control snapshots.
type Source interface {
	// Active reports whether the source currently wants control.
	Active() bool
	// Read returns the source's snapshot for this tick.
	Read() Snapshot
}

// Advancer is a source with its own clock, moved forward once per tick
// after the hub has been polled.
type Advancer interface {
	Advance(dt float64)
}

// Authority names the source that produced the current snapshot.
type Authority int

const (
	AuthorityNone Authority = iota
	AuthorityHuman
	AuthorityAI
)

func (a Authority) String() string {
	switch a {
	case AuthorityHuman:
		return "human"
	case AuthorityAI:
		return "ai"
	}
	return "none"
}

// Hub arbitrates between a human and an AI source. Either may be nil.
type Hub struct {
	Human Source
	AI    Source

	current   Snapshot
	authority Authority
}

// NewHub creates a hub over the given sources.
func NewHub(human, ai Source) *Hub {
	return &Hub{Human: human, AI: ai}
}

// Poll selects this tick's snapshot: the AI if it is active, otherwise the
// human if active, otherwise a neutral snapshot. Call once per tick.
func (h *Hub) Poll() Snapshot {
	switch {
	case h.AI != nil && h.AI.Active():
		h.current, h.authority = h.AI.Read().Clamp(), AuthorityAI
	case h.Human != nil && h.Human.Active():
		h.current, h.authority = h.Human.Read().Clamp(), AuthorityHuman
	default:
		h.current, h.authority = Snapshot{}, AuthorityNone
	}
	return h.current
}

// Current returns the snapshot selected by the last Poll.
func (h *Hub) Current() Snapshot { return h.current }

// Authority returns the source selected by the last Poll.
func (h *Hub) Authority() Authority { return h.authority }
