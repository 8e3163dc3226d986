package input

import (
	"fmt"
	"sort"
)

// Keyframe holds a snapshot from Time onward, until the next keyframe.
type Keyframe struct {
	Time float64 `json:"time"` // seconds
	Snapshot
}

// Scripted replays a timeline of keyframes. It is active from the first
// keyframe until Until (or forever when Until is 0).
type Scripted struct {
	keys  []Keyframe
	until float64
	clock float64
}

// NewScripted sorts the keyframes by time. Negative times are rejected.
func NewScripted(keys []Keyframe, until float64) (*Scripted, error) {
	k := append([]Keyframe(nil), keys...)
	for _, kf := range k {
		if kf.Time < 0 {
			return nil, fmt.Errorf("keyframe at negative time %.3f", kf.Time)
		}
	}
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return &Scripted{keys: k, until: until}, nil
}

// Advance moves the script clock forward by dt.
func (s *Scripted) Advance(dt float64) { s.clock += dt }

// Clock returns the script time.
func (s *Scripted) Clock() float64 { return s.clock }

// Active reports whether the script has started and not yet ended.
func (s *Scripted) Active() bool {
	if len(s.keys) == 0 || s.clock < s.keys[0].Time {
		return false
	}
	return s.until <= 0 || s.clock < s.until
}

// Read returns the latest keyframe at or before the clock.
func (s *Scripted) Read() Snapshot {
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i].Time > s.clock })
	if i == 0 {
		return Snapshot{}
	}
	return s.keys[i-1].Snapshot
}
