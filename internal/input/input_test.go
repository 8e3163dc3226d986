package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	active bool
	snap   Snapshot
}

func (f fixedSource) Active() bool   { return f.active }
func (f fixedSource) Read() Snapshot { return f.snap }

func TestSnapshot_Clamp(t *testing.T) {
	s := Snapshot{Throttle: 2, Brake: -1, Steer: -3, Pitch: 1.5, Vertical: -9, Lifts: 4, Tilts: -4}.Clamp()
	assert.Equal(t, 1.0, s.Throttle)
	assert.Equal(t, 0.0, s.Brake)
	assert.Equal(t, -1.0, s.Steer)
	assert.Equal(t, 1.0, s.Pitch)
	assert.Equal(t, -1.0, s.Vertical)
	assert.Equal(t, 1.0, s.Lifts)
	assert.Equal(t, -1.0, s.Tilts)
}

func TestHub_Poll(t *testing.T) {
	human := &fixedSource{snap: Snapshot{Throttle: 0.3}}
	ai := &fixedSource{snap: Snapshot{Throttle: 0.9, Steer: 5}}
	h := NewHub(human, ai)

	tests := []struct {
		name     string
		humanOn  bool
		aiOn     bool
		want     Snapshot
		wantAuth Authority
	}{
		{"nobody", false, false, Snapshot{}, AuthorityNone},
		{"human only", true, false, Snapshot{Throttle: 0.3}, AuthorityHuman},
		{"ai only", false, true, Snapshot{Throttle: 0.9, Steer: 1}, AuthorityAI},
		{"ai wins", true, true, Snapshot{Throttle: 0.9, Steer: 1}, AuthorityAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			human.active = tt.humanOn
			ai.active = tt.aiOn
			got := h.Poll()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, h.Current())
			assert.Equal(t, tt.wantAuth, h.Authority())
		})
	}
}

func TestHub_NilSources(t *testing.T) {
	h := NewHub(nil, nil)
	assert.Equal(t, Snapshot{}, h.Poll())
	assert.Equal(t, "none", h.Authority().String())
}

func TestScripted(t *testing.T) {
	s, err := NewScripted([]Keyframe{
		{Time: 2, Snapshot: Snapshot{Brake: 1}},
		{Time: 0.5, Snapshot: Snapshot{Throttle: 1}},
	}, 3)
	require.NoError(t, err)

	assert.False(t, s.Active(), "before first keyframe")
	s.Advance(0.5)
	assert.True(t, s.Active())
	assert.Equal(t, 1.0, s.Read().Throttle)

	s.Advance(1.6)
	assert.Equal(t, Snapshot{Brake: 1}, s.Read())

	s.Advance(1)
	assert.False(t, s.Active(), "after end")

	_, err = NewScripted([]Keyframe{{Time: -1}}, 0)
	assert.Error(t, err)
}

func TestKeyboard(t *testing.T) {
	k := NewKeyboard()
	assert.False(t, k.Active())
	k.SetActive(true)

	k.Press(ActThrottle)
	k.Press(ActSteerLeft)
	k.Press(ActRecover)

	s := k.Read()
	assert.Equal(t, 1.0, s.Throttle)
	assert.Equal(t, -1.0, s.Steer)
	assert.True(t, s.Recover)
	assert.False(t, k.Read().Recover, "one-shot cleared after read")

	k.Advance(DefaultHold / 2)
	assert.InDelta(t, 0.5, k.Read().Throttle, 1e-9)
	k.Advance(DefaultHold)
	assert.Zero(t, k.Read().Throttle)

	k.Press(Action(-1))
	k.Press(numActions)
}
