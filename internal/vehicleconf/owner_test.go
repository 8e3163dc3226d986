package vehicleconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwner_SnapshotIsFrozen(t *testing.T) {
	o := NewOwner(Default())
	before := o.Snapshot()

	o.Update(func(v *Vehicle) {
		v.Engine.MaxTorque = 999
		v.Transmission.GearRatios[2] = 10
	})
	after := o.Snapshot()

	assert.Equal(t, 250.0, before.Engine().MaxTorque, "old snapshot must keep its values")
	assert.Equal(t, 3.2, before.GearRatio(2))
	assert.Equal(t, 999.0, after.Engine().MaxTorque)
	assert.Equal(t, 10.0, after.GearRatio(2))
	assert.Greater(t, after.Version(), before.Version())
}

func TestSnapshot_AccessorsReturnCopies(t *testing.T) {
	o := NewOwner(Default())
	s := o.Snapshot()

	tr := s.Transmission()
	tr.GearRatios[2] = 42
	pts := s.Water().Points
	pts[0].Volume = 42
	wheels := s.Wheels()
	wheels[0].Radius = 42

	assert.Equal(t, 3.2, s.GearRatio(2))
	assert.Equal(t, 0.6, s.Water().Points[0].Volume)
	assert.Equal(t, 0.34, s.Wheels()[0].Radius)
}

func TestOwner_NilIsInvalid(t *testing.T) {
	var o *Owner
	assert.False(t, o.Snapshot().Valid())
	assert.Equal(t, uint64(0), o.Version())
}

func TestNewOwner_CopiesInput(t *testing.T) {
	v := Default()
	o := NewOwner(v)
	v.Transmission.GearRatios[2] = 7

	assert.Equal(t, 3.2, o.Snapshot().GearRatio(2))
}

func TestFromJSON_OverlaysDefaults(t *testing.T) {
	v, err := FromJSON([]byte(`{
		"classification": {"type": "water"},
		"engine": {"max_torque": 500},
		"transmission": {"gear_ratios": [-2.5, 0, 2.8, 1.6]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, TypeWater, v.Classification.Type)
	assert.Equal(t, 500.0, v.Engine.MaxTorque)
	assert.Equal(t, 6500.0, v.Engine.RedlineRPM, "unset fields keep defaults")
	assert.Equal(t, 2, v.Transmission.ForwardGears())
	assert.Len(t, v.Wheels, 4)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"engine": 12}`))
	assert.Error(t, err)
}

func TestSnapshot_GearRatioOutOfRange(t *testing.T) {
	s := NewOwner(Default()).Snapshot()
	assert.Equal(t, 0.0, s.GearRatio(-1))
	assert.Equal(t, 0.0, s.GearRatio(100))
}
