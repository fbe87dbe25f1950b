package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lallassu/citydrive/internal/vehicle"
)

func TestState_SetAndSnapshot(t *testing.T) {
	var s State
	s.Set(ActionForward, true)
	s.Set(ActionLeft, true)
	assert.Equal(t, vehicle.Input{Forward: true, Left: true}, s.Snapshot())

	s.Set(ActionForward, false)
	s.Set(ActionRight, true)
	s.Set(ActionNone, true)
	assert.Equal(t, vehicle.Input{Left: true, Right: true}, s.Snapshot())
}

func TestState_LastWriteWins(t *testing.T) {
	var s State
	s.Set(ActionBackward, true)
	s.Set(ActionBackward, false)
	s.Set(ActionBackward, true)
	assert.True(t, s.Snapshot().Backward)
}

func TestState_ResetReleasesAllKeys(t *testing.T) {
	combos := []vehicle.Input{
		{},
		{Forward: true},
		{Forward: true, Backward: true, Left: true, Right: true},
		{Backward: true, Right: true},
	}
	for _, in := range combos {
		var s State
		s.Set(ActionForward, in.Forward)
		s.Set(ActionBackward, in.Backward)
		s.Set(ActionLeft, in.Left)
		s.Set(ActionRight, in.Right)

		s.Reset()
		assert.Equal(t, vehicle.Input{}, s.Snapshot())
	}
}

func TestDefaultBindings(t *testing.T) {
	b := DefaultBindings()
	assert.Equal(t, ActionForward, b.Lookup("W"))
	assert.Equal(t, ActionBackward, b.Lookup("s"))
	assert.Equal(t, ActionLeft, b.Lookup("A"))
	assert.Equal(t, ActionRight, b.Lookup("D"))
	assert.Equal(t, ActionNone, b.Lookup("Q"))
}

func TestParseBindings(t *testing.T) {
	b, err := ParseBindings(map[string]string{"forward": "up", "Left": ""})
	require.NoError(t, err)
	assert.Equal(t, ActionForward, b.Lookup("UP"))
	assert.Equal(t, ActionNone, b.Lookup("W"))
	assert.Equal(t, ActionLeft, b.Lookup("A"))
	assert.Equal(t, ActionBackward, b.Lookup("S"))
}

func TestParseBindings_Errors(t *testing.T) {
	_, err := ParseBindings(map[string]string{"jump": "SPACE"})
	assert.ErrorContains(t, err, "unknown control action")

	_, err = ParseBindings(map[string]string{"forward": "S"})
	assert.ErrorContains(t, err, "bound to both")
}
