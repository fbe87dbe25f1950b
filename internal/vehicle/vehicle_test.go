package vehicle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(s State, in Input, t Tunables, n int) State {
	for i := 0; i < n; i++ {
		s = Step(s, in, t)
	}
	return s
}

func TestStep_RestStaysAtRest(t *testing.T) {
	tun := DefaultTunables()
	s := run(State{}, Input{}, tun, 500)
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 0.0, s.Heading)
	assert.Equal(t, mgl32.Vec3{}, s.Position)
}

func TestStep_ForwardAccumulatesAcceleration(t *testing.T) {
	tun := DefaultTunables()
	for _, n := range []int{1, 5, 17, 49, 50, 51, 200} {
		s := run(State{}, Input{Forward: true}, tun, n)
		want := math.Min(float64(n)*tun.Acceleration, tun.MaxForwardSpeed)
		assert.InDelta(t, want, s.Speed, 1e-9, "after %d steps", n)
	}
}

func TestStep_ForwardClampsExactlyAtMax(t *testing.T) {
	tun := DefaultTunables()
	tun.Acceleration = 0.008
	tun.MaxForwardSpeed = 0.4

	s := run(State{}, Input{Forward: true}, tun, 50)
	assert.Equal(t, 0.4, s.Speed)

	s = run(s, Input{Forward: true}, tun, 10)
	assert.Equal(t, 0.4, s.Speed)
}

func TestStep_ReverseClampsAtMaxReverse(t *testing.T) {
	tun := DefaultTunables()
	s := run(State{}, Input{Backward: true}, tun, 100)
	assert.Equal(t, tun.MaxReverseSpeed, s.Speed)
}

func TestStep_AccelerationOvershootIsClamped(t *testing.T) {
	tun := DefaultTunables()
	tun.Acceleration = 0.15 // does not divide the limits evenly

	s := run(State{}, Input{Forward: true}, tun, 3)
	assert.Equal(t, tun.MaxForwardSpeed, s.Speed)

	s = run(State{}, Input{Backward: true}, tun, 3)
	assert.Equal(t, tun.MaxReverseSpeed, s.Speed)
}

func TestStep_SpeedStaysInBounds(t *testing.T) {
	tun := DefaultTunables()
	inputs := []Input{
		{}, {Forward: true}, {Backward: true}, {Forward: true, Backward: true},
		{Left: true}, {Right: true}, {Forward: true, Left: true}, {Backward: true, Right: true},
	}
	starts := []float64{tun.MaxReverseSpeed, -0.05, -0.002, 0, 0.002, 0.2, tun.MaxForwardSpeed}

	for _, opposing := range []bool{false, true} {
		tun.OpposingBrake = opposing
		for _, sp := range starts {
			for _, in := range inputs {
				s := Step(State{Speed: sp}, in, tun)
				assert.GreaterOrEqual(t, s.Speed, tun.MaxReverseSpeed)
				assert.LessOrEqual(t, s.Speed, tun.MaxForwardSpeed)
			}
		}
	}
}

func TestStep_Friction(t *testing.T) {
	tun := DefaultTunables()

	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"forward rolling", 0.2, 0.2 - tun.FrictionRate},
		{"reverse rolling", -0.05, -0.05 + tun.FrictionRate},
		{"within one step forward", tun.FrictionRate * 0.5, 0},
		{"exactly one step", tun.FrictionRate, 0},
		{"within one step reverse", -tun.FrictionRate * 0.9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Step(State{Speed: tt.speed}, Input{}, tun)
			assert.InDelta(t, tt.want, s.Speed, 1e-12)
		})
	}
}

func TestStep_FrictionNeverOvershootsZero(t *testing.T) {
	tun := DefaultTunables()
	s := State{Speed: 0.1}
	for i := 0; i < 100; i++ {
		s = Step(s, Input{}, tun)
		require.GreaterOrEqual(t, s.Speed, 0.0)
	}
	assert.Equal(t, 0.0, s.Speed)
}

func TestStep_HeldKeyAtLimitHoldsSpeed(t *testing.T) {
	tun := DefaultTunables()
	s := Step(State{Speed: tun.MaxForwardSpeed}, Input{Forward: true}, tun)
	assert.Equal(t, tun.MaxForwardSpeed, s.Speed)
}

func TestStep_ForwardWinsOverBackward(t *testing.T) {
	tun := DefaultTunables()
	s := Step(State{Speed: 0.1}, Input{Forward: true, Backward: true}, tun)
	assert.InDelta(t, 0.1+tun.Acceleration, s.Speed, 1e-12)

	tun.OpposingBrake = true
	s = Step(State{Speed: 0.1}, Input{Forward: true, Backward: true}, tun)
	assert.InDelta(t, 0.1+tun.Acceleration, s.Speed, 1e-12)
}

func TestStep_OpposingKeyWithoutBrakeOption(t *testing.T) {
	tun := DefaultTunables()
	s := Step(State{Speed: 0.2}, Input{Backward: true}, tun)
	assert.InDelta(t, 0.2-tun.Acceleration, s.Speed, 1e-12)

	s = Step(State{Speed: -0.05}, Input{Forward: true}, tun)
	assert.InDelta(t, -0.05+tun.Acceleration, s.Speed, 1e-12)
}

func TestStep_OpposingBrake(t *testing.T) {
	tun := DefaultTunables()
	tun.OpposingBrake = true

	s := Step(State{Speed: 0.2}, Input{Backward: true}, tun)
	assert.InDelta(t, 0.2-tun.BrakingRate, s.Speed, 1e-12)

	s = Step(State{Speed: -0.05}, Input{Forward: true}, tun)
	assert.InDelta(t, -0.05+tun.BrakingRate, s.Speed, 1e-12)

	// Braking stops at zero, then the key drives the other way.
	s = Step(State{Speed: 0.01}, Input{Backward: true}, tun)
	assert.Equal(t, 0.0, s.Speed)
	s = Step(s, Input{Backward: true}, tun)
	assert.InDelta(t, -tun.Acceleration, s.Speed, 1e-12)
}

func TestStep_TurnDeadZone(t *testing.T) {
	tun := DefaultTunables()
	for _, sp := range []float64{0, 0.005, tun.TurnDeadZone} {
		// Friction runs before the turn check, so hold the speed with Left only
		// at a value that stays inside the dead zone.
		s := Step(State{Speed: sp, Heading: 1}, Input{Left: true}, tun)
		assert.Equal(t, 1.0, s.Heading, "speed %v", sp)
		s = Step(State{Speed: sp, Heading: 1}, Input{Right: true}, tun)
		assert.Equal(t, 1.0, s.Heading, "speed %v", sp)
	}
}

func TestStep_TurnDirectionFollowsSpeedSign(t *testing.T) {
	tun := DefaultTunables()

	s := Step(State{Speed: 0.2}, Input{Forward: true, Left: true}, tun)
	assert.InDelta(t, tun.TurnRate, s.Heading, 1e-12)

	s = Step(State{Speed: 0.2}, Input{Forward: true, Right: true}, tun)
	assert.InDelta(t, -tun.TurnRate, s.Heading, 1e-12)

	s = Step(State{Speed: -0.08}, Input{Backward: true, Left: true}, tun)
	assert.InDelta(t, -tun.TurnRate, s.Heading, 1e-12)

	s = Step(State{Speed: 0.2}, Input{Left: true, Right: true}, tun)
	assert.InDelta(t, 0, s.Heading, 1e-12)
}

func TestStep_TranslatesAlongHeading(t *testing.T) {
	tun := DefaultTunables()

	s := Step(State{Speed: 0.2}, Input{Forward: true}, tun)
	assert.InDelta(t, 0, s.Position.X(), 1e-6)
	assert.InDelta(t, 0.2+tun.Acceleration, s.Position.Z(), 1e-6)

	s = Step(State{Speed: 0.2, Heading: math.Pi / 2}, Input{Forward: true}, tun)
	assert.InDelta(t, 0.2+tun.Acceleration, s.Position.X(), 1e-6)
	assert.InDelta(t, 0, s.Position.Z(), 1e-6)
	assert.Equal(t, float32(0), s.Position.Y())
}

func TestStep_MoveDeadZone(t *testing.T) {
	tun := DefaultTunables()
	tun.FrictionRate = 0
	s := Step(State{Speed: tun.MoveDeadZone / 2}, Input{}, tun)
	assert.Equal(t, mgl32.Vec3{}, s.Position)
}

func TestState_Transform(t *testing.T) {
	s := State{Heading: math.Pi / 2, Position: mgl32.Vec3{1, 2, 3}}
	m := s.Transform()

	p := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.InDelta(t, 2, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 3, p.Z(), 1e-5)
}

func TestTunables_Validate(t *testing.T) {
	require.NoError(t, DefaultTunables().Validate())

	bad := []func(*Tunables){
		func(t *Tunables) { t.MaxForwardSpeed = 0 },
		func(t *Tunables) { t.MaxReverseSpeed = 0.1 },
		func(t *Tunables) { t.Acceleration = 0 },
		func(t *Tunables) { t.BrakingRate = -1 },
		func(t *Tunables) { t.FrictionRate = -1 },
		func(t *Tunables) { t.TurnRate = -1 },
		func(t *Tunables) { t.TurnDeadZone = -1 },
	}
	for i, mut := range bad {
		tun := DefaultTunables()
		mut(&tun)
		assert.Error(t, tun.Validate(), "case %d", i)
	}
}
