// Package vehicle advances the player car one rendered frame at a time.
//
// The model is arcade handling: a scalar speed pushed by the throttle keys
// and bled off by rolling friction, and a heading that only turns while the
// car is rolling. There is no mass, grip or collision.
package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Input is the control snapshot for one frame.
type Input struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
}

// State is the car's motion state. Heading is a rotation about +Y in
// radians; zero faces +Z.
type State struct {
	Speed    float64
	Heading  float64
	Position mgl32.Vec3
}

// Forward returns the unit vector the car drives along.
func (s State) Forward() mgl32.Vec3 {
	return mgl32.Vec3{float32(math.Sin(s.Heading)), 0, float32(math.Cos(s.Heading))}
}

// Transform returns the model matrix for the car node.
func (s State) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(s.Position[0], s.Position[1], s.Position[2]).
		Mul4(mgl32.HomogRotate3DY(float32(s.Heading)))
}

// Step advances s by one frame.
func Step(s State, in Input, t Tunables) State {
	s.Speed = nextSpeed(s.Speed, in, t)

	if math.Abs(s.Speed) > t.MoveDeadZone {
		s.Position = s.Position.Add(s.Forward().Mul(float32(s.Speed)))
	}

	if math.Abs(s.Speed) > t.TurnDeadZone {
		// Steering flips in reverse.
		dir := sign(s.Speed)
		if in.Left {
			s.Heading += t.TurnRate * dir
		}
		if in.Right {
			s.Heading -= t.TurnRate * dir
		}
	}
	return s
}

func nextSpeed(speed float64, in Input, t Tunables) float64 {
	// Forward wins when both throttle keys are held.
	braking := (in.Forward && speed < 0) || (!in.Forward && in.Backward && speed > 0)

	switch {
	case t.OpposingBrake && braking:
		if speed < 0 {
			speed = math.Min(speed+t.BrakingRate, 0)
		} else {
			speed = math.Max(speed-t.BrakingRate, 0)
		}
	case in.Forward:
		if speed < t.MaxForwardSpeed {
			speed += t.Acceleration
		}
	case in.Backward:
		if speed > t.MaxReverseSpeed {
			speed -= t.Acceleration
		}
	default:
		speed = approach(speed, 0, t.FrictionRate)
	}

	return clampF(speed, t.MaxReverseSpeed, t.MaxForwardSpeed)
}
