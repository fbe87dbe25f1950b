package vehicle

import "fmt"

// Default handling constants. Speeds are world units per frame.
const (
	DefaultMaxForwardSpeed = 0.4
	DefaultMaxReverseSpeed = -0.10
	DefaultAcceleration    = 0.008
	DefaultBrakingRate     = 0.015
	DefaultFrictionRate    = 0.003
	DefaultTurnRate        = 0.04 // rad/frame
	DefaultMoveDeadZone    = 0.001
	DefaultTurnDeadZone    = 0.01
)

// Tunables holds the handling constants for one vehicle.
type Tunables struct {
	MaxForwardSpeed float64
	MaxReverseSpeed float64
	Acceleration    float64
	BrakingRate     float64
	FrictionRate    float64
	TurnRate        float64
	MoveDeadZone    float64
	TurnDeadZone    float64

	// OpposingBrake makes the opposite key brake a moving car instead of
	// accelerating it the other way. Off keeps the classic handling where
	// the brake branch never triggers.
	OpposingBrake bool
}

func DefaultTunables() Tunables {
	return Tunables{
		MaxForwardSpeed: DefaultMaxForwardSpeed,
		MaxReverseSpeed: DefaultMaxReverseSpeed,
		Acceleration:    DefaultAcceleration,
		BrakingRate:     DefaultBrakingRate,
		FrictionRate:    DefaultFrictionRate,
		TurnRate:        DefaultTurnRate,
		MoveDeadZone:    DefaultMoveDeadZone,
		TurnDeadZone:    DefaultTurnDeadZone,
	}
}

// Validate reports the first inconsistent value.
func (t Tunables) Validate() error {
	switch {
	case t.MaxForwardSpeed <= 0:
		return fmt.Errorf("max forward speed must be positive, got %v", t.MaxForwardSpeed)
	case t.MaxReverseSpeed > 0:
		return fmt.Errorf("max reverse speed must not be positive, got %v", t.MaxReverseSpeed)
	case t.Acceleration <= 0:
		return fmt.Errorf("acceleration must be positive, got %v", t.Acceleration)
	case t.BrakingRate < 0:
		return fmt.Errorf("braking rate must not be negative, got %v", t.BrakingRate)
	case t.FrictionRate < 0:
		return fmt.Errorf("friction rate must not be negative, got %v", t.FrictionRate)
	case t.TurnRate < 0:
		return fmt.Errorf("turn rate must not be negative, got %v", t.TurnRate)
	case t.MoveDeadZone < 0 || t.TurnDeadZone < 0:
		return fmt.Errorf("dead zones must not be negative")
	}
	return nil
}
