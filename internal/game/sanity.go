package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
)

// ValidationResult represents the outcome of a post-tick state check
type ValidationResult int

const (
	ValidationValid ValidationResult = iota
	ValidationClamped
	ValidationRollback
)

func (r ValidationResult) String() string {
	switch r {
	case ValidationValid:
		return "valid"
	case ValidationClamped:
		return "clamped"
	case ValidationRollback:
		return "rollback"
	}
	return "unknown"
}

// Sanity keeps vehicle state numerically usable after each tick.
type Sanity struct{}

// NewSanity creates a new state validator
func NewSanity() *Sanity {
	return &Sanity{}
}

// Validate rolls a vehicle with non-finite state back to its last valid
// position at rest, and clamps speed that exceeds the stat top speed.
func (s *Sanity) Validate(v *Vehicle) ValidationResult {
	if !finite(v.Pos) || !finite(v.Vel) || math.IsNaN(v.Heading) || math.IsInf(v.Heading, 0) {
		v.Pos = v.lastValid
		v.Vel = mgl64.Vec2{}
		v.Heading = NormalizeAngle(v.Heading)
		v.Corrections++
		return ValidationRollback
	}

	result := ValidationValid
	limit := v.coeff.MaxSpeed
	if speed := v.Speed(); speed > limit*config.SpeedTolerance {
		if limit <= 0 {
			v.Vel = mgl64.Vec2{}
		} else {
			v.Vel = v.Vel.Mul(limit / speed)
		}
		v.Corrections++
		result = ValidationClamped
	}

	v.lastValid = v.Pos
	return result
}
