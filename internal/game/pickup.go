package game

import (
	"math"

	"github.com/race/horizon/internal/catalog"
)

const (
	jumpRise    = 0.1 // per frame while the jump effect is active
	jumpFall    = 0.1 // per frame afterwards
	maxJumpRise = 1.0
)

type activeEffect struct {
	effect     catalog.Effect
	remaining  float64 // seconds
	multiplier float64
}

// ApplyPickup starts (or restarts) a timed effect on v.
func (v *Vehicle) ApplyPickup(p catalog.Powerup) {
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	e := activeEffect{effect: p.Effect, remaining: p.Duration.Seconds(), multiplier: mult}

	for i := range v.effects {
		if v.effects[i].effect == p.Effect {
			v.effects[i] = e
			v.syncEffectFlags()
			return
		}
	}
	v.effects = append(v.effects, e)
	v.syncEffectFlags()
}

// HasEffect reports whether the effect is currently running.
func (v *Vehicle) HasEffect(e catalog.Effect) bool {
	for _, a := range v.effects {
		if a.effect == e {
			return true
		}
	}
	return false
}

// effectMultipliers returns the throttle and brake-exponent scales from
// active boosts.
func (v *Vehicle) effectMultipliers() (accel, brake float64) {
	accel, brake = 1, 1
	for _, a := range v.effects {
		switch a.effect {
		case catalog.EffectSpeedBoost:
			accel *= a.multiplier
		case catalog.EffectBrakeBoost:
			brake *= a.multiplier
		}
	}
	return accel, brake
}

// tickEffects counts effects down and advances the jump accumulator.
func (v *Vehicle) tickEffects(seconds, frames float64) {
	if v.HasEffect(catalog.EffectJump) {
		v.JumpHeight = math.Min(v.JumpHeight+jumpRise*frames, maxJumpRise)
	} else if v.JumpHeight > 0 {
		v.JumpHeight = math.Max(v.JumpHeight-jumpFall*frames, 0)
	}

	kept := v.effects[:0]
	for _, a := range v.effects {
		a.remaining -= seconds
		if a.remaining > 0 {
			kept = append(kept, a)
		}
	}
	v.effects = kept
	v.syncEffectFlags()
}

func (v *Vehicle) syncEffectFlags() {
	v.Ghost = v.HasEffect(catalog.EffectNoCollision)
}
