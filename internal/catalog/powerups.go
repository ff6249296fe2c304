package catalog

import "time"

// Effect is what a pickup does to the vehicle that collects it.
type Effect string

const (
	EffectSpeedBoost   Effect = "speed_boost"
	EffectBrakeBoost   Effect = "brake_boost"
	EffectNoCollision  Effect = "no_collision"
	EffectTimeDilation Effect = "time_dilation"
	EffectJump         Effect = "jump"
)

// Powerup is a collectible pickup.
type Powerup struct {
	Name       string
	Effect     Effect
	Duration   time.Duration
	Multiplier float64
	Rarity     string
}

// Powerups lists every pickup.
var Powerups = []Powerup{
	{Name: "Nitro Boost", Effect: EffectSpeedBoost, Duration: 3 * time.Second, Multiplier: 1.5, Rarity: "common"},
	{Name: "Super Brakes", Effect: EffectBrakeBoost, Duration: 5 * time.Second, Multiplier: 2.0, Rarity: "common"},
	{Name: "Ghost Mode", Effect: EffectNoCollision, Duration: 4 * time.Second, Multiplier: 1.0, Rarity: "rare"},
	{Name: "Time Slow", Effect: EffectTimeDilation, Duration: 3 * time.Second, Multiplier: 0.5, Rarity: "epic"},
	{Name: "Turbo Jump", Effect: EffectJump, Duration: time.Second, Multiplier: 3.0, Rarity: "rare"},
}

// PowerupByEffect returns the pickup carrying the given effect.
func PowerupByEffect(e Effect) (Powerup, bool) {
	for _, p := range Powerups {
		if p.Effect == e {
			return p, true
		}
	}
	return Powerup{}, false
}
