package game

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
)

func powerup(t *testing.T, e catalog.Effect) catalog.Powerup {
	t.Helper()
	p, ok := catalog.PowerupByEffect(e)
	require.True(t, ok)
	return p
}

func TestApplyPickup_SpeedBoost(t *testing.T) {
	ph := NewPhysics(config.DefaultTuning())
	plain := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	boosted := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	boosted.ApplyPickup(powerup(t, catalog.EffectSpeedBoost))

	ph.Integrate(plain, InputRecord{Accelerate: true}, tick, 1)
	ph.Integrate(boosted, InputRecord{Accelerate: true}, tick, 1)

	assert.InDelta(t, 1.5*plain.Speed(), boosted.Speed(), 1e-9)
}

func TestApplyPickup_BrakeBoost(t *testing.T) {
	ph := NewPhysics(config.DefaultTuning())
	v := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{5, 0}, 0)
	v.ApplyPickup(powerup(t, catalog.EffectBrakeBoost))

	ph.Integrate(v, InputRecord{Brake: true}, tick, 1)
	assert.InDelta(t, 5*0.95*0.95, v.Speed(), 1e-9)
}

func TestApplyPickup_Expiry(t *testing.T) {
	v := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	v.ApplyPickup(powerup(t, catalog.EffectNoCollision))
	assert.True(t, v.Ghost)
	assert.True(t, v.HasEffect(catalog.EffectNoCollision))

	v.tickEffects(3.5, 1)
	assert.True(t, v.Ghost)

	// Restarting refreshes the timer rather than stacking
	v.ApplyPickup(powerup(t, catalog.EffectNoCollision))
	assert.Len(t, v.effects, 1)
	v.tickEffects(3.5, 1)
	assert.True(t, v.Ghost)

	v.tickEffects(1, 1)
	assert.False(t, v.Ghost)
	assert.False(t, v.HasEffect(catalog.EffectNoCollision))
}

func TestApplyPickup_Jump(t *testing.T) {
	v := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{}, 0)
	v.ApplyPickup(catalog.Powerup{Effect: catalog.EffectJump, Duration: 500 * time.Millisecond})

	for i := 0; i < 20; i++ {
		v.tickEffects(tick, 1)
	}
	assert.InDelta(t, maxJumpRise, v.JumpHeight, 1e-9)

	for i := 0; i < 20; i++ {
		v.tickEffects(tick, 1)
	}
	assert.False(t, v.HasEffect(catalog.EffectJump))
	assert.Less(t, v.JumpHeight, maxJumpRise)

	for i := 0; i < 20; i++ {
		v.tickEffects(tick, 1)
	}
	assert.Zero(t, v.JumpHeight)
}

func TestApplyPickup_TimeDilationHasNoPhysicsEffect(t *testing.T) {
	ph := NewPhysics(config.DefaultTuning())
	plain := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{4, 0}, 0)
	slowed := newTestVehicle(ControllerPlayer, topStats, mgl64.Vec2{}, mgl64.Vec2{4, 0}, 0)
	slowed.ApplyPickup(powerup(t, catalog.EffectTimeDilation))

	ph.Integrate(plain, InputRecord{Accelerate: true}, tick, 1)
	ph.Integrate(slowed, InputRecord{Accelerate: true}, tick, 1)
	assert.Equal(t, plain.Vel, slowed.Vel)
}
