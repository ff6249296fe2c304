package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/race/horizon/config"
)

func TestComputeAIInput_Target(t *testing.T) {
	tuning := config.DefaultTuning()
	tests := []struct {
		name   string
		vel    mgl64.Vec2
		target mgl64.Vec2
		want   InputRecord
	}{
		{"straight ahead", mgl64.Vec2{}, mgl64.Vec2{500, 0}, InputRecord{Accelerate: true}},
		{"inside dead zone", mgl64.Vec2{}, mgl64.Vec2{500, 20}, InputRecord{Accelerate: true}},
		{"target to the right", mgl64.Vec2{}, mgl64.Vec2{300, 300}, InputRecord{Accelerate: true, TurnRight: true}},
		{"target to the left", mgl64.Vec2{}, mgl64.Vec2{300, -300}, InputRecord{Accelerate: true, TurnLeft: true}},
		{"sharp turn at speed", mgl64.Vec2{5, 0}, mgl64.Vec2{0, 400}, InputRecord{Brake: true, TurnRight: true}},
		{"sharp turn while slow", mgl64.Vec2{1, 0}, mgl64.Vec2{0, 400}, InputRecord{Accelerate: true, TurnRight: true}},
		{"arrived", mgl64.Vec2{}, mgl64.Vec2{10, 0}, InputRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vehicleAt(2, mgl64.Vec2{}, tt.vel)
			assert.Equal(t, tt.want, ComputeAIInput(v, tt.target, nil, tuning))
		})
	}
}

func TestComputeAIInput_Avoidance(t *testing.T) {
	tuning := config.DefaultTuning()
	v := vehicleAt(2, mgl64.Vec2{}, mgl64.Vec2{3, 0})
	target := mgl64.Vec2{1000, 0}

	// Obstacle ahead-right at distance 50: steer away without braking
	in := ComputeAIInput(v, target, []mgl64.Vec2{{40, 30}}, tuning)
	assert.True(t, in.TurnLeft)
	assert.False(t, in.TurnRight)
	assert.True(t, in.Accelerate)
	assert.False(t, in.Brake)

	// Too close: brake
	in = ComputeAIInput(v, target, []mgl64.Vec2{{20, 0}}, tuning)
	assert.True(t, in.Brake)
	assert.False(t, in.Accelerate)

	// Outside the avoidance radius nothing changes
	in = ComputeAIInput(v, target, []mgl64.Vec2{{0, 90}}, tuning)
	assert.Equal(t, InputRecord{Accelerate: true}, in)
}

func TestComputeAIInput_AvoidanceBlend(t *testing.T) {
	v := vehicleAt(2, mgl64.Vec2{}, mgl64.Vec2{3, 0})
	target := mgl64.Vec2{1000, 0}
	obstacles := []mgl64.Vec2{{0, 55}, {0, -75}}

	summed := config.DefaultTuning()
	in := ComputeAIInput(v, target, obstacles, summed)
	assert.True(t, in.TurnLeft, "nearer obstacle dominates the sum")
	assert.False(t, in.Brake)

	lastWins := config.DefaultTuning()
	lastWins.AILastWinsAvoid = true
	in = ComputeAIInput(v, target, obstacles, lastWins)
	assert.True(t, in.TurnRight, "last obstacle overrides")
	assert.False(t, in.Brake)
}

func TestComputeAIInput_CoincidentObstacle(t *testing.T) {
	v := vehicleAt(2, mgl64.Vec2{100, 100}, mgl64.Vec2{})

	in := ComputeAIInput(v, mgl64.Vec2{500, 100}, []mgl64.Vec2{{100, 100}}, config.DefaultTuning())
	assert.True(t, in.Brake)
	assert.False(t, in.TurnLeft)
	assert.False(t, in.TurnRight)
}
