package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/race/horizon/config"
)

func TestEvaluateDrift(t *testing.T) {
	tuning := config.DefaultTuning()

	v := vehicleAt(1, mgl64.Vec2{}, mgl64.Vec2{5, 0})
	v.Heading = 0.5

	r := EvaluateDrift(v, 1, tuning)
	assert.True(t, r.Drifting)
	assert.InDelta(t, 0.5, r.Angle, 1e-12)
	assert.InDelta(t, 25.0, r.Score, 1e-9)
	assert.InDelta(t, 5*(1-0.5/1.5*0.1), v.Speed(), 1e-9)
}

func TestEvaluateDrift_GripLossCapped(t *testing.T) {
	v := vehicleAt(1, mgl64.Vec2{}, mgl64.Vec2{5, 0})
	v.Heading = 2.5

	r := EvaluateDrift(v, 1, config.DefaultTuning())
	assert.True(t, r.Drifting)
	assert.InDelta(t, 5*(1-0.7*0.1), v.Speed(), 1e-9)
}

func TestEvaluateDrift_Thresholds(t *testing.T) {
	tuning := config.DefaultTuning()

	slow := vehicleAt(1, mgl64.Vec2{}, mgl64.Vec2{1, 0})
	slow.Heading = 1.2
	r := EvaluateDrift(slow, 1, tuning)
	assert.False(t, r.Drifting)
	assert.Zero(t, r.Score)
	assert.Equal(t, mgl64.Vec2{1, 0}, slow.Vel)

	gripping := vehicleAt(1, mgl64.Vec2{}, mgl64.Vec2{8, 0})
	gripping.Heading = 0.2
	r = EvaluateDrift(gripping, 1, tuning)
	assert.False(t, r.Drifting)
	assert.InDelta(t, 0.2, r.Angle, 1e-12)
	assert.Equal(t, mgl64.Vec2{8, 0}, gripping.Vel)
}

func TestEvaluateDrift_ZeroStepReadsOnly(t *testing.T) {
	v := vehicleAt(1, mgl64.Vec2{}, mgl64.Vec2{5, 0})
	v.Heading = 0.5

	r := EvaluateDrift(v, 0, config.DefaultTuning())
	assert.True(t, r.Drifting)
	assert.Equal(t, mgl64.Vec2{5, 0}, v.Vel)
}

func TestDriftTracker(t *testing.T) {
	var d driftTracker
	drifting := DriftResult{Drifting: true, Score: 2}

	fired := 0
	for i := 0; i < 30; i++ {
		if d.observe(drifting, 0.5, 5) {
			fired++
			assert.Equal(t, 9, i)
		}
	}
	assert.Equal(t, 1, fired)
	assert.InDelta(t, 60.0, d.total, 1e-9)

	// Breaking the drift re-arms the announcement
	assert.False(t, d.observe(DriftResult{}, 0.5, 5))
	for i := 0; i < 10; i++ {
		if d.observe(drifting, 0.5, 5) {
			fired++
		}
	}
	assert.Equal(t, 2, fired)
}
