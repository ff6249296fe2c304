package game

import (
	"math"

	"github.com/race/horizon/config"
)

// DriftResult is the per-tick drift reading of one vehicle.
type DriftResult struct {
	Drifting bool
	Angle    float64 // absolute slip angle in radians
	Score    float64
	Speed    float64
}

// EvaluateDrift measures the slip between heading and velocity. While
// drifting it also bleeds speed in proportion to the slip, capped at
// DriftGripMax, over dt frame units.
func EvaluateDrift(v *Vehicle, dt float64, t config.Tuning) DriftResult {
	speed := v.Speed()
	res := DriftResult{Speed: speed}
	if speed <= t.DriftMinSpeed {
		return res
	}

	res.Angle = math.Abs(AngleDistance(v.Heading, v.VelocityAngle()))
	if res.Angle <= t.DriftAngle {
		return res
	}

	res.Drifting = true
	res.Score = res.Angle * speed * t.DriftScoreFactor

	if dt > 0 {
		factor := math.Min(res.Angle/t.DriftGripAngle, t.DriftGripMax)
		v.Vel = v.Vel.Mul(math.Pow(1-factor*t.DriftGripLoss, dt))
	}
	return res
}

// driftTracker accumulates drift score and sustained drift time for one vehicle.
type driftTracker struct {
	total     float64
	sustained float64
	announced bool
}

// observe folds one tick in and reports whether the sustained threshold was
// crossed on this tick.
func (d *driftTracker) observe(r DriftResult, seconds, threshold float64) bool {
	if !r.Drifting {
		d.sustained = 0
		d.announced = false
		return false
	}

	d.total += r.Score
	d.sustained += seconds
	if !d.announced && d.sustained >= threshold {
		d.announced = true
		return true
	}
	return false
}
