package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
)

// ComputeAIInput produces synthetic input that drives v toward target while
// steering clear of obstacles.
//
// Obstacles inside AIAvoidRadius push the vehicle away with a weight that
// grows as they get closer; the weighted sum gives one steer-away bearing.
// With AILastWinsAvoid set, each obstacle overrides the previous one
// instead. Any obstacle inside AIPanicRadius forces a brake.
func ComputeAIInput(v *Vehicle, target mgl64.Vec2, obstacles []mgl64.Vec2, t config.Tuning) InputRecord {
	toTarget := target.Sub(v.Pos)
	dist := toTarget.Len()
	speed := v.Speed()

	in := InputRecord{Accelerate: dist > t.AIArrivalRadius}

	if dist > epsilon {
		diff := AngleDistance(v.Heading, Bearing(toTarget, v.Heading))
		steerToward(&in, diff, t.AIDeadZone)

		// Slow down before sharp turns
		if math.Abs(diff) > t.AISharpTurnAngle && speed > t.AISharpTurnSpeed {
			in.Brake = true
			in.Accelerate = false
		}
	}

	var (
		away     mgl64.Vec2
		tooClose bool
		avoids   bool
	)
	for _, obs := range obstacles {
		offset := v.Pos.Sub(obs)
		d := offset.Len()
		if d >= t.AIAvoidRadius {
			continue
		}
		if d < t.AIPanicRadius {
			tooClose = true
		}

		dir, ok := unit(offset)
		if !ok {
			continue
		}
		avoids = true

		if t.AILastWinsAvoid {
			away = dir
			continue
		}
		away = away.Add(dir.Mul((t.AIAvoidRadius - d) / t.AIAvoidRadius))
	}

	if avoids && away.Len() > epsilon {
		diff := AngleDistance(v.Heading, Bearing(away, v.Heading))
		in.TurnLeft = diff > 0
		in.TurnRight = diff <= 0
	}

	if tooClose {
		in.Brake = true
		in.Accelerate = false
	}
	return in
}

// steerToward turns toward a bearing error of diff (heading minus bearing)
// unless it is inside the dead zone.
func steerToward(in *InputRecord, diff, deadZone float64) {
	in.TurnLeft, in.TurnRight = false, false
	switch {
	case diff > deadZone:
		in.TurnLeft = true
	case diff < -deadZone:
		in.TurnRight = true
	}
}
