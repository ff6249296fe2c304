package game

import (
	"math"

	"github.com/race/horizon/config"
)

// Physics handles all integration of vehicle motion
type Physics struct {
	tuning config.Tuning
}

// NewPhysics creates a new physics engine
func NewPhysics(t config.Tuning) *Physics {
	return &Physics{tuning: t}
}

// FrameStep converts elapsed seconds into frame units, clamped to
// config.MaxFrameStep. Zero, negative and NaN deltas return 0.
func FrameStep(deltaSeconds float64) float64 {
	if math.IsNaN(deltaSeconds) || deltaSeconds <= 0 {
		return 0
	}
	frames := deltaSeconds * config.PhysicsTickRate
	if frames > config.MaxFrameStep {
		return config.MaxFrameStep
	}
	return frames
}

// Integrate advances one vehicle by deltaSeconds of wall time under the given
// input and track traction (1 = dry).
func (ph *Physics) Integrate(v *Vehicle, in InputRecord, deltaSeconds, traction float64) {
	ph.step(v, in, FrameStep(deltaSeconds), traction)
}

// step advances v by dt frame units.
func (ph *Physics) step(v *Vehicle, in InputRecord, dt, traction float64) {
	if dt <= 0 {
		return
	}

	t := ph.tuning
	c := v.coeff
	speed := v.Speed()
	accelMult, brakeMult := v.effectMultipliers()

	// Throttle only below the stat top speed
	if in.Accelerate && speed < c.MaxSpeed {
		v.Vel = v.Vel.Add(Direction(v.Heading).Mul(c.Acceleration * accelMult * dt))
		if l := v.Vel.Len(); l > c.MaxSpeed {
			v.Vel = v.Vel.Mul(c.MaxSpeed / l)
		}
	}

	if in.Brake {
		v.Vel = v.Vel.Mul(math.Pow(c.BrakeFactor, dt*brakeMult))
	}

	if turn := in.Turn(); turn != 0 && speed > t.TurnMinSpeed {
		v.Heading += turn * c.TurnRate * speed * dt
		if v.IsPlayer() {
			ph.nudgeVelocity(v, dt)
		}
	}

	if !in.Accelerate && !in.Brake {
		decay := math.Pow(t.AirResistance, dt) * math.Pow(t.Friction, dt)
		v.Vel = v.Vel.Mul(decay)
	}

	applyTraction(v, traction, dt)

	v.Pos = v.Pos.Add(v.Vel.Mul(dt))

	if !v.IsPlayer() && speed > t.AIHeadingSpeed {
		v.Heading = LerpAngle(v.Heading, v.VelocityAngle(), t.AIHeadingLerp*dt)
	}

	v.Heading = NormalizeAngle(v.Heading)
	v.updateDrivetrain()
}

// nudgeVelocity rotates the velocity toward the heading by at most
// VelocityNudge radians per frame, keeping its magnitude.
func (ph *Physics) nudgeVelocity(v *Vehicle, dt float64) {
	speed := v.Speed()
	if speed < epsilon {
		return
	}

	velAngle := v.VelocityAngle()
	diff := AngleDistance(v.Heading, velAngle)
	step := math.Min(math.Abs(diff), ph.tuning.VelocityNudge) * dt
	if step > math.Abs(diff) {
		step = math.Abs(diff)
	}

	v.Vel = Direction(velAngle + math.Copysign(step, diff)).Mul(speed)
}

// applyTraction bleeds speed on low-grip surfaces.
func applyTraction(v *Vehicle, traction, dt float64) {
	if traction <= 0 || traction >= 1 || math.IsNaN(traction) {
		return
	}
	v.Vel = v.Vel.Mul(math.Pow(1-(1-traction)*0.1, dt))
}
