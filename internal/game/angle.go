package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// NormalizeAngle maps a to (-π, π].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDistance is the signed shortest rotation a-b, in (-π, π].
func AngleDistance(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// LerpAngle moves a toward b along the shortest arc by fraction t.
func LerpAngle(a, b, t float64) float64 {
	return a + AngleDistance(b, a)*t
}

// Direction returns the unit vector for heading.
func Direction(heading float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(heading), math.Sin(heading)}
}

// Bearing returns the angle of v. A zero vector reports fallback.
func Bearing(v mgl64.Vec2, fallback float64) float64 {
	if v.Len() < epsilon {
		return fallback
	}
	return math.Atan2(v.Y(), v.X())
}

// unit normalizes v, returning ok=false for a zero vector.
func unit(v mgl64.Vec2) (mgl64.Vec2, bool) {
	l := v.Len()
	if l < epsilon {
		return mgl64.Vec2{}, false
	}
	return v.Mul(1 / l), true
}

func finite(v mgl64.Vec2) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Distance calculates distance between two points
func Distance(a, b mgl64.Vec2) float64 {
	return a.Sub(b).Len()
}
