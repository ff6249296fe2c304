package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
)

// Boundary is the drivable ring around a track center.
type Boundary struct {
	Center mgl64.Vec2
	Inner  float64
	Outer  float64
}

// BoundaryFor derives the ring from a layout's ellipse radii.
func BoundaryFor(l catalog.Layout) Boundary {
	return Boundary{
		Center: l.Center,
		Inner:  math.Min(l.RadiusX, l.RadiusY) * config.InnerRadiusScale,
		Outer:  math.Max(l.RadiusX, l.RadiusY) * config.OuterRadiusScale,
	}
}

// BoundaryResult reports what Contain did.
type BoundaryResult struct {
	OnTrack    bool
	Distance   float64
	Correction mgl64.Vec2
}

// Contains reports whether p lies in [Inner, Outer] from the center.
func (b Boundary) Contains(p mgl64.Vec2) bool {
	d := Distance(p, b.Center)
	return d >= b.Inner && d <= b.Outer
}

// Contain moves an off-track vehicle radially back onto the ring and damps
// its velocity. A vehicle sitting exactly on the center is pushed out along
// its heading.
func (b Boundary) Contain(v *Vehicle, damping float64) BoundaryResult {
	offset := v.Pos.Sub(b.Center)
	dist := offset.Len()
	res := BoundaryResult{Distance: dist, OnTrack: dist >= b.Inner && dist <= b.Outer}
	if res.OnTrack {
		return res
	}

	dir, ok := unit(offset)
	if !ok {
		dir = Direction(v.Heading)
	}

	if dist < b.Inner {
		res.Correction = dir.Mul(b.Inner - dist)
	} else {
		res.Correction = dir.Mul(-(dist - b.Outer))
	}

	v.Pos = v.Pos.Add(res.Correction)
	v.Vel = v.Vel.Mul(damping)
	return res
}
