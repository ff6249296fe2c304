package game

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionResult describes the contact between two circles.
type CollisionResult struct {
	Colliding bool
	Distance  float64
	Normal    mgl64.Vec2 // from b toward a
	Overlap   float64
}

// CheckCollision tests two vehicle circles of the given radius. Coincident
// centers have no usable normal and report no collision.
func CheckCollision(a, b *Vehicle, radius float64) CollisionResult {
	delta := a.Pos.Sub(b.Pos)
	dist := delta.Len()
	minDist := 2 * radius

	n, ok := unit(delta)
	if !ok {
		return CollisionResult{Distance: dist}
	}

	return CollisionResult{
		Colliding: dist < minDist,
		Distance:  dist,
		Normal:    n,
		Overlap:   minDist - dist,
	}
}

// ResolveCollision splits the overlap evenly, then applies an equal-mass
// restitution impulse if the pair is approaching. It reports whether an
// impulse was applied.
func ResolveCollision(a, b *Vehicle, c CollisionResult, restitution float64) bool {
	if !c.Colliding {
		return false
	}

	half := c.Overlap * 0.5
	a.Pos = a.Pos.Add(c.Normal.Mul(half))
	b.Pos = b.Pos.Sub(c.Normal.Mul(half))

	velAlongNormal := a.Vel.Sub(b.Vel).Dot(c.Normal)
	if velAlongNormal >= 0 {
		return false
	}

	j := -(1 + restitution) * velAlongNormal * 0.5
	a.Vel = a.Vel.Add(c.Normal.Mul(j))
	b.Vel = b.Vel.Sub(c.Normal.Mul(j))
	return true
}

// CellKey represents a cell in the spatial grid
type CellKey struct {
	X, Y int64
}

// SpatialGrid buckets vehicles so only nearby pairs are tested. It is rebuilt
// every tick and owned by a single session.
type SpatialGrid struct {
	cellSize float64
	cells    map[CellKey][]*Vehicle
}

// NewSpatialGrid creates a new spatial grid
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[CellKey][]*Vehicle),
	}
}

func (g *SpatialGrid) cellKey(p mgl64.Vec2) CellKey {
	return CellKey{
		X: int64(math.Floor(p.X() / g.cellSize)),
		Y: int64(math.Floor(p.Y() / g.cellSize)),
	}
}

// Update rebuilds the grid. Ghosts and vehicles with non-finite positions
// are left out.
func (g *SpatialGrid) Update(vehicles []*Vehicle) {
	g.cells = make(map[CellKey][]*Vehicle, len(vehicles))
	for _, v := range vehicles {
		if v.Ghost || !finite(v.Pos) {
			continue
		}
		key := g.cellKey(v.Pos)
		g.cells[key] = append(g.cells[key], v)
	}
}

// Nearby returns vehicles in the same and adjacent cells as p, excluding p.
func (g *SpatialGrid) Nearby(p *Vehicle) []*Vehicle {
	center := g.cellKey(p.Pos)

	var nearby []*Vehicle
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, other := range g.cells[CellKey{X: center.X + dx, Y: center.Y + dy}] {
				if other.ID != p.ID {
					nearby = append(nearby, other)
				}
			}
		}
	}
	return nearby
}

func pairKey(a, b VehicleID) uint32 {
	if a > b {
		a, b = b, a
	}
	return uint32(a)<<16 | uint32(b)
}

// PotentialCollisions returns candidate pairs in ascending (lower ID, higher
// ID) order so resolution is deterministic.
func (g *SpatialGrid) PotentialCollisions() [][2]*Vehicle {
	checked := make(map[uint32]bool)
	var pairs [][2]*Vehicle

	add := func(p1, p2 *Vehicle) {
		key := pairKey(p1.ID, p2.ID)
		if checked[key] {
			return
		}
		checked[key] = true
		if p1.ID > p2.ID {
			p1, p2 = p2, p1
		}
		pairs = append(pairs, [2]*Vehicle{p1, p2})
	}

	for key, vehicles := range g.cells {
		for i := 0; i < len(vehicles); i++ {
			for j := i + 1; j < len(vehicles); j++ {
				add(vehicles[i], vehicles[j])
			}
		}

		// Half of the neighbourhood so each adjacent cell pair is visited once
		for dx := int64(0); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				if dx == 0 && dy <= 0 {
					continue
				}
				for _, p1 := range vehicles {
					for _, p2 := range g.cells[CellKey{X: key.X + dx, Y: key.Y + dy}] {
						add(p1, p2)
					}
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0].ID != pairs[j][0].ID {
			return pairs[i][0].ID < pairs[j][0].ID
		}
		return pairs[i][1].ID < pairs[j][1].ID
	})
	return pairs
}
