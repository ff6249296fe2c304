// Package catalog holds the static game data: cars, tracks, weather, difficulty
// levels and pickups. It is the stat-profile and track-definition provider for
// race sessions.
package catalog

import "math"

// Rating and upgrade bands.
const (
	MinRating       = 0
	MaxRating       = 10
	MinUpgradeLevel = 1
	MaxUpgradeLevel = 5
	DefaultRating   = 5
)

// UpgradeKind names a purchasable upgrade track.
type UpgradeKind string

const (
	UpgradeEngine   UpgradeKind = "engine"
	UpgradeTires    UpgradeKind = "tires"
	UpgradeHandling UpgradeKind = "handling"
)

var upgradeBaseCost = map[UpgradeKind]int{
	UpgradeEngine:   500,
	UpgradeTires:    300,
	UpgradeHandling: 400,
}

// Stats is the 0-10 rating block of a car.
type Stats struct {
	Speed        int `json:"speed"`
	Handling     int `json:"handling"`
	Acceleration int `json:"acceleration"`
	Braking      int `json:"braking"`
}

// Upgrades holds the purchased level of each upgrade track.
type Upgrades struct {
	Engine   int `json:"engine"`
	Tires    int `json:"tires"`
	Handling int `json:"handling"`
}

// Car is a catalog entry.
type Car struct {
	Name         string
	Color        string
	Stats        Stats
	TopSpeed     int     // km/h, display only
	Acceleration float64 // 0-100 seconds, display only
	Weight       int     // kg
	Engine       string
	Price        int
	Upgrades     Upgrades
}

// DefaultStats is used whenever a stat profile is missing.
func DefaultStats() Stats {
	return Stats{
		Speed:        DefaultRating,
		Handling:     DefaultRating,
		Acceleration: DefaultRating,
		Braking:      DefaultRating,
	}
}

// DefaultUpgrades is the factory upgrade state of every car.
func DefaultUpgrades() Upgrades {
	return Upgrades{Engine: 1, Tires: 1, Handling: 1}
}

// Cars is the garage lineup. Index 0 is the free starting car.
var Cars = []Car{
	{
		Name: "Lightning Bolt", Color: "#FF0000",
		Stats:    Stats{Speed: 9, Handling: 7, Acceleration: 8, Braking: 6},
		TopSpeed: 320, Acceleration: 3.2, Weight: 1200, Engine: "V8 Twin Turbo", Price: 0,
		Upgrades: DefaultUpgrades(),
	},
	{
		Name: "Speed Demon", Color: "#0066FF",
		Stats:    Stats{Speed: 8, Handling: 9, Acceleration: 7, Braking: 8},
		TopSpeed: 290, Acceleration: 3.8, Weight: 1100, Engine: "V6 Turbo", Price: 1500,
		Upgrades: DefaultUpgrades(),
	},
	{
		Name: "Turbo Thunder", Color: "#FFD700",
		Stats:    Stats{Speed: 10, Handling: 6, Acceleration: 9, Braking: 7},
		TopSpeed: 350, Acceleration: 2.9, Weight: 1300, Engine: "V12 Naturally Aspirated", Price: 2500,
		Upgrades: DefaultUpgrades(),
	},
	{
		Name: "Drift King", Color: "#FF6B35",
		Stats:    Stats{Speed: 7, Handling: 10, Acceleration: 6, Braking: 9},
		TopSpeed: 270, Acceleration: 4.1, Weight: 1050, Engine: "Flat-6 Turbo", Price: 2000,
		Upgrades: DefaultUpgrades(),
	},
	{
		Name: "Road Warrior", Color: "#8B4513",
		Stats:    Stats{Speed: 6, Handling: 8, Acceleration: 7, Braking: 8},
		TopSpeed: 250, Acceleration: 4.5, Weight: 1400, Engine: "V8 Supercharged", Price: 1200,
		Upgrades: DefaultUpgrades(),
	},
	{
		Name: "Electric Storm", Color: "#00FF41",
		Stats:    Stats{Speed: 8, Handling: 8, Acceleration: 10, Braking: 7},
		TopSpeed: 300, Acceleration: 2.5, Weight: 1600, Engine: "Quad Motor Electric", Price: 3000,
		Upgrades: DefaultUpgrades(),
	},
}

// CarByIndex returns the car at idx, or false when idx is out of range.
func CarByIndex(idx int) (Car, bool) {
	if idx < 0 || idx >= len(Cars) {
		return Car{}, false
	}
	return Cars[idx], true
}

// CarIndex returns the index of the car with the given display name.
func CarIndex(name string) (int, bool) {
	for i, c := range Cars {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// AvailableCars returns the cars affordable with the given credits.
func AvailableCars(credits int) []Car {
	var out []Car
	for _, c := range Cars {
		if c.Price <= credits {
			out = append(out, c)
		}
	}
	return out
}

// IsZero reports whether no rating was provided at all.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

// Normalize substitutes the default profile for a missing one and clamps
// every rating into [0,10].
func (s Stats) Normalize() Stats {
	if s.IsZero() {
		return DefaultStats()
	}
	return Stats{
		Speed:        clampInt(s.Speed, MinRating, MaxRating),
		Handling:     clampInt(s.Handling, MinRating, MaxRating),
		Acceleration: clampInt(s.Acceleration, MinRating, MaxRating),
		Braking:      clampInt(s.Braking, MinRating, MaxRating),
	}
}

// Normalize clamps every level into [1,5].
func (u Upgrades) Normalize() Upgrades {
	return Upgrades{
		Engine:   clampInt(u.Engine, MinUpgradeLevel, MaxUpgradeLevel),
		Tires:    clampInt(u.Tires, MinUpgradeLevel, MaxUpgradeLevel),
		Handling: clampInt(u.Handling, MinUpgradeLevel, MaxUpgradeLevel),
	}
}

// Level returns the current level of the given upgrade track.
func (u Upgrades) Level(kind UpgradeKind) (int, bool) {
	switch kind {
	case UpgradeEngine:
		return u.Engine, true
	case UpgradeTires:
		return u.Tires, true
	case UpgradeHandling:
		return u.Handling, true
	}
	return 0, false
}

// With returns a copy with the given track set to level (clamped).
func (u Upgrades) With(kind UpgradeKind, level int) Upgrades {
	switch kind {
	case UpgradeEngine:
		u.Engine = level
	case UpgradeTires:
		u.Tires = level
	case UpgradeHandling:
		u.Handling = level
	}
	return u.Normalize()
}

// UpgradedStats applies upgrade levels to base ratings. Engine feeds speed,
// tires feed handling, the handling kit feeds braking, and acceleration gets
// half of engine plus tires. Results are capped at 10.
func UpgradedStats(base Stats, up Upgrades) Stats {
	base = base.Normalize()
	up = up.Normalize()

	return Stats{
		Speed:        base.Speed + up.Engine,
		Handling:     base.Handling + up.Tires,
		Acceleration: base.Acceleration + (up.Engine+up.Tires)/2,
		Braking:      base.Braking + up.Handling,
	}.Normalize()
}

// Upgraded returns the car's effective ratings.
func (c Car) Upgraded() Stats {
	return UpgradedStats(c.Stats, c.Upgrades)
}

// UpgradeCost is the price of buying the given level of an upgrade track.
func UpgradeCost(kind UpgradeKind, level int) int {
	return upgradeBaseCost[kind] * level
}

// CanAffordUpgrade reports whether the next level of kind can be bought.
func CanAffordUpgrade(credits int, up Upgrades, kind UpgradeKind) bool {
	current, ok := up.Level(kind)
	if !ok || current >= MaxUpgradeLevel {
		return false
	}
	return credits >= UpgradeCost(kind, current+1)
}

// PerformanceRating is the rating sum as a 0-100 percentage.
func PerformanceRating(s Stats) int {
	s = s.Normalize()
	total := s.Speed + s.Handling + s.Acceleration + s.Braking
	return int(math.Round(float64(total) / 40 * 100))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
