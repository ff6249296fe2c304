package catalog

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Track is a catalog entry.
type Track struct {
	Name        string
	Type        string
	Length      float64 // km
	Difficulty  string
	Weather     string
	TimeOfDay   string
	Checkpoints int
	LapRecord   string
}

// Tracks lists every circuit in the game.
var Tracks = []Track{
	{Name: "Horizon Circuit", Type: "circuit", Length: 2.8, Difficulty: "Medium", Weather: "clear", TimeOfDay: "day", Checkpoints: 8, LapRecord: "1:23.45"},
	{Name: "Neon City Streets", Type: "street", Length: 3.2, Difficulty: "Medium", Weather: "clear", TimeOfDay: "night", Checkpoints: 10, LapRecord: "1:45.23"},
	{Name: "Desert Rally Course", Type: "offroad", Length: 4.1, Difficulty: "Hard", Weather: "clear", TimeOfDay: "day", Checkpoints: 12, LapRecord: "2:34.67"},
	{Name: "Tokyo Drift Zone", Type: "drift", Length: 1.8, Difficulty: "Expert", Weather: "clear", TimeOfDay: "night", Checkpoints: 6, LapRecord: "0:58.45"},
	{Name: "Alpine Mountain Pass", Type: "circuit", Length: 5.2, Difficulty: "Hard", Weather: "clear", TimeOfDay: "dawn", Checkpoints: 15, LapRecord: "2:45.67"},
	{Name: "Coastal Highway", Type: "street", Length: 6.8, Difficulty: "Easy", Weather: "clear", TimeOfDay: "sunset", Checkpoints: 18, LapRecord: "3:12.89"},
	{Name: "Industrial Complex", Type: "circuit", Length: 2.1, Difficulty: "Medium", Weather: "rain", TimeOfDay: "day", Checkpoints: 8, LapRecord: "1:18.34"},
	{Name: "Forest Rally", Type: "offroad", Length: 3.8, Difficulty: "Hard", Weather: "clear", TimeOfDay: "morning", Checkpoints: 14, LapRecord: "2:05.78"},
}

// TrackByIndex returns the track at idx, or false when out of range.
func TrackByIndex(idx int) (Track, bool) {
	if idx < 0 || idx >= len(Tracks) {
		return Track{}, false
	}
	return Tracks[idx], true
}

// TrackIndex returns the index of the track with the given name.
func TrackIndex(name string) (int, bool) {
	for i, t := range Tracks {
		if t.Name == name {
			return i, true
		}
	}
	return -1, false
}

// TracksByDifficulty filters tracks by difficulty label.
func TracksByDifficulty(difficulty string) []Track {
	var out []Track
	for _, t := range Tracks {
		if t.Difficulty == difficulty {
			out = append(out, t)
		}
	}
	return out
}

// Layout is the race geometry of a track: an ellipse around Center with
// checkpoints evenly spaced along it.
type Layout struct {
	Center      mgl64.Vec2
	RadiusX     float64
	RadiusY     float64
	Checkpoints []mgl64.Vec2
	Traction    float64
}

// LayoutFor places the track in a viewport of the given size. The ellipse radii
// are 0.3 and 0.2 of the smaller viewport dimension.
func LayoutFor(t Track, width, height float64) Layout {
	base := math.Min(width, height)
	l := Layout{
		Center:   mgl64.Vec2{width / 2, height / 2},
		RadiusX:  base * 0.3,
		RadiusY:  base * 0.2,
		Traction: WeatherFor(t.Weather).Traction,
	}

	n := t.Checkpoints
	if n <= 0 {
		n = 8
	}
	l.Checkpoints = make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		l.Checkpoints[i] = mgl64.Vec2{
			l.Center.X() + math.Cos(angle)*l.RadiusX,
			l.Center.Y() + math.Sin(angle)*l.RadiusY,
		}
	}
	return l
}

// Grid spacing
const (
	gridSetback = 60.0
	gridRowGap  = 45.0
	gridInset   = 12.0
	gridColGap  = 42.0
)

// GridSlot returns the starting position and heading of slot i. Cars line
// up two abreast behind the first checkpoint, facing along the ellipse, with
// the inner column kept clear of the last checkpoint's radius.
func (l Layout) GridSlot(i int) (mgl64.Vec2, float64) {
	if i < 0 {
		i = 0
	}
	row, col := i/2, i%2

	start := mgl64.Vec2{l.Center.X() + l.RadiusX, l.Center.Y()}
	if len(l.Checkpoints) > 0 {
		start = l.Checkpoints[0]
	}

	pos := mgl64.Vec2{
		start.X() - gridInset + float64(col)*gridColGap,
		start.Y() - gridSetback - float64(row)*gridRowGap,
	}
	return pos, math.Pi / 2
}

// Weather describes how a condition affects grip.
type Weather struct {
	Name       string
	Traction   float64
	Visibility float64
}

// WeatherConditions maps condition keys to their data.
var WeatherConditions = map[string]Weather{
	"sunny": {Name: "Sunny", Traction: 1.0, Visibility: 1.0},
	"rainy": {Name: "Rainy", Traction: 0.7, Visibility: 0.8},
	"foggy": {Name: "Foggy", Traction: 0.9, Visibility: 0.5},
	"storm": {Name: "Storm", Traction: 0.6, Visibility: 0.6},
	"snow":  {Name: "Snow", Traction: 0.5, Visibility: 0.7},
}

var weatherAliases = map[string]string{
	"clear": "sunny",
	"rain":  "rainy",
}

// WeatherFor resolves a track weather label. Unknown labels are sunny.
func WeatherFor(key string) Weather {
	if alias, ok := weatherAliases[key]; ok {
		key = alias
	}
	if w, ok := WeatherConditions[key]; ok {
		return w
	}
	return WeatherConditions["sunny"]
}

// Difficulty scales opponents and rewards.
type Difficulty struct {
	Name             string
	AISpeed          float64
	AIAggression     float64
	CreditMultiplier float64
}

// Difficulties maps difficulty keys to their data.
var Difficulties = map[string]Difficulty{
	"easy":    {Name: "Rookie", AISpeed: 0.8, AIAggression: 0.3, CreditMultiplier: 0.8},
	"medium":  {Name: "Pro", AISpeed: 1.0, AIAggression: 0.6, CreditMultiplier: 1.0},
	"hard":    {Name: "Expert", AISpeed: 1.2, AIAggression: 0.8, CreditMultiplier: 1.3},
	"extreme": {Name: "Legend", AISpeed: 1.5, AIAggression: 1.0, CreditMultiplier: 1.5},
}

// DifficultyFor resolves a difficulty key, defaulting to medium.
func DifficultyFor(key string) Difficulty {
	if d, ok := Difficulties[key]; ok {
		return d
	}
	return Difficulties["medium"]
}

// OpponentStats scales a car's speed rating by the difficulty's AI speed.
func (d Difficulty) OpponentStats(s Stats) Stats {
	s = s.Normalize()
	s.Speed = int(math.Round(float64(s.Speed) * d.AISpeed))
	return s.Normalize()
}

var difficultyLapFactor = map[string]float64{
	"Easy":   0.8,
	"Medium": 1.0,
	"Hard":   1.3,
}

// EstimateLapTime predicts a lap time in seconds for a car on a track.
func EstimateLapTime(c Car, t Track, weather string) float64 {
	carRating := float64(PerformanceRating(c.Stats)) / 100
	traction := WeatherFor(weather).Traction
	difficulty, ok := difficultyLapFactor[t.Difficulty]
	if !ok {
		difficulty = 1.0
	}

	const baseTime = 60.0
	trackFactor := t.Length / 2.0
	return baseTime * trackFactor * difficulty * (2 - carRating) * (2 - traction)
}
