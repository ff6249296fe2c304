package lobby

import (
	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
	"github.com/race/horizon/internal/game"
)

// Error definitions
var (
	ErrLobbyFull    = &RoomError{message: "lobby is full"}
	ErrUnknownTrack = &RoomError{message: "unknown track"}
	ErrUnknownCar   = &RoomError{message: "unknown car"}
)

// RoomError represents an error related to room operations.
type RoomError struct {
	message string
}

func (e *RoomError) Error() string {
	return e.message
}

// RaceSetup is what a client asks for when joining.
type RaceSetup struct {
	Name       string
	CarIndex   int
	Stats      catalog.Stats // upgraded ratings; zero means the catalog car as shipped
	Track      int
	Difficulty string
	Opponents  int
	Tuning     config.Tuning
}

// SessionConfig resolves the setup against the catalog. Opponents drive the
// cars after the player's in catalog order, scaled by the difficulty, and
// are capped at config.MaxOpponents.
func (s RaceSetup) SessionConfig() (game.Config, error) {
	track, ok := catalog.TrackByIndex(s.Track)
	if !ok {
		return game.Config{}, ErrUnknownTrack
	}
	car, ok := catalog.CarByIndex(s.CarIndex)
	if !ok {
		return game.Config{}, ErrUnknownCar
	}

	stats := s.Stats
	if stats.IsZero() {
		stats = car.Upgraded()
	}

	diff := catalog.DifficultyFor(s.Difficulty)
	cfg := game.Config{
		Tuning:           s.Tuning,
		Layout:           catalog.LayoutFor(track, config.ViewportWidth, config.ViewportHeight),
		Player:           game.VehicleSpec{Name: s.Name, Stats: stats},
		CreditMultiplier: diff.CreditMultiplier,
	}

	opponents := min(max(s.Opponents, 0), config.MaxOpponents)
	for i := 0; i < opponents; i++ {
		rival := catalog.Cars[(s.CarIndex+1+i)%len(catalog.Cars)]
		cfg.Opponents = append(cfg.Opponents, game.VehicleSpec{
			Name:  rival.Name,
			Stats: diff.OpponentStats(rival.Stats),
		})
	}
	return cfg, nil
}

// Result is the player's outcome of a finished room.
type Result struct {
	RoomID    string
	Player    string
	CarIndex  int
	Track     string
	Position  int
	Field     int
	Reward    int
	RaceTime  float64
	BestLap   float64
	Standings []game.Standing
}

func resultFor(roomID string, s RaceSetup, e game.Event) Result {
	res := Result{
		RoomID:    roomID,
		Player:    s.Name,
		CarIndex:  s.CarIndex,
		Field:     len(e.Standings),
		RaceTime:  e.Time,
		Standings: e.Standings,
	}
	if track, ok := catalog.TrackByIndex(s.Track); ok {
		res.Track = track.Name
	}
	for _, st := range e.Standings {
		if st.Vehicle == game.PlayerID {
			res.Position = st.Position
			res.Reward = st.Reward
			res.BestLap = st.BestLap
			if st.Finished {
				res.RaceTime = st.FinishTime
			}
		}
	}
	return res
}
