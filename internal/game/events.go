package game

import "fmt"

// EventKind classifies a race event.
type EventKind uint8

const (
	EventCheckpointPassed EventKind = iota + 1
	EventLapCompleted
	EventVehicleFinished
	EventRaceFinished
	EventCollision
	EventOffTrack
	EventDriftSustained
)

var eventKindNames = map[EventKind]string{
	EventCheckpointPassed: "checkpoint_passed",
	EventLapCompleted:     "lap_completed",
	EventVehicleFinished:  "vehicle_finished",
	EventRaceFinished:     "race_finished",
	EventCollision:        "collision",
	EventOffTrack:         "off_track",
	EventDriftSustained:   "drift_sustained",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event is emitted by AdvanceTick. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Vehicle VehicleID
	Time    float64 // race time in seconds

	// Collision
	Other VehicleID

	// Checkpoint and lap
	Checkpoint int
	Lap        int
	LapTime    float64
	Clean      bool

	// Drift
	DriftScore float64

	// Race finished
	Standings []Standing
}

func (e Event) String() string {
	switch e.Kind {
	case EventCheckpointPassed:
		return fmt.Sprintf("%s vehicle=%d checkpoint=%d", e.Kind, e.Vehicle, e.Checkpoint)
	case EventLapCompleted:
		return fmt.Sprintf("%s vehicle=%d lap=%d time=%.2fs clean=%t", e.Kind, e.Vehicle, e.Lap, e.LapTime, e.Clean)
	case EventCollision:
		return fmt.Sprintf("%s vehicle=%d other=%d", e.Kind, e.Vehicle, e.Other)
	case EventRaceFinished:
		return fmt.Sprintf("%s standings=%d", e.Kind, len(e.Standings))
	}
	return fmt.Sprintf("%s vehicle=%d", e.Kind, e.Vehicle)
}
