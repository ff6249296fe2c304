package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
)

// Phase is the race state machine position.
type Phase uint8

const (
	PhasePreRace Phase = iota
	PhaseRacing
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePreRace:
		return "pre-race"
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Checkpoint is one gate of the lap as seen by a particular vehicle.
type Checkpoint struct {
	Index  int
	Pos    mgl64.Vec2
	Passed bool
}

// Progress is one vehicle's lap bookkeeping.
type Progress struct {
	Lap            int
	LastCheckpoint int
	PassedCount    int
	LapStart       float64
	LastLap        float64
	BestLap        float64
	Finished       bool
	FinishTime     float64

	passed   []bool
	collided bool
}

func newProgress(n int, now float64) *Progress {
	return &Progress{
		Lap:            1,
		LastCheckpoint: -1,
		LapStart:       now,
		passed:         make([]bool, n),
	}
}

// Passed reports whether checkpoint i is marked in the current lap.
func (p *Progress) Passed(i int) bool {
	return i >= 0 && i < len(p.passed) && p.passed[i]
}

func (p *Progress) resetLap(now float64) {
	for i := range p.passed {
		p.passed[i] = false
	}
	p.PassedCount = 0
	p.LapStart = now
	p.collided = false
}

// Progression tracks checkpoints and laps for every vehicle in a race.
type Progression struct {
	checkpoints []mgl64.Vec2
	radius      float64
	strict      bool
	totalLaps   int

	phase    Phase
	progress map[VehicleID]*Progress
}

// NewProgression creates the state machine in the pre-race phase.
func NewProgression(checkpoints []mgl64.Vec2, t config.Tuning) *Progression {
	totalLaps := t.TotalLaps
	if totalLaps <= 0 {
		totalLaps = config.DefaultTotalLaps
	}
	cps := make([]mgl64.Vec2, len(checkpoints))
	copy(cps, checkpoints)

	return &Progression{
		checkpoints: cps,
		radius:      t.CheckpointRadius,
		strict:      t.StrictCheckpointOrder,
		totalLaps:   totalLaps,
		phase:       PhasePreRace,
		progress:    make(map[VehicleID]*Progress),
	}
}

// Start registers the field and moves to the racing phase.
func (p *Progression) Start(ids []VehicleID, now float64) {
	p.progress = make(map[VehicleID]*Progress, len(ids))
	for _, id := range ids {
		p.progress[id] = newProgress(len(p.checkpoints), now)
	}
	p.phase = PhaseRacing
}

// Phase returns the current phase.
func (p *Progression) Phase() Phase {
	return p.phase
}

// TotalLaps returns the race length.
func (p *Progression) TotalLaps() int {
	return p.totalLaps
}

// Progress returns the bookkeeping of one vehicle.
func (p *Progression) Progress(id VehicleID) (*Progress, bool) {
	pr, ok := p.progress[id]
	return pr, ok
}

// Checkpoints returns the gates with the passed flags of vehicle id.
func (p *Progression) Checkpoints(id VehicleID) []Checkpoint {
	pr := p.progress[id]
	out := make([]Checkpoint, len(p.checkpoints))
	for i, pos := range p.checkpoints {
		out[i] = Checkpoint{Index: i, Pos: pos}
		if pr != nil {
			out[i].Passed = pr.passed[i]
		}
	}
	return out
}

// NextCheckpoint is the index the vehicle should head for next.
func (p *Progression) NextCheckpoint(id VehicleID) int {
	if len(p.checkpoints) == 0 {
		return -1
	}
	pr, ok := p.progress[id]
	if !ok {
		return 0
	}
	return (pr.LastCheckpoint + 1) % len(p.checkpoints)
}

// CheckpointPos returns the position of checkpoint i, wrapping the index.
func (p *Progression) CheckpointPos(i int) (mgl64.Vec2, bool) {
	n := len(p.checkpoints)
	if n == 0 {
		return mgl64.Vec2{}, false
	}
	return p.checkpoints[((i%n)+n)%n], true
}

// MarkCollision taints the current lap of id.
func (p *Progression) MarkCollision(id VehicleID) {
	if pr, ok := p.progress[id]; ok {
		pr.collided = true
	}
}

// Observe checks a vehicle against its unpassed checkpoints and returns the
// resulting events. It does nothing outside the racing phase, for finished
// vehicles, or on a track without checkpoints.
func (p *Progression) Observe(id VehicleID, pos mgl64.Vec2, now float64) []Event {
	pr, ok := p.progress[id]
	if !ok || pr.Finished || p.phase != PhaseRacing || len(p.checkpoints) == 0 {
		return nil
	}

	var events []Event
	for i, cp := range p.checkpoints {
		if pr.passed[i] {
			continue
		}
		if p.strict && i != (pr.LastCheckpoint+1)%len(p.checkpoints) {
			continue
		}
		if Distance(pos, cp) >= p.radius {
			continue
		}

		pr.passed[i] = true
		pr.PassedCount++
		pr.LastCheckpoint = i
		events = append(events, Event{Kind: EventCheckpointPassed, Vehicle: id, Time: now, Checkpoint: i, Lap: pr.Lap})

		if pr.PassedCount == len(p.checkpoints) {
			events = append(events, p.completeLap(id, pr, now)...)
			break
		}
	}
	return events
}

func (p *Progression) completeLap(id VehicleID, pr *Progress, now float64) []Event {
	lapTime := now - pr.LapStart
	if pr.BestLap == 0 || lapTime < pr.BestLap {
		pr.BestLap = lapTime
	}
	pr.LastLap = lapTime

	events := []Event{{
		Kind:    EventLapCompleted,
		Vehicle: id,
		Time:    now,
		Lap:     pr.Lap,
		LapTime: lapTime,
		Clean:   !pr.collided,
	}}

	pr.Lap++
	pr.resetLap(now)

	if pr.Lap > p.totalLaps {
		pr.Finished = true
		pr.FinishTime = now
		events = append(events, Event{Kind: EventVehicleFinished, Vehicle: id, Time: now, Lap: p.totalLaps})
	}
	return events
}

// Finish moves the machine to its terminal phase. It reports false if the
// race had already finished.
func (p *Progression) Finish() bool {
	if p.phase == PhaseFinished {
		return false
	}
	p.phase = PhaseFinished
	return true
}

// DistanceToNext is how far pos is from the vehicle's next checkpoint.
func (p *Progression) DistanceToNext(id VehicleID, pos mgl64.Vec2) float64 {
	cp, ok := p.CheckpointPos(p.NextCheckpoint(id))
	if !ok {
		return 0
	}
	return Distance(pos, cp)
}
