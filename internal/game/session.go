// Package game implements the race simulation core: vehicle integration,
// collision and boundary resolution, drift scoring, lap progression and
// opponent steering.
//
// A Session is driven by its host through AdvanceTick. It owns no goroutine,
// takes no lock and performs no I/O; everything the host needs to react to is
// returned in the TickReport.
package game

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
)

// PlayerID is the ID of the human-controlled vehicle. Opponents follow it.
const PlayerID VehicleID = 1

// VehicleSpec describes one entrant at session creation.
type VehicleSpec struct {
	Name  string
	Stats catalog.Stats
}

// TargetFunc picks the point an AI vehicle steers toward this tick.
type TargetFunc func(s *Session, v *Vehicle) mgl64.Vec2

// Config is everything a session needs at creation.
type Config struct {
	Tuning           config.Tuning
	Layout           catalog.Layout
	Player           VehicleSpec
	Opponents        []VehicleSpec
	CreditMultiplier float64

	// Optional collaborators
	Ranker  Ranker
	Targets TargetFunc
}

// TickReport is the result of one AdvanceTick call.
type TickReport struct {
	Tick      uint64
	Time      float64
	Phase     Phase
	Lap       int
	TotalLaps int
	Position  int
	Vehicles  []VehicleState
	Events    []Event
	Finished  bool
}

// Session is one race.
type Session struct {
	cfg      Config
	tuning   config.Tuning
	boundary Boundary

	physics *Physics
	sanity  *Sanity
	grid    *SpatialGrid

	vehicles    []*Vehicle
	byID        map[VehicleID]*Vehicle
	progression *Progression
	drift       map[VehicleID]*driftTracker
	lastDrift   map[VehicleID]DriftResult

	tick      uint64
	elapsed   float64
	paused    bool
	standings []Standing
	reward    int
}

// NewSession builds a race for the given track and field and starts it.
func NewSession(cfg Config) *Session {
	if cfg.Tuning == (config.Tuning{}) {
		cfg.Tuning = config.DefaultTuning()
	}
	if cfg.Ranker == nil {
		cfg.Ranker = DefaultRanker
	}
	if cfg.Targets == nil {
		cfg.Targets = NextCheckpointTarget
	}
	if cfg.CreditMultiplier <= 0 {
		cfg.CreditMultiplier = 1
	}
	if cfg.Layout.Traction == 0 {
		cfg.Layout.Traction = 1
	}

	radius := cfg.Tuning.VehicleRadius
	if radius <= 0 {
		radius = config.VehicleRadius
		cfg.Tuning.VehicleRadius = radius
	}

	s := &Session{
		cfg:      cfg,
		tuning:   cfg.Tuning,
		boundary: BoundaryFor(cfg.Layout),
		physics:  NewPhysics(cfg.Tuning),
		sanity:   NewSanity(),
		grid:     NewSpatialGrid(math.Max(4*radius, cfg.Tuning.AIAvoidRadius)),
	}
	s.Reset()
	return s
}

// Reset discards all race state and starts over from the grid.
func (s *Session) Reset() {
	s.tick = 0
	s.elapsed = 0
	s.paused = false
	s.standings = nil
	s.reward = 0

	specs := append([]VehicleSpec{s.cfg.Player}, s.cfg.Opponents...)
	s.vehicles = make([]*Vehicle, 0, len(specs))
	s.byID = make(map[VehicleID]*Vehicle, len(specs))
	s.drift = make(map[VehicleID]*driftTracker, len(specs))
	s.lastDrift = make(map[VehicleID]DriftResult, len(specs))

	ids := make([]VehicleID, 0, len(specs))
	for i, spec := range specs {
		id := PlayerID + VehicleID(i)
		ctrl := ControllerAI
		if id == PlayerID {
			ctrl = ControllerPlayer
		}
		pos, heading := s.cfg.Layout.GridSlot(i)
		v := NewVehicle(id, spec.Name, ctrl, spec.Stats, pos, heading, s.tuning)

		s.vehicles = append(s.vehicles, v)
		s.byID[id] = v
		s.drift[id] = &driftTracker{}
		ids = append(ids, id)
	}

	s.progression = NewProgression(s.cfg.Layout.Checkpoints, s.tuning)
	s.progression.Start(ids, 0)
}

// Pause freezes the session; AdvanceTick becomes a no-op until Resume.
func (s *Session) Pause() { s.paused = true }

// Resume undoes Pause.
func (s *Session) Resume() { s.paused = false }

// Paused reports whether the session is paused.
func (s *Session) Paused() bool { return s.paused }

// AdvanceTick runs one simulation step. Inputs for AI vehicles are optional;
// missing ones are computed by the steering heuristic. Paused, finished and
// zero-length ticks change nothing.
func (s *Session) AdvanceTick(inputs map[VehicleID]InputRecord, deltaSeconds float64) TickReport {
	frames := FrameStep(deltaSeconds)
	if s.paused || s.progression.Phase() != PhaseRacing || frames == 0 {
		return s.report(nil)
	}

	seconds := frames * config.FrameUnit
	s.tick++
	s.elapsed += seconds

	// AI first so every decision sees the same pre-tick field
	s.grid.Update(s.vehicles)
	resolved := make([]InputRecord, len(s.vehicles))
	for i, v := range s.vehicles {
		in, ok := inputs[v.ID]
		if !ok && !v.IsPlayer() {
			in = ComputeAIInput(v, s.cfg.Targets(s, v), s.obstaclesFor(v), s.tuning)
		}
		resolved[i] = in
	}

	for i, v := range s.vehicles {
		s.physics.step(v, resolved[i], frames, s.cfg.Layout.Traction)
		v.tickEffects(seconds, frames)
	}

	events := s.resolveCollisions()

	for _, v := range s.vehicles {
		s.sanity.Validate(v)
		if res := s.boundary.Contain(v, s.tuning.OffTrackDamping); !res.OnTrack {
			events = append(events, Event{Kind: EventOffTrack, Vehicle: v.ID, Time: s.elapsed})
		}
	}

	for _, v := range s.vehicles {
		r := EvaluateDrift(v, frames, s.tuning)
		s.lastDrift[v.ID] = r
		if s.drift[v.ID].observe(r, seconds, s.tuning.DriftSustainedSec) {
			events = append(events, Event{
				Kind:       EventDriftSustained,
				Vehicle:    v.ID,
				Time:       s.elapsed,
				DriftScore: s.drift[v.ID].total,
			})
		}
	}

	for _, v := range s.vehicles {
		events = append(events, s.progression.Observe(v.ID, v.Pos, s.elapsed)...)
	}

	if pr, ok := s.progression.Progress(PlayerID); ok && pr.Finished && s.progression.Finish() {
		s.standings = s.rank()
		for _, st := range s.standings {
			if st.Vehicle == PlayerID {
				s.reward = st.Reward
			}
		}
		events = append(events, Event{Kind: EventRaceFinished, Vehicle: PlayerID, Time: s.elapsed, Standings: s.standings})
	}

	return s.report(events)
}

func (s *Session) resolveCollisions() []Event {
	s.grid.Update(s.vehicles)

	var events []Event
	for _, pair := range s.grid.PotentialCollisions() {
		a, b := pair[0], pair[1]
		c := CheckCollision(a, b, s.tuning.VehicleRadius)
		if !c.Colliding {
			continue
		}
		ResolveCollision(a, b, c, s.tuning.Restitution)
		s.progression.MarkCollision(a.ID)
		s.progression.MarkCollision(b.ID)
		events = append(events, Event{Kind: EventCollision, Vehicle: a.ID, Other: b.ID, Time: s.elapsed})
	}
	return events
}

// obstaclesFor lists the solid vehicles in front of v, in ID order. The
// grid must be current; its cells are at least AIAvoidRadius wide so the
// neighbouring cells cover the whole avoidance circle.
func (s *Session) obstaclesFor(v *Vehicle) []mgl64.Vec2 {
	if v.Ghost {
		return nil
	}
	ahead := Direction(v.Heading)

	nearby := s.grid.Nearby(v)
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].ID < nearby[j].ID })

	var obstacles []mgl64.Vec2
	for _, o := range nearby {
		if o.Ghost {
			continue
		}
		offset := o.Pos.Sub(v.Pos)
		if offset.Len() >= s.tuning.AIAvoidRadius || offset.Dot(ahead) <= epsilon {
			continue
		}
		obstacles = append(obstacles, o.Pos)
	}
	return obstacles
}

// NextCheckpointTarget steers toward the vehicle's next checkpoint, skipping
// ahead by the configured lookahead. Without checkpoints the vehicle targets
// its own position and coasts.
func NextCheckpointTarget(s *Session, v *Vehicle) mgl64.Vec2 {
	next := s.progression.NextCheckpoint(v.ID)
	if next < 0 {
		return v.Pos
	}
	pos, _ := s.progression.CheckpointPos(next + s.tuning.AITargetLookahead)
	return pos
}

// ComputeAIInput runs the steering heuristic for vehicle id with this
// session's tuning.
func (s *Session) ComputeAIInput(id VehicleID, target mgl64.Vec2, obstacles []mgl64.Vec2) (InputRecord, bool) {
	v, ok := s.byID[id]
	if !ok {
		return InputRecord{}, false
	}
	return ComputeAIInput(v, target, obstacles, s.tuning), true
}

// Autopilot returns the input the AI would use for vehicle id this tick.
func (s *Session) Autopilot(id VehicleID) (InputRecord, bool) {
	v, ok := s.byID[id]
	if !ok {
		return InputRecord{}, false
	}
	s.grid.Update(s.vehicles)
	return ComputeAIInput(v, s.cfg.Targets(s, v), s.obstaclesFor(v), s.tuning), true
}

// ApplyPickup starts a pickup effect on vehicle id.
func (s *Session) ApplyPickup(id VehicleID, p catalog.Powerup) bool {
	v, ok := s.byID[id]
	if !ok {
		return false
	}
	v.ApplyPickup(p)
	return true
}

func (s *Session) rank() []Standing {
	entries := make([]Standing, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		st := Standing{Vehicle: v.ID, Name: v.Name, Controller: v.Controller}
		if pr, ok := s.progression.Progress(v.ID); ok {
			st.Lap = pr.Lap
			st.Passed = pr.PassedCount
			st.Finished = pr.Finished
			st.FinishTime = pr.FinishTime
			st.BestLap = pr.BestLap
		}
		st.DistanceToNext = s.progression.DistanceToNext(v.ID, v.Pos)
		entries = append(entries, st)
	}

	ranked := s.cfg.Ranker.Rank(entries)
	if len(ranked) != len(entries) {
		ranked = DefaultRanker.Rank(entries)
	}
	for i := range ranked {
		ranked[i].Position = i + 1
		ranked[i].Reward = Reward(i+1, s.cfg.CreditMultiplier)
	}
	return ranked
}

func (s *Session) report(events []Event) TickReport {
	r := TickReport{
		Tick:      s.tick,
		Time:      s.elapsed,
		Phase:     s.progression.Phase(),
		Lap:       s.Lap(),
		TotalLaps: s.progression.TotalLaps(),
		Vehicles:  s.Vehicles(),
		Events:    events,
		Finished:  s.Finished(),
	}
	for _, st := range s.Standings() {
		if st.Vehicle == PlayerID {
			r.Position = st.Position
		}
	}
	return r
}

// Vehicles returns a snapshot of every vehicle in ID order.
func (s *Session) Vehicles() []VehicleState {
	out := make([]VehicleState, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, s.stateOf(v))
	}
	return out
}

// Vehicle returns the snapshot of one vehicle.
func (s *Session) Vehicle(id VehicleID) (VehicleState, bool) {
	v, ok := s.byID[id]
	if !ok {
		return VehicleState{}, false
	}
	return s.stateOf(v), true
}

func (s *Session) stateOf(v *Vehicle) VehicleState {
	st := v.State()
	if pr, ok := s.progression.Progress(v.ID); ok {
		st.Lap = pr.Lap
		st.LastCheckpoint = pr.LastCheckpoint
		st.Finished = pr.Finished
	}
	st.Drift = s.lastDrift[v.ID]
	if d, ok := s.drift[v.ID]; ok {
		st.DriftTotal = d.total
	}
	return st
}

// Checkpoints returns the track gates with the player's passed flags.
func (s *Session) Checkpoints() []Checkpoint {
	return s.progression.Checkpoints(PlayerID)
}

// Progress returns the lap bookkeeping of one vehicle.
func (s *Session) Progress(id VehicleID) (Progress, bool) {
	pr, ok := s.progression.Progress(id)
	if !ok {
		return Progress{}, false
	}
	return *pr, true
}

// Standings returns the final order once finished, or the live order.
func (s *Session) Standings() []Standing {
	if s.standings != nil {
		return s.standings
	}
	return s.rank()
}

// Lap is the player's current lap.
func (s *Session) Lap() int {
	if pr, ok := s.progression.Progress(PlayerID); ok {
		return pr.Lap
	}
	return 0
}

// TotalLaps is the race length.
func (s *Session) TotalLaps() int { return s.progression.TotalLaps() }

// Elapsed is the simulated race time in seconds.
func (s *Session) Elapsed() float64 { return s.elapsed }

// Tick is the number of simulated ticks.
func (s *Session) Tick() uint64 { return s.tick }

// Phase is the race state machine position.
func (s *Session) Phase() Phase { return s.progression.Phase() }

// Finished reports whether the race is over.
func (s *Session) Finished() bool { return s.progression.Phase() == PhaseFinished }

// Reward is the player's credit payout, set once the race finishes.
func (s *Session) Reward() int { return s.reward }

// Boundary returns the track containment ring.
func (s *Session) Boundary() Boundary { return s.boundary }

// Layout returns the track geometry.
func (s *Session) Layout() catalog.Layout { return s.cfg.Layout }

// Tuning returns the coefficients in use.
func (s *Session) Tuning() config.Tuning { return s.tuning }
