package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
)

func testConfig(t *testing.T, opponents int) Config {
	t.Helper()
	track, ok := catalog.TrackByIndex(0)
	require.True(t, ok)

	cfg := Config{
		Tuning: config.DefaultTuning(),
		Layout: catalog.LayoutFor(track, config.ViewportWidth, config.ViewportHeight),
		Player: VehicleSpec{Name: "Player", Stats: catalog.Cars[0].Stats},
	}
	for i := 0; i < opponents; i++ {
		cfg.Opponents = append(cfg.Opponents, VehicleSpec{Name: "Rival", Stats: catalog.Cars[i%len(catalog.Cars)].Stats})
	}
	return cfg
}

func eventsOf(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// teleportLaps drops the player onto every checkpoint in turn for the given
// number of laps and returns all events.
func teleportLaps(s *Session, laps int) []Event {
	var events []Event
	player := s.byID[PlayerID]
	for lap := 0; lap < laps; lap++ {
		for _, cp := range s.Layout().Checkpoints {
			player.Pos = cp
			player.Vel = mgl64.Vec2{}
			events = append(events, s.AdvanceTick(nil, tick).Events...)
		}
	}
	return events
}

func TestNewSession(t *testing.T) {
	s := NewSession(testConfig(t, 3))

	assert.Equal(t, PhaseRacing, s.Phase())
	assert.Equal(t, 1, s.Lap())
	assert.Equal(t, config.DefaultTotalLaps, s.TotalLaps())
	assert.Zero(t, s.Tick())
	assert.False(t, s.Finished())

	vehicles := s.Vehicles()
	require.Len(t, vehicles, 4)
	for i, v := range vehicles {
		assert.Equal(t, PlayerID+VehicleID(i), v.ID)
		assert.Equal(t, 1, v.Lap)
		assert.Equal(t, -1, v.LastCheckpoint)
		assert.Zero(t, v.Speed)
	}
	assert.Equal(t, ControllerPlayer, vehicles[0].Controller)
	assert.Equal(t, ControllerAI, vehicles[1].Controller)

	// Nobody starts inside a checkpoint
	for _, v := range vehicles {
		for _, cp := range s.Checkpoints() {
			assert.GreaterOrEqual(t, Distance(v.Pos, cp.Pos), config.CheckpointRadius)
		}
		assert.True(t, s.Boundary().Contains(v.Pos))
	}
}

func TestSession_ZeroConfigDefaults(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.Tuning = config.Tuning{}
	s := NewSession(cfg)

	assert.Equal(t, config.DefaultTuning(), s.Tuning())
	assert.Equal(t, 1.0, s.Layout().Traction)
}

func TestSession_DrivingForwardReachesFirstCheckpoint(t *testing.T) {
	s := NewSession(testConfig(t, 0))

	var passed []Event
	for i := 0; i < 180 && len(passed) == 0; i++ {
		r := s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, tick)
		passed = eventsOf(r.Events, EventCheckpointPassed)
	}

	require.Len(t, passed, 1)
	assert.Equal(t, PlayerID, passed[0].Vehicle)
	assert.Equal(t, 0, passed[0].Checkpoint)
	assert.True(t, s.Checkpoints()[0].Passed)

	v, ok := s.Vehicle(PlayerID)
	require.True(t, ok)
	assert.Equal(t, 0, v.LastCheckpoint)
	assert.Greater(t, v.Speed, 0.0)
}

func TestSession_RaceFinishesOnce(t *testing.T) {
	s := NewSession(testConfig(t, 0))

	events := teleportLaps(s, config.DefaultTotalLaps)

	assert.Len(t, eventsOf(events, EventLapCompleted), config.DefaultTotalLaps)
	assert.Len(t, eventsOf(events, EventVehicleFinished), 1)

	finished := eventsOf(events, EventRaceFinished)
	require.Len(t, finished, 1)
	require.Len(t, finished[0].Standings, 1)
	assert.Equal(t, 1, finished[0].Standings[0].Position)

	assert.True(t, s.Finished())
	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, config.DefaultTotalLaps+1, s.Lap())
	assert.Equal(t, WinnerReward, s.Reward())

	// The finished race is frozen
	tickBefore := s.Tick()
	pos := s.byID[PlayerID].Pos
	r := s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, tick)
	assert.Empty(t, r.Events)
	assert.True(t, r.Finished)
	assert.Equal(t, tickBefore, s.Tick())
	assert.Equal(t, pos, s.byID[PlayerID].Pos)
	assert.Empty(t, eventsOf(teleportLaps(s, 1), EventRaceFinished))
}

func TestSession_RewardMultiplier(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.CreditMultiplier = catalog.DifficultyFor("hard").CreditMultiplier
	s := NewSession(cfg)

	teleportLaps(s, config.DefaultTotalLaps)
	require.True(t, s.Finished())
	assert.Equal(t, 1300, s.Reward())
}

func TestSession_PauseAndNoopTicks(t *testing.T) {
	s := NewSession(testConfig(t, 2))
	before := s.Vehicles()

	s.Pause()
	assert.True(t, s.Paused())
	s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, tick)
	assert.Zero(t, s.Tick())
	assert.Equal(t, before, s.Vehicles())

	s.Resume()
	for _, dt := range []float64{0, -1} {
		s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, dt)
	}
	assert.Zero(t, s.Tick())
	assert.Equal(t, before, s.Vehicles())

	s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, tick)
	assert.Equal(t, uint64(1), s.Tick())
	assert.InDelta(t, tick, s.Elapsed(), 1e-12)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession(testConfig(t, 2))
	before := s.Vehicles()

	for i := 0; i < 120; i++ {
		s.AdvanceTick(map[VehicleID]InputRecord{PlayerID: {Accelerate: true}}, tick)
	}
	require.NotEqual(t, before, s.Vehicles())

	s.Reset()
	assert.Equal(t, before, s.Vehicles())
	assert.Zero(t, s.Tick())
	assert.Zero(t, s.Elapsed())
	assert.Equal(t, PhaseRacing, s.Phase())
}

func TestSession_Deterministic(t *testing.T) {
	a := NewSession(testConfig(t, 3))
	b := NewSession(testConfig(t, 3))

	script := []InputRecord{
		{Accelerate: true},
		{Accelerate: true, TurnRight: true},
		{Brake: true, TurnLeft: true},
		{},
	}
	for i := 0; i < 900; i++ {
		in := map[VehicleID]InputRecord{PlayerID: script[(i/60)%len(script)]}
		ra := a.AdvanceTick(in, tick)
		rb := b.AdvanceTick(in, tick)
		require.Equal(t, ra, rb, "tick %d", i)
	}
}

func TestSession_AIDrivesTowardCheckpoints(t *testing.T) {
	s := NewSession(testConfig(t, 1))
	start, _ := s.Vehicle(2)

	for i := 0; i < 240; i++ {
		s.AdvanceTick(nil, tick)
	}

	v, _ := s.Vehicle(2)
	assert.Greater(t, Distance(v.Pos, start.Pos), 100.0)

	pr, ok := s.Progress(2)
	require.True(t, ok)
	assert.True(t, pr.PassedCount > 0 || pr.Lap > 1)

	// Without input the player only coasts
	player, _ := s.Vehicle(PlayerID)
	assert.Zero(t, player.Speed)
}

func TestSession_SuppliedAIInputWins(t *testing.T) {
	s := NewSession(testConfig(t, 1))
	start, _ := s.Vehicle(2)

	for i := 0; i < 60; i++ {
		s.AdvanceTick(map[VehicleID]InputRecord{2: {}}, tick)
	}
	v, _ := s.Vehicle(2)
	assert.Equal(t, start.Pos, v.Pos)
}

func TestSession_CollisionEvent(t *testing.T) {
	s := NewSession(testConfig(t, 1))
	player, rival := s.byID[PlayerID], s.byID[2]
	rival.Pos = player.Pos.Add(mgl64.Vec2{10, 0})

	r := s.AdvanceTick(map[VehicleID]InputRecord{2: {}}, tick)

	hits := eventsOf(r.Events, EventCollision)
	require.Len(t, hits, 1)
	assert.Equal(t, PlayerID, hits[0].Vehicle)
	assert.Equal(t, VehicleID(2), hits[0].Other)
	assert.InDelta(t, 2*config.VehicleRadius, Distance(player.Pos, rival.Pos), 1e-9)

	pr, _ := s.progression.Progress(PlayerID)
	assert.True(t, pr.collided)
}

func TestSession_GhostSkipsCollision(t *testing.T) {
	s := NewSession(testConfig(t, 1))
	player, rival := s.byID[PlayerID], s.byID[2]
	rival.Pos = player.Pos.Add(mgl64.Vec2{10, 0})

	ghost, _ := catalog.PowerupByEffect(catalog.EffectNoCollision)
	require.True(t, s.ApplyPickup(PlayerID, ghost))
	assert.False(t, s.ApplyPickup(42, ghost))

	r := s.AdvanceTick(map[VehicleID]InputRecord{2: {}}, tick)
	assert.Empty(t, eventsOf(r.Events, EventCollision))
	assert.InDelta(t, 10.0, Distance(player.Pos, rival.Pos), 1e-9)
}

func TestSession_OffTrackEvent(t *testing.T) {
	s := NewSession(testConfig(t, 0))
	b := s.Boundary()
	player := s.byID[PlayerID]
	player.Pos = b.Center.Add(mgl64.Vec2{2 * b.Outer, 0})

	r := s.AdvanceTick(nil, tick)
	require.Len(t, eventsOf(r.Events, EventOffTrack), 1)
	assert.InDelta(t, b.Outer, Distance(player.Pos, b.Center), 1e-9)
}

func TestSession_RankerFallback(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Ranker = RankerFunc(func([]Standing) []Standing { return nil })
	s := NewSession(cfg)

	standings := s.Standings()
	require.Len(t, standings, 3)
	for i, st := range standings {
		assert.Equal(t, i+1, st.Position)
	}
}

func TestSession_CustomTargets(t *testing.T) {
	cfg := testConfig(t, 1)
	var asked []VehicleID
	cfg.Targets = func(s *Session, v *Vehicle) mgl64.Vec2 {
		asked = append(asked, v.ID)
		return v.Pos.Add(Direction(v.Heading).Mul(500))
	}
	s := NewSession(cfg)

	// The rival alongside on the grid is not ahead
	in, ok := s.Autopilot(PlayerID)
	require.True(t, ok)
	assert.Equal(t, InputRecord{Accelerate: true}, in)
	assert.Equal(t, []VehicleID{PlayerID}, asked)

	asked = nil
	s.AdvanceTick(nil, tick)
	assert.Equal(t, []VehicleID{2}, asked)

	_, ok = s.ComputeAIInput(42, mgl64.Vec2{}, nil)
	assert.False(t, ok)
}

func TestSession_ObstaclesFromGrid(t *testing.T) {
	cfg := testConfig(t, 4)
	cfg.Tuning.AIAvoidRadius = 300
	s := NewSession(cfg)

	player := s.byID[PlayerID]
	player.Pos = mgl64.Vec2{640, 360}
	player.Heading = 0
	s.byID[2].Pos = player.Pos.Add(mgl64.Vec2{250, 0})
	s.byID[3].Pos = player.Pos.Add(mgl64.Vec2{-40, 0})
	s.byID[4].Pos = player.Pos.Add(mgl64.Vec2{40, 5})
	s.byID[5].Pos = player.Pos.Add(mgl64.Vec2{30, 0})
	s.byID[5].Ghost = true

	// Rival 2 is several collision radii out but inside the avoid radius
	s.grid.Update(s.vehicles)
	obstacles := s.obstaclesFor(player)
	assert.Equal(t, []mgl64.Vec2{s.byID[2].Pos, s.byID[4].Pos}, obstacles)

	s.byID[2].Pos = player.Pos.Add(mgl64.Vec2{400, 0})
	s.grid.Update(s.vehicles)
	assert.Equal(t, []mgl64.Vec2{s.byID[4].Pos}, s.obstaclesFor(player))

	player.Ghost = true
	assert.Empty(t, s.obstaclesFor(player))
}
