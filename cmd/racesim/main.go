// Command racesim runs a race headless at a fixed step and prints the
// standings. The player car is driven by the same heuristic as the field.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
	"github.com/race/horizon/internal/game"
	"github.com/race/horizon/internal/lobby"
	"github.com/race/horizon/internal/logging"
)

type options struct {
	setup     lobby.RaceSetup
	timeLimit float64        // simulated seconds
	pickup    catalog.Effect // applied to the player at the start, optional
}

type outcome struct {
	track     string
	estimate  float64 // predicted lap time of the player's car
	peakJump  float64
	finished  bool
	elapsed   float64
	ticks     uint64
	reward    int
	standings []game.Standing
	events    map[game.EventKind]int
}

func main() {
	configDir := flag.String("config", ".", "directory holding horizon.json")
	track := flag.Int("track", 0, "track index")
	trackName := flag.String("track-name", "", "track by name, overrides -track")
	car := flag.Int("car", 0, "car index")
	carName := flag.String("car-name", "", "car by name, overrides -car")
	pickup := flag.String("pickup", "", "pickup effect given to the player at the start")
	difficulty := flag.String("difficulty", "medium", "easy, medium, hard or extreme")
	opponents := flag.Int("opponents", config.DefaultOpponentCount, "number of AI opponents")
	laps := flag.Int("laps", 0, "race length, 0 keeps the configured value")
	limit := flag.Float64("limit", 300, "simulated seconds before giving up")
	verbose := flag.Bool("v", false, "log every race event")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logging.NewConsole(os.Stderr, "racesim", level)

	if err := config.Load(*configDir); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	tuning, err := config.TuningFromViper()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid tuning")
	}
	if *laps > 0 {
		tuning.TotalLaps = *laps
	}

	setup := lobby.RaceSetup{
		Name:       "You",
		CarIndex:   *car,
		Track:      *track,
		Difficulty: *difficulty,
		Opponents:  *opponents,
		Tuning:     tuning,
	}
	if err := resolveNames(&setup, *trackName, *carName); err != nil {
		log.Fatal().Err(err).Msg("invalid selection")
	}

	out, err := run(options{
		setup:     setup,
		timeLimit: *limit,
		pickup:    catalog.Effect(*pickup),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}

	if !out.finished {
		log.Warn().Float64("limit", *limit).Msg("time limit reached before the finish")
	}
	render(os.Stdout, out)
}

// resolveNames points the setup at the named track and car. Empty names
// keep the indexes.
func resolveNames(setup *lobby.RaceSetup, track, car string) error {
	if track != "" {
		idx, ok := catalog.TrackIndex(track)
		if !ok {
			return errors.Wrapf(lobby.ErrUnknownTrack, "%q", track)
		}
		setup.Track = idx
	}
	if car != "" {
		idx, ok := catalog.CarIndex(car)
		if !ok {
			return errors.Wrapf(lobby.ErrUnknownCar, "%q", car)
		}
		setup.CarIndex = idx
	}
	return nil
}

// run steps a session at the nominal tick rate until the player finishes or
// the time limit passes.
func run(opts options, log zerolog.Logger) (outcome, error) {
	cfg, err := opts.setup.SessionConfig()
	if err != nil {
		return outcome{}, errors.Wrap(err, "race setup")
	}
	s := game.NewSession(cfg)

	if opts.pickup != "" {
		p, ok := catalog.PowerupByEffect(opts.pickup)
		if !ok {
			return outcome{}, errors.Errorf("unknown pickup %q", opts.pickup)
		}
		s.ApplyPickup(game.PlayerID, p)
	}

	out := outcome{events: make(map[game.EventKind]int)}
	if t, ok := catalog.TrackByIndex(opts.setup.Track); ok {
		out.track = t.Name
		if c, ok := catalog.CarByIndex(opts.setup.CarIndex); ok {
			out.estimate = catalog.EstimateLapTime(c, t, t.Weather)
		}
	}

	maxTicks := uint64(math.Max(opts.timeLimit, 0) * config.PhysicsTickRate)
	for s.Tick() < maxTicks && !s.Finished() {
		in, _ := s.Autopilot(game.PlayerID)
		r := s.AdvanceTick(map[game.VehicleID]game.InputRecord{game.PlayerID: in}, config.FrameUnit)
		if v, ok := s.Vehicle(game.PlayerID); ok {
			out.peakJump = math.Max(out.peakJump, v.JumpHeight)
		}
		for _, e := range r.Events {
			out.events[e.Kind]++
			if e.Kind != game.EventCollision && e.Kind != game.EventOffTrack {
				log.Debug().Uint64("tick", r.Tick).Msg(e.String())
			}
		}
	}

	out.finished = s.Finished()
	out.elapsed = s.Elapsed()
	out.ticks = s.Tick()
	out.reward = s.Reward()
	out.standings = s.Standings()
	return out, nil
}

func render(w io.Writer, out outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	title := fmt.Sprintf("%s  %s", out.track, formatRaceTime(out.elapsed))
	if out.estimate > 0 {
		title += fmt.Sprintf("  (est. lap %s)", formatRaceTime(out.estimate))
	}
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Pos", "Driver", "Lap", "Best", "Finish", "Reward"})

	for _, st := range out.standings {
		name := st.Name
		if st.Controller == game.ControllerPlayer {
			name = text.Bold.Sprint(name)
		}
		finish := "-"
		if st.Finished {
			finish = formatRaceTime(st.FinishTime)
		}
		best := "-"
		if st.BestLap > 0 {
			best = formatRaceTime(st.BestLap)
		}
		t.AppendRow(table.Row{st.Position, name, st.Lap, best, finish, st.Reward})
	}

	t.AppendFooter(table.Row{"", "Collisions", out.events[game.EventCollision], "Off track", out.events[game.EventOffTrack], out.reward})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

// formatRaceTime renders seconds as m:ss.hh.
func formatRaceTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hundredths := int(seconds*100 + 0.5)
	return fmt.Sprintf("%d:%02d.%02d", hundredths/6000, hundredths/100%60, hundredths%100)
}
