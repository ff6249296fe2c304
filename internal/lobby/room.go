// Package lobby hosts race sessions for connected clients. Each room runs one
// game.Session on its own loop and streams state through the binary protocol.
package lobby

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/game"
	"github.com/race/horizon/internal/logging"
	"github.com/race/horizon/internal/network"
)

// Connection is the outbound side of a client.
type Connection interface {
	Send(data []byte) error
	Close() error
}

// Room is one race: a single player against AI opponents.
//
// The session is not safe for concurrent use, so every access goes through
// mu. The loop goroutine steps and broadcasts; HandleInput is called from the
// connection's read goroutine.
type Room struct {
	mu sync.Mutex

	ID    string
	setup RaceSetup

	session  *game.Session
	conn     Connection
	protocol *network.Protocol
	metrics  *metrics

	input       game.InputRecord
	lastSeq     uint8
	seenInput   bool
	corrections int

	running  atomic.Bool
	stopped  atomic.Bool
	finished atomic.Bool
	stopChan chan struct{}

	log     zerolog.Logger
	sampled zerolog.Logger

	onFinish func(Result)
}

// NewRoom builds the session for setup and sends the race info to conn.
// The room is not started automatically - call Start() to begin the loop.
func NewRoom(id string, setup RaceSetup, conn Connection, log zerolog.Logger) (*Room, error) {
	cfg, err := setup.SessionConfig()
	if err != nil {
		return nil, err
	}

	m, err := sharedMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("room metrics disabled")
	}

	log = log.With().Str("room", id).Str("player", setup.Name).Logger()
	r := &Room{
		ID:       id,
		setup:    setup,
		session:  game.NewSession(cfg),
		conn:     conn,
		protocol: network.NewProtocol(),
		metrics:  m,
		stopChan: make(chan struct{}),
		log:      log,
		sampled:  logging.Sampled(log),
	}

	info := r.protocol.EncodeRaceInfo(id,
		uint8(setup.Track),
		uint8(r.session.TotalLaps()),
		uint8(len(r.session.Vehicles())),
		uint16(game.PlayerID))
	if err := conn.Send(info); err != nil {
		log.Warn().Err(err).Msg("failed to send race info")
	}

	return r, nil
}

// SetOnFinish sets a callback called once when the player finishes.
func (r *Room) SetOnFinish(callback func(Result)) {
	r.onFinish = callback
}

// Start begins the room's loop in a separate goroutine.
// Safe to call multiple times - subsequent calls are no-ops.
func (r *Room) Start() {
	if r.running.Swap(true) {
		return
	}

	go r.loop()
	r.log.Info().Msg("room started")
}

// Stop stops the room's loop.
// Safe to call multiple times - subsequent calls are no-ops.
func (r *Room) Stop() {
	if !r.running.Swap(false) {
		return
	}

	r.stopped.Store(true)
	close(r.stopChan)
	r.log.Info().Msg("room stopped")
}

// Done reports whether the race is over or the loop has been stopped.
func (r *Room) Done() bool {
	return r.finished.Load() || r.stopped.Load()
}

// HandleInput stores the latest key state and applies pause flags.
// Inputs behind the last seen sequence number (mod 256) are dropped.
func (r *Room) HandleInput(msg *network.InputMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seenInput && int8(msg.Sequence-r.lastSeq) < 0 {
		return
	}
	r.seenInput = true
	r.lastSeq = msg.Sequence
	r.input = network.InputFromKeys(msg.Keys)

	switch {
	case msg.Flags&network.InputFlagPause != 0:
		r.session.Pause()
	case msg.Flags&network.InputFlagResume != 0:
		r.session.Resume()
	}
}

// Step advances the session by dt seconds with the player's latest input
// and forwards the resulting events.
func (r *Room) Step(dt float64) game.TickReport {
	r.mu.Lock()
	before := r.session.Tick()
	report := r.session.AdvanceTick(map[game.VehicleID]game.InputRecord{game.PlayerID: r.input}, dt)
	r.mu.Unlock()

	ctx := context.Background()
	if report.Tick != before {
		r.metrics.tick(ctx)
	}
	r.checkCorrections(report.Vehicles)
	r.dispatch(ctx, report.Events)
	return report
}

func (r *Room) checkCorrections(vehicles []game.VehicleState) {
	total := 0
	for _, v := range vehicles {
		total += v.Corrections
	}
	if total > r.corrections {
		r.sampled.Warn().
			Int("corrections", total-r.corrections).
			Msg("vehicle state corrected")
		r.corrections = total
	}
}

func (r *Room) dispatch(ctx context.Context, events []game.Event) {
	for _, e := range events {
		switch e.Kind {
		case game.EventLapCompleted:
			controller := game.ControllerAI
			if e.Vehicle == game.PlayerID {
				controller = game.ControllerPlayer
			}
			r.metrics.lap(ctx, controller.String())

		case game.EventRaceFinished:
			res := resultFor(r.ID, r.setup, e)
			r.metrics.finish(ctx, res.Track)
			r.send(r.protocol.EncodeRaceResult(e.Standings))
			r.finished.Store(true)

			r.log.Info().
				Int("position", res.Position).
				Int("reward", res.Reward).
				Float64("time", res.RaceTime).
				Msg("race finished")

			if r.onFinish != nil {
				r.onFinish(res)
			}
			continue
		}

		r.send(r.protocol.EncodeEvent(e))
	}
}

// Snapshot returns the current race state without advancing it.
func (r *Room) Snapshot() game.TickReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A zero-length tick only reports.
	return r.session.AdvanceTick(nil, 0)
}

// Paused reports whether the player has paused the race.
func (r *Room) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Paused()
}

func (r *Room) broadcastState() {
	r.mu.Lock()
	report := r.session.AdvanceTick(nil, 0)
	paused := r.session.Paused()
	r.mu.Unlock()

	r.send(r.protocol.EncodeRaceState(report, paused))
}

func (r *Room) send(data []byte) {
	if err := r.conn.Send(data); err != nil {
		r.sampled.Debug().Err(err).Msg("failed to send")
	}
}

// loop runs physics at 60Hz and broadcasts at 20Hz until stopped or the
// race finishes. The measured delta is clamped by the session.
func (r *Room) loop() {
	physicsTicker := time.NewTicker(time.Second / time.Duration(config.PhysicsTickRate))
	broadcastTicker := time.NewTicker(time.Second / time.Duration(config.NetworkBroadcastRate))
	defer physicsTicker.Stop()
	defer broadcastTicker.Stop()

	last := time.Now()

	for {
		select {
		case <-r.stopChan:
			return

		case now := <-physicsTicker.C:
			dt := now.Sub(last).Seconds()
			last = now

			if r.Step(dt).Finished {
				r.broadcastState()
				return
			}

		case <-broadcastTicker.C:
			r.broadcastState()
		}
	}
}
