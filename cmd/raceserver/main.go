// Package main implements the Horizon race server.
//
// Each client gets its own room: the player races AI opponents in a session
// stepped at 60Hz, with state broadcast at 20Hz over a binary WebSocket
// protocol. Finished races are credited to the player's garage.
//
// Connection Flow:
// 1. Client connects via WebSocket to /ws endpoint
// 2. Client sends JoinRace with name, car (0xFF races the garage selection),
//    track and difficulty
// 3. Server opens a room and sends RaceInfo with the assigned vehicle ID
// 4. Client sends Input messages, server broadcasts RaceState and RaceEvent
// 5. When the player finishes, server sends RaceResult and records it
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/garage"
	"github.com/race/horizon/internal/lobby"
	"github.com/race/horizon/internal/logging"
	"github.com/race/horizon/internal/network"
)

const maxNameLength = 20

// RaceServer manages all connections and rooms.
type RaceServer struct {
	config   *config.ServerConfig
	tuning   config.Tuning
	lobby    *lobby.Lobby
	garage   *garage.Store
	protocol *network.Protocol
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu          sync.Mutex
	connections map[*ClientConnection]bool
}

// ClientConnection represents a single connected client.
type ClientConnection struct {
	ws       *websocket.Conn
	server   *RaceServer
	mu       sync.Mutex // guards room; cleanup runs on either pump
	room     *lobby.Room
	sendChan chan []byte
	done     chan struct{}
	once     sync.Once
	log      zerolog.Logger
}

func main() {
	configDir := flag.String("config", ".", "directory holding horizon.json")
	console := flag.Bool("console", false, "human-readable log output")
	flag.Parse()

	boot := logging.NewConsole(os.Stderr, "raceserver", "info")
	if err := config.Load(*configDir); err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	cfg, err := config.ServerFromViper()
	if err != nil {
		boot.Fatal().Err(err).Msg("invalid server config")
	}
	tuning, err := config.TuningFromViper()
	if err != nil {
		boot.Fatal().Err(err).Msg("invalid tuning")
	}

	log := logging.New(os.Stdout, "raceserver", cfg.LogLevel)
	if *console {
		log = logging.NewConsole(os.Stdout, "raceserver", cfg.LogLevel)
	}

	store, err := garage.Open(cfg.GaragePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open garage")
	}
	defer store.Close()

	server := NewRaceServer(cfg, tuning, store, log)

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("physicsHz", config.PhysicsTickRate).
		Int("broadcastHz", config.NetworkBroadcastRate).
		Int("maxRooms", config.MaxRoomsPerServer).
		Str("difficulty", cfg.Difficulty).
		Int("opponents", cfg.Opponents).
		Msg("Horizon race server starting")

	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// NewRaceServer creates and initializes a race server instance.
func NewRaceServer(cfg *config.ServerConfig, tuning config.Tuning, store *garage.Store, log zerolog.Logger) *RaceServer {
	s := &RaceServer{
		config:   cfg,
		tuning:   tuning,
		lobby:    lobby.New(log, config.MaxRoomsPerServer),
		garage:   store,
		protocol: network.NewProtocol(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.EnableCORS
			},
		},
		log:         log,
		connections: make(map[*ClientConnection]bool),
	}
	s.lobby.SetOnFinish(s.recordResult)
	return s
}

// Start begins listening for connections and runs background tasks.
// This method blocks until the server is shut down.
func (s *RaceServer) Start() error {
	// Finished rooms linger until the sweep
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			if removed := s.lobby.Cleanup(); removed > 0 {
				s.log.Info().Int("removed", removed).Msg("cleaned up finished rooms")
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			stats := s.lobby.Stats()
			if stats.TotalRooms > 0 {
				s.log.Info().Int("rooms", stats.TotalRooms).Int("racing", stats.Racing).Msg("stats")
			}
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.log.Info().Str("addr", addr).Msg("listening")

	return errors.Wrap(http.ListenAndServe(addr, s.routes()), "listen")
}

// recordResult credits a finished race to the player's profile.
func (s *RaceServer) recordResult(res lobby.Result) {
	_, err := s.garage.RecordResult(res.Player, garage.RaceResult{
		Track:    res.Track,
		CarIndex: res.CarIndex,
		Position: res.Position,
		Field:    res.Field,
		Reward:   res.Reward,
		RaceTime: res.RaceTime,
		BestLap:  res.BestLap,
	})
	if err != nil {
		s.log.Error().Err(err).Str("room", res.RoomID).Msg("result not recorded")
	}
}

// handleWebSocket upgrades HTTP connections and starts the client pumps.
func (s *RaceServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Buffer size of 256 prevents blocking on slow clients
	conn := &ClientConnection{
		ws:       ws,
		server:   s,
		sendChan: make(chan []byte, 256),
		done:     make(chan struct{}),
		log:      s.log.With().Str("remote", ws.RemoteAddr().String()).Logger(),
	}

	s.mu.Lock()
	s.connections[conn] = true
	s.mu.Unlock()

	conn.log.Debug().Msg("new connection")

	go conn.writePump()
	go conn.readPump()
}

// Send queues data to be sent to the client.
// Non-blocking: drops message if buffer is full.
func (c *ClientConnection) Send(data []byte) error {
	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		// A dropped state update is replaced by the next one
		return nil
	}
}

// Close shuts the connection down. Safe to call multiple times.
func (c *ClientConnection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *ClientConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.cleanup()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.sendChan:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *ClientConnection) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage dispatches on the first byte of the message.
func (c *ClientConnection) handleMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case network.MsgTypeJoinRace:
		c.handleJoin(data)

	case network.MsgTypeInput:
		c.handleInput(data)

	case network.MsgTypePing:
		c.handlePing(data)

	case network.MsgTypeLeaveRace:
		c.handleLeave()

	default:
		c.Send(c.server.protocol.EncodeError(network.ErrorCodeInvalidMessage, "unknown message"))
	}
}

func (c *ClientConnection) handleJoin(data []byte) {
	msg, err := c.server.protocol.DecodeJoin(data)
	if err != nil {
		c.log.Warn().Err(err).Msg("invalid join message")
		c.Send(c.server.protocol.EncodeError(network.ErrorCodeInvalidMessage, "invalid join"))
		return
	}

	c.handleLeave()

	setup, err := c.server.joinSetup(msg)
	if err != nil {
		c.log.Warn().Err(err).Str("profile", msg.Name).Int("car", int(msg.Car)).Msg("car not available")
		c.Send(c.server.protocol.EncodeError(network.ErrorCodeInvalidMessage, err.Error()))
		return
	}

	room, err := c.server.lobby.Open(setup, c)
	if err != nil {
		code := network.ErrorCodeServerError
		if errors.Is(err, lobby.ErrLobbyFull) {
			code = network.ErrorCodeLobbyFull
		}
		c.Send(c.server.protocol.EncodeError(code, err.Error()))
		return
	}

	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
	c.log.Info().Str("profile", setup.Name).Int("car", setup.CarIndex).Str("room", room.ID).Msg("joined race")
}

// joinSetup resolves a join against the player's garage. A join naming
// network.CarSelected races the profile's selected car.
func (s *RaceServer) joinSetup(msg *network.JoinMessage) (lobby.RaceSetup, error) {
	name := sanitizeName(msg.Name)
	carIndex := int(msg.Car)
	if msg.Car == network.CarSelected {
		profile, err := s.garage.Profile(name)
		if err != nil {
			return lobby.RaceSetup{}, err
		}
		carIndex = profile.SelectedCar
	}

	stats, err := s.garage.ProfileStats(name, carIndex)
	if err != nil {
		return lobby.RaceSetup{}, err
	}

	difficulty := msg.Difficulty
	if difficulty == "" {
		difficulty = s.config.Difficulty
	}

	return lobby.RaceSetup{
		Name:       name,
		CarIndex:   carIndex,
		Stats:      stats,
		Track:      int(msg.Track),
		Difficulty: difficulty,
		Opponents:  s.config.Opponents,
		Tuning:     s.tuning,
	}, nil
}

func (c *ClientConnection) handleInput(data []byte) {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if room == nil {
		return
	}

	msg, err := c.server.protocol.DecodeInput(data)
	if err != nil {
		return
	}
	room.HandleInput(msg)
}

func (c *ClientConnection) handlePing(data []byte) {
	msg, err := c.server.protocol.DecodePing(data)
	if err != nil {
		return
	}
	c.Send(c.server.protocol.EncodePong(msg.Timestamp))
}

func (c *ClientConnection) handleLeave() {
	c.mu.Lock()
	room := c.room
	c.room = nil
	c.mu.Unlock()

	if room != nil {
		c.server.lobby.Remove(room.ID)
	}
}

// cleanup runs once per pump; the second call finds everything released.
func (c *ClientConnection) cleanup() {
	c.server.mu.Lock()
	delete(c.server.connections, c)
	c.server.mu.Unlock()

	c.handleLeave()
	c.Close()
	c.log.Debug().Msg("connection closed")
}

// sanitizeName trims and bounds a player name to maxNameLength runes.
func sanitizeName(name string) string {
	name = strings.TrimSpace(strings.ToValidUTF8(name, ""))
	if name == "" {
		name = "Player"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
