package lobby

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/race/horizon/config"
)

// Lobby owns the open rooms of a server.
type Lobby struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	maxRooms int

	log      zerolog.Logger
	onFinish func(Result)
}

// New creates a lobby holding at most maxRooms rooms. A non-positive limit
// uses config.MaxRoomsPerServer.
func New(log zerolog.Logger, maxRooms int) *Lobby {
	if maxRooms <= 0 {
		maxRooms = config.MaxRoomsPerServer
	}
	return &Lobby{
		rooms:    make(map[string]*Room),
		maxRooms: maxRooms,
		log:      log,
	}
}

// SetOnFinish sets the callback every room reports its result to.
func (l *Lobby) SetOnFinish(callback func(Result)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFinish = callback
}

// Open creates and starts a room for setup.
func (l *Lobby) Open(setup RaceSetup, conn Connection) (*Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.rooms) >= l.maxRooms {
		return nil, ErrLobbyFull
	}

	room, err := NewRoom(uuid.NewString(), setup, conn, l.log)
	if err != nil {
		return nil, err
	}
	room.SetOnFinish(l.onFinish)

	l.rooms[room.ID] = room
	room.metrics.roomDelta(context.Background(), 1)
	room.Start()

	return room, nil
}

// Room gets a room by ID
func (l *Lobby) Room(id string) *Room {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.rooms[id]
}

// Remove stops and forgets a room
func (l *Lobby) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if room, ok := l.rooms[id]; ok {
		l.removeLocked(room)
	}
}

// Cleanup removes every finished or stopped room
func (l *Lobby) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for _, room := range l.rooms {
		if room.Done() {
			l.removeLocked(room)
			removed++
		}
	}

	return removed
}

func (l *Lobby) removeLocked(room *Room) {
	room.Stop()
	delete(l.rooms, room.ID)
	room.metrics.roomDelta(context.Background(), -1)
}

// Stats returns lobby statistics
func (l *Lobby) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		TotalRooms: len(l.rooms),
		MaxRooms:   l.maxRooms,
		Rooms:      make([]RoomStats, 0, len(l.rooms)),
	}

	for id, room := range l.rooms {
		snap := room.Snapshot()
		if !room.Done() {
			stats.Racing++
		}
		stats.Rooms = append(stats.Rooms, RoomStats{
			ID:        id,
			Player:    room.setup.Name,
			Track:     room.setup.Track,
			Lap:       snap.Lap,
			TotalLaps: snap.TotalLaps,
			Position:  snap.Position,
			Vehicles:  len(snap.Vehicles),
			Phase:     snap.Phase.String(),
		})
	}

	return stats
}

// Stats contains lobby statistics
type Stats struct {
	TotalRooms int         `json:"rooms"`
	Racing     int         `json:"racing"`
	MaxRooms   int         `json:"maxRooms"`
	Rooms      []RoomStats `json:"details,omitempty"`
}

// RoomStats contains room statistics
type RoomStats struct {
	ID        string `json:"id"`
	Player    string `json:"player"`
	Track     int    `json:"track"`
	Lap       int    `json:"lap"`
	TotalLaps int    `json:"totalLaps"`
	Position  int    `json:"position"`
	Vehicles  int    `json:"vehicles"`
	Phase     string `json:"phase"`
}
