package network

// Message types
const (
	// Client -> Server
	MsgTypeInput     uint8 = 0x01
	MsgTypeJoinRace  uint8 = 0x02
	MsgTypeLeaveRace uint8 = 0x03
	MsgTypePing      uint8 = 0x04

	// Server -> Client
	MsgTypeRaceState  uint8 = 0x10
	MsgTypeRaceEvent  uint8 = 0x11
	MsgTypeRaceResult uint8 = 0x12
	MsgTypeRaceInfo   uint8 = 0x14
	MsgTypePong       uint8 = 0x15
	MsgTypeError      uint8 = 0xFF
)

// Vehicle flags
const (
	FlagGhost    uint8 = 1 << 0
	FlagDrifting uint8 = 1 << 1
	FlagFinished uint8 = 1 << 2
	FlagAI       uint8 = 1 << 3
)

// Key flags (bit field)
const (
	KeyUp    uint8 = 1 << 0
	KeyDown  uint8 = 1 << 1
	KeyLeft  uint8 = 1 << 2
	KeyRight uint8 = 1 << 3
)

// Input flags
const (
	InputFlagPause  uint8 = 1 << 0
	InputFlagResume uint8 = 1 << 1
)

// Sizes of the fixed-width messages
const (
	inputSize        = 4
	pingSize         = 9
	stateHeaderSize  = 8
	vehicleStateSize = 16
	eventSize        = 12
	standingSize     = 8
)

// Difficulties indexes the difficulty byte of a join message.
var Difficulties = []string{"easy", "medium", "hard", "extreme"}

// InputMessage from client (4 bytes)
type InputMessage struct {
	MsgType  uint8
	Sequence uint8
	Keys     uint8
	Flags    uint8
}

// CarSelected in a join message races the profile's selected car.
const CarSelected uint8 = 0xFF

// JoinMessage from client
type JoinMessage struct {
	MsgType    uint8
	Name       string
	Car        uint8
	Track      uint8
	Difficulty string
}

// PingMessage from client
type PingMessage struct {
	MsgType   uint8
	Timestamp uint64
}

// VehicleStateData in a race state update (16 bytes per vehicle)
type VehicleStateData struct {
	ID      uint16
	X       float32
	Y       float32
	Heading int16  // radians scaled by 10000
	Speed   uint16 // scaled by 100
	Lap     uint8
	Flags   uint8
}

// RaceStateMessage to client
type RaceStateMessage struct {
	MsgType   uint8
	Tick      uint16
	Lap       uint8
	TotalLaps uint8
	Position  uint8
	Paused    bool
	Vehicles  []VehicleStateData
}

// RaceEventMessage to client (12 bytes)
type RaceEventMessage struct {
	MsgType    uint8
	Kind       uint8
	Vehicle    uint16
	Other      uint16
	Checkpoint uint8
	Lap        uint8
	Time       float32
}

// StandingData in a race result (8 bytes per entry)
type StandingData struct {
	Position uint8
	Vehicle  uint16
	Flags    uint8
	Reward   uint32
}

// Error codes
const (
	ErrorCodeInvalidMessage uint8 = 1
	ErrorCodeLobbyFull      uint8 = 2
	ErrorCodeKicked         uint8 = 3
	ErrorCodeServerError    uint8 = 4
)
