package network

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/race/horizon/internal/game"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrBufferTooSmall = errors.New("buffer too small")
)

// Protocol handles binary encoding/decoding
type Protocol struct{}

// NewProtocol creates a new protocol handler
func NewProtocol() *Protocol {
	return &Protocol{}
}

// DecodeInput decodes a client input message (4 bytes)
func (p *Protocol) DecodeInput(data []byte) (*InputMessage, error) {
	if len(data) < inputSize {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeInput {
		return nil, ErrInvalidMessage
	}

	return &InputMessage{
		MsgType:  data[0],
		Sequence: data[1],
		Keys:     data[2],
		Flags:    data[3],
	}, nil
}

// DecodeJoin decodes a join message:
// type, name length, name, car index, track index, difficulty index.
func (p *Protocol) DecodeJoin(data []byte) (*JoinMessage, error) {
	if len(data) < 2 {
		return nil, ErrBufferTooSmall
	}

	if data[0] != MsgTypeJoinRace {
		return nil, ErrInvalidMessage
	}

	nameLen := int(data[1])
	if len(data) < 2+nameLen+3 {
		return nil, ErrBufferTooSmall
	}

	offset := 2 + nameLen
	diff := int(data[offset+2])
	if diff >= len(Difficulties) {
		return nil, errors.Wrapf(ErrInvalidMessage, "difficulty %d", diff)
	}

	return &JoinMessage{
		MsgType:    data[0],
		Name:       string(data[2:offset]),
		Car:        data[offset],
		Track:      data[offset+1],
		Difficulty: Difficulties[diff],
	}, nil
}

// DecodePing decodes a ping message
func (p *Protocol) DecodePing(data []byte) (*PingMessage, error) {
	if len(data) < pingSize {
		return nil, ErrBufferTooSmall
	}
	if data[0] != MsgTypePing {
		return nil, ErrInvalidMessage
	}
	return &PingMessage{MsgType: data[0], Timestamp: binary.LittleEndian.Uint64(data[1:9])}, nil
}

// EncodeRaceState encodes a tick report as seen by the player
func (p *Protocol) EncodeRaceState(r game.TickReport, paused bool) []byte {
	count := len(r.Vehicles)
	if count > 255 {
		count = 255
	}

	// Header: 8 bytes + 16 bytes per vehicle
	buf := make([]byte, stateHeaderSize+count*vehicleStateSize)

	buf[0] = MsgTypeRaceState
	binary.LittleEndian.PutUint16(buf[1:3], uint16(r.Tick))
	buf[3] = clampByte(r.Lap)
	buf[4] = clampByte(r.TotalLaps)
	buf[5] = clampByte(r.Position)
	if paused {
		buf[6] = 1
	}
	buf[7] = uint8(count)

	offset := stateHeaderSize
	for i := 0; i < count; i++ {
		p.encodeVehicleState(buf[offset:], ConvertToVehicleStateData(r.Vehicles[i]))
		offset += vehicleStateSize
	}

	return buf
}

// encodeVehicleState encodes a single vehicle (16 bytes)
func (p *Protocol) encodeVehicleState(buf []byte, v VehicleStateData) {
	binary.LittleEndian.PutUint16(buf[0:2], v.ID)
	binary.LittleEndian.PutUint32(buf[2:6], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(buf[6:10], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(v.Heading))
	binary.LittleEndian.PutUint16(buf[12:14], v.Speed)
	buf[14] = v.Lap
	buf[15] = v.Flags
}

// EncodeEvent encodes one race event (12 bytes)
func (p *Protocol) EncodeEvent(e game.Event) []byte {
	buf := make([]byte, eventSize)
	buf[0] = MsgTypeRaceEvent
	buf[1] = uint8(e.Kind)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(e.Vehicle))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(e.Other))
	buf[6] = clampByte(e.Checkpoint)
	buf[7] = clampByte(e.Lap)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(float32(e.Time)))
	return buf
}

// EncodeRaceResult encodes the final standings
func (p *Protocol) EncodeRaceResult(standings []game.Standing) []byte {
	count := len(standings)
	if count > 255 {
		count = 255
	}

	buf := make([]byte, 2+count*standingSize)
	buf[0] = MsgTypeRaceResult
	buf[1] = uint8(count)

	offset := 2
	for _, st := range standings[:count] {
		buf[offset] = clampByte(st.Position)
		binary.LittleEndian.PutUint16(buf[offset+1:offset+3], uint16(st.Vehicle))
		if st.Finished {
			buf[offset+3] |= FlagFinished
		}
		if st.Controller == game.ControllerAI {
			buf[offset+3] |= FlagAI
		}
		binary.LittleEndian.PutUint32(buf[offset+4:offset+8], uint32(max(st.Reward, 0)))
		offset += standingSize
	}
	return buf
}

// EncodeRaceInfo encodes race info message
func (p *Protocol) EncodeRaceInfo(raceID string, track, totalLaps, vehicleCount uint8, yourID uint16) []byte {
	raceIDBytes := []byte(raceID)
	if len(raceIDBytes) > 255 {
		raceIDBytes = raceIDBytes[:255]
	}

	buf := make([]byte, 7+len(raceIDBytes))
	buf[0] = MsgTypeRaceInfo
	buf[1] = uint8(len(raceIDBytes))
	copy(buf[2:], raceIDBytes)
	offset := 2 + len(raceIDBytes)
	buf[offset] = track
	buf[offset+1] = totalLaps
	buf[offset+2] = vehicleCount
	binary.LittleEndian.PutUint16(buf[offset+3:], yourID)

	return buf
}

// EncodePong encodes a pong message
func (p *Protocol) EncodePong(timestamp uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = MsgTypePong
	binary.LittleEndian.PutUint64(buf[1:9], timestamp)
	return buf
}

// EncodeError encodes an error message
func (p *Protocol) EncodeError(code uint8, message string) []byte {
	msgBytes := []byte(message)
	if len(msgBytes) > 255 {
		msgBytes = msgBytes[:255]
	}

	buf := make([]byte, 3+len(msgBytes))
	buf[0] = MsgTypeError
	buf[1] = code
	buf[2] = uint8(len(msgBytes))
	copy(buf[3:], msgBytes)

	return buf
}

// InputFromKeys maps the key bit field onto driver intent.
func InputFromKeys(keys uint8) game.InputRecord {
	return game.InputRecord{
		Accelerate: keys&KeyUp != 0,
		Brake:      keys&KeyDown != 0,
		TurnLeft:   keys&KeyLeft != 0,
		TurnRight:  keys&KeyRight != 0,
	}
}

// ConvertToVehicleStateData converts a vehicle snapshot to network format
func ConvertToVehicleStateData(v game.VehicleState) VehicleStateData {
	flags := uint8(0)
	if v.Ghost {
		flags |= FlagGhost
	}
	if v.Drift.Drifting {
		flags |= FlagDrifting
	}
	if v.Finished {
		flags |= FlagFinished
	}
	if v.Controller == game.ControllerAI {
		flags |= FlagAI
	}

	return VehicleStateData{
		ID:      uint16(v.ID),
		X:       float32(v.Pos.X()),
		Y:       float32(v.Pos.Y()),
		Heading: int16(math.Round(v.Heading * 10000)),
		Speed:   uint16(math.Min(math.Round(v.Speed*100), math.MaxUint16)),
		Lap:     clampByte(v.Lap),
		Flags:   flags,
	}
}

func clampByte(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
