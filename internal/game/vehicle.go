package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/race/horizon/config"
	"github.com/race/horizon/internal/catalog"
)

// VehicleID identifies a vehicle within one session.
type VehicleID uint16

// Controller says who produces a vehicle's input.
type Controller uint8

const (
	ControllerPlayer Controller = iota
	ControllerAI
)

func (c Controller) String() string {
	if c == ControllerPlayer {
		return "player"
	}
	return "ai"
}

// Drivetrain bounds
const (
	IdleRPM      = 800.0
	RedlineRPM   = 8000.0
	rpmSpan      = 7200.0
	ShiftUpRPM   = 3000.0
	ShiftDownRPM = 1500.0
	rpmPerGear   = 1200.0
	TopGear      = 6
)

// InputRecord is one tick of driver intent.
type InputRecord struct {
	Accelerate bool `json:"accelerate"`
	Brake      bool `json:"brake"`
	TurnLeft   bool `json:"turnLeft"`
	TurnRight  bool `json:"turnRight"`
}

// Turn returns -1 for left, +1 for right and 0 when both or neither are held.
func (in InputRecord) Turn() float64 {
	t := 0.0
	if in.TurnRight {
		t++
	}
	if in.TurnLeft {
		t--
	}
	return t
}

// Idle reports whether no control is held.
func (in InputRecord) Idle() bool {
	return in == InputRecord{}
}

// Coefficients are the physics constants derived from a stat profile.
type Coefficients struct {
	MaxSpeed     float64
	Acceleration float64
	TurnRate     float64
	BrakeFactor  float64
}

// CoefficientsFor scales the tuning bases linearly by the 0-10 ratings.
// Missing or out-of-range ratings are normalized first.
func CoefficientsFor(stats catalog.Stats, t config.Tuning) Coefficients {
	s := stats.Normalize()
	return Coefficients{
		MaxSpeed:     float64(s.Speed) / 10 * t.GlobalMaxSpeed,
		Acceleration: float64(s.Acceleration) / 10 * t.BaseAcceleration,
		TurnRate:     float64(s.Handling) / 10 * t.BaseTurnRate,
		BrakeFactor:  float64(s.Braking) / 10 * t.BaseBrakeFactor,
	}
}

// Vehicle is the mutable per-race state of one car.
type Vehicle struct {
	// Identity
	ID         VehicleID
	Name       string
	Controller Controller
	Stats      catalog.Stats

	// State
	Pos        mgl64.Vec2
	Vel        mgl64.Vec2
	Heading    float64
	RPM        float64
	Gear       int
	Ghost      bool
	JumpHeight float64

	coeff   Coefficients
	effects []activeEffect

	// Sanity
	lastValid   mgl64.Vec2
	Corrections int
}

// NewVehicle creates a vehicle at rest.
func NewVehicle(id VehicleID, name string, ctrl Controller, stats catalog.Stats, pos mgl64.Vec2, heading float64, t config.Tuning) *Vehicle {
	stats = stats.Normalize()
	return &Vehicle{
		ID:         id,
		Name:       name,
		Controller: ctrl,
		Stats:      stats,
		Pos:        pos,
		Heading:    NormalizeAngle(heading),
		RPM:        IdleRPM,
		Gear:       1,
		coeff:      CoefficientsFor(stats, t),
		lastValid:  pos,
	}
}

// Speed is the velocity magnitude.
func (v *Vehicle) Speed() float64 {
	return v.Vel.Len()
}

// IsPlayer reports whether the vehicle is human controlled.
func (v *Vehicle) IsPlayer() bool {
	return v.Controller == ControllerPlayer
}

// Coefficients returns the stat-derived physics constants.
func (v *Vehicle) Coefficients() Coefficients {
	return v.coeff
}

// VelocityAngle is the direction of travel, or the heading when at rest.
func (v *Vehicle) VelocityAngle() float64 {
	return Bearing(v.Vel, v.Heading)
}

func (v *Vehicle) updateDrivetrain() {
	ratio := 0.0
	if v.coeff.MaxSpeed > 0 {
		ratio = v.Speed() / v.coeff.MaxSpeed
	}
	v.RPM = math.Min(IdleRPM+ratio*rpmSpan, RedlineRPM)

	switch {
	case v.RPM > ShiftUpRPM && v.Gear < TopGear:
		v.Gear = int(math.Min(math.Floor(v.RPM/rpmPerGear), TopGear))
	case v.RPM < ShiftDownRPM && v.Gear > 1:
		v.Gear = int(math.Max(math.Floor(v.RPM/rpmPerGear), 1))
	}
}

// VehicleState is a read-only snapshot of a vehicle
type VehicleState struct {
	ID             VehicleID
	Name           string
	Controller     Controller
	Pos            mgl64.Vec2
	Vel            mgl64.Vec2
	Heading        float64
	Speed          float64
	RPM            float64
	Gear           int
	Ghost          bool
	JumpHeight     float64
	Lap            int
	LastCheckpoint int
	Finished       bool
	Drift          DriftResult
	DriftTotal     float64
	Corrections    int
}

// State returns the physical part of the snapshot. Progression and drift
// fields are filled by the session.
func (v *Vehicle) State() VehicleState {
	return VehicleState{
		ID:             v.ID,
		Name:           v.Name,
		Controller:     v.Controller,
		Pos:            v.Pos,
		Vel:            v.Vel,
		Heading:        v.Heading,
		Speed:          v.Speed(),
		RPM:            v.RPM,
		Gear:           v.Gear,
		Ghost:          v.Ghost,
		JumpHeight:     v.JumpHeight,
		LastCheckpoint: -1,
		Corrections:    v.Corrections,
	}
}
