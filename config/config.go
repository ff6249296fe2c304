package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Simulation constants. Velocities are expressed in world units per frame unit,
// so a vehicle with speed 10 covers 600 units per second at the nominal rate.
const (
	// Timing
	PhysicsTickRate      = 60 // Hz
	NetworkBroadcastRate = 20 // Hz
	FrameUnit            = 1.0 / float64(PhysicsTickRate)
	MaxFrameStep         = 2.0 // frame units per tick

	// Dimensions
	VehicleRadius    = 20.0
	CheckpointRadius = 50.0
	ViewportWidth    = 1280.0
	ViewportHeight   = 720.0

	// Track boundary scale factors applied to the ellipse radii
	InnerRadiusScale = 0.6
	OuterRadiusScale = 1.4

	// Race defaults
	DefaultTotalLaps     = 3
	DefaultOpponentCount = 5
	MaxOpponents         = 5 // the starting grid has six slots

	// Room settings
	MaxRoomsPerServer = 50

	// Sanity
	SpeedTolerance = 1.001
)

const configFileName = "horizon.json"

// Tuning holds every coefficient the simulation core reads.
type Tuning struct {
	// Integrator
	GlobalMaxSpeed   float64 `mapstructure:"globalMaxSpeed"`
	BaseAcceleration float64 `mapstructure:"baseAcceleration"`
	BaseTurnRate     float64 `mapstructure:"baseTurnRate"`
	BaseBrakeFactor  float64 `mapstructure:"baseBrakeFactor"`
	Friction         float64 `mapstructure:"friction"`
	AirResistance    float64 `mapstructure:"airResistance"`
	TurnMinSpeed     float64 `mapstructure:"turnMinSpeed"`
	VelocityNudge    float64 `mapstructure:"velocityNudge"`
	AIHeadingLerp    float64 `mapstructure:"aiHeadingLerp"`
	AIHeadingSpeed   float64 `mapstructure:"aiHeadingSpeed"`

	// Collision and boundary
	VehicleRadius   float64 `mapstructure:"vehicleRadius"`
	Restitution     float64 `mapstructure:"restitution"`
	OffTrackDamping float64 `mapstructure:"offTrackDamping"`

	// Drift
	DriftMinSpeed     float64 `mapstructure:"driftMinSpeed"`
	DriftAngle        float64 `mapstructure:"driftAngle"`
	DriftScoreFactor  float64 `mapstructure:"driftScoreFactor"`
	DriftGripAngle    float64 `mapstructure:"driftGripAngle"`
	DriftGripMax      float64 `mapstructure:"driftGripMax"`
	DriftGripLoss     float64 `mapstructure:"driftGripLoss"`
	DriftSustainedSec float64 `mapstructure:"driftSustainedSec"`

	// Progression
	CheckpointRadius      float64 `mapstructure:"checkpointRadius"`
	StrictCheckpointOrder bool    `mapstructure:"strictCheckpointOrder"`
	TotalLaps             int     `mapstructure:"totalLaps"`

	// AI steering
	AIArrivalRadius   float64 `mapstructure:"aiArrivalRadius"`
	AIDeadZone        float64 `mapstructure:"aiDeadZone"`
	AISharpTurnAngle  float64 `mapstructure:"aiSharpTurnAngle"`
	AISharpTurnSpeed  float64 `mapstructure:"aiSharpTurnSpeed"`
	AIAvoidRadius     float64 `mapstructure:"aiAvoidRadius"`
	AIPanicRadius     float64 `mapstructure:"aiPanicRadius"`
	AILastWinsAvoid   bool    `mapstructure:"aiLastWinsAvoid"`
	AITargetLookahead int     `mapstructure:"aiTargetLookahead"`
}

// DefaultTuning returns the coefficients the game ships with.
func DefaultTuning() Tuning {
	return Tuning{
		GlobalMaxSpeed:   10,
		BaseAcceleration: 0.1,
		BaseTurnRate:     0.05,
		BaseBrakeFactor:  0.95,
		Friction:         0.95,
		AirResistance:    0.99,
		TurnMinSpeed:     0.01,
		VelocityNudge:    0.1,
		AIHeadingLerp:    0.05,
		AIHeadingSpeed:   0.1,

		VehicleRadius:   VehicleRadius,
		Restitution:     0.8,
		OffTrackDamping: 0.9,

		DriftMinSpeed:     1.0,
		DriftAngle:        0.3,
		DriftScoreFactor:  10,
		DriftGripAngle:    1.5,
		DriftGripMax:      0.7,
		DriftGripLoss:     0.1,
		DriftSustainedSec: 5,

		CheckpointRadius:      CheckpointRadius,
		StrictCheckpointOrder: false,
		TotalLaps:             DefaultTotalLaps,

		AIArrivalRadius:   30,
		AIDeadZone:        0.1,
		AISharpTurnAngle:  0.8,
		AISharpTurnSpeed:  2,
		AIAvoidRadius:     80,
		AIPanicRadius:     50,
		AILastWinsAvoid:   false,
		AITargetLookahead: 0,
	}
}

// ServerConfig is the host configuration for cmd/raceserver.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableCORS bool   `mapstructure:"enableCors"`
	LogLevel   string `mapstructure:"logLevel"`
	GaragePath string `mapstructure:"garagePath"`
	Difficulty string `mapstructure:"difficulty"`
	Opponents  int    `mapstructure:"opponents"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:       "0.0.0.0",
		Port:       8080,
		EnableCORS: true,
		LogLevel:   "info",
		GaragePath: "./garage.db",
		Difficulty: "medium",
		Opponents:  DefaultOpponentCount,
	}
}

func setDefaults() {
	srv := DefaultServerConfig()
	viper.SetDefault("server.host", srv.Host)
	viper.SetDefault("server.port", srv.Port)
	viper.SetDefault("server.enableCors", srv.EnableCORS)
	viper.SetDefault("server.logLevel", srv.LogLevel)
	viper.SetDefault("server.garagePath", srv.GaragePath)
	viper.SetDefault("server.difficulty", srv.Difficulty)
	viper.SetDefault("server.opponents", srv.Opponents)

	t := DefaultTuning()
	viper.SetDefault("tuning.globalMaxSpeed", t.GlobalMaxSpeed)
	viper.SetDefault("tuning.baseAcceleration", t.BaseAcceleration)
	viper.SetDefault("tuning.baseTurnRate", t.BaseTurnRate)
	viper.SetDefault("tuning.baseBrakeFactor", t.BaseBrakeFactor)
	viper.SetDefault("tuning.friction", t.Friction)
	viper.SetDefault("tuning.airResistance", t.AirResistance)
	viper.SetDefault("tuning.turnMinSpeed", t.TurnMinSpeed)
	viper.SetDefault("tuning.velocityNudge", t.VelocityNudge)
	viper.SetDefault("tuning.aiHeadingLerp", t.AIHeadingLerp)
	viper.SetDefault("tuning.aiHeadingSpeed", t.AIHeadingSpeed)
	viper.SetDefault("tuning.vehicleRadius", t.VehicleRadius)
	viper.SetDefault("tuning.restitution", t.Restitution)
	viper.SetDefault("tuning.offTrackDamping", t.OffTrackDamping)
	viper.SetDefault("tuning.driftMinSpeed", t.DriftMinSpeed)
	viper.SetDefault("tuning.driftAngle", t.DriftAngle)
	viper.SetDefault("tuning.driftScoreFactor", t.DriftScoreFactor)
	viper.SetDefault("tuning.driftGripAngle", t.DriftGripAngle)
	viper.SetDefault("tuning.driftGripMax", t.DriftGripMax)
	viper.SetDefault("tuning.driftGripLoss", t.DriftGripLoss)
	viper.SetDefault("tuning.driftSustainedSec", t.DriftSustainedSec)
	viper.SetDefault("tuning.checkpointRadius", t.CheckpointRadius)
	viper.SetDefault("tuning.strictCheckpointOrder", t.StrictCheckpointOrder)
	viper.SetDefault("tuning.totalLaps", t.TotalLaps)
	viper.SetDefault("tuning.aiArrivalRadius", t.AIArrivalRadius)
	viper.SetDefault("tuning.aiDeadZone", t.AIDeadZone)
	viper.SetDefault("tuning.aiSharpTurnAngle", t.AISharpTurnAngle)
	viper.SetDefault("tuning.aiSharpTurnSpeed", t.AISharpTurnSpeed)
	viper.SetDefault("tuning.aiAvoidRadius", t.AIAvoidRadius)
	viper.SetDefault("tuning.aiPanicRadius", t.AIPanicRadius)
	viper.SetDefault("tuning.aiLastWinsAvoid", t.AILastWinsAvoid)
	viper.SetDefault("tuning.aiTargetLookahead", t.AITargetLookahead)
}

// Load registers defaults, binds HORIZON_* environment variables and reads
// horizon.json from configDir when it exists.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix("horizon")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	path := filepath.Join(configDir, configFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat config file %s", path)
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return errors.Wrap(err, "error reading config file")
	}
	return nil
}

// TuningFromViper decodes the tuning section into a Tuning value.
func TuningFromViper() (Tuning, error) {
	t := DefaultTuning()
	if err := viper.UnmarshalKey("tuning", &t); err != nil {
		return DefaultTuning(), errors.Wrap(err, "decode tuning")
	}
	return t, nil
}

// ServerFromViper decodes the server section into a ServerConfig.
func ServerFromViper() (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := viper.UnmarshalKey("server", cfg); err != nil {
		return nil, errors.Wrap(err, "decode server config")
	}
	return cfg, nil
}
