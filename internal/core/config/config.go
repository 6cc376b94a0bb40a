// Package config holds the YAML configuration of the motion planner.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/execution"
	"github.com/zeusync/motion/internal/core/follower"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
	"github.com/zeusync/motion/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid config")

// Chassis types.
const (
	ChassisSwerve   = "swerve"
	ChassisMeccanum = "meccanum"
)

// Strategy names accepted in pathing.strategies.
const (
	StrategyGrid     = "grid"
	StrategyStraight = "straight"
)

type Config struct {
	Log        log.Config                `json:"log" yaml:"log"`
	Chassis    ChassisConfig             `json:"chassis" yaml:"chassis"`
	Pathing    PathingConfig             `json:"pathing" yaml:"pathing"`
	Trajectory TrajectoryConfig          `json:"trajectory" yaml:"trajectory"`
	Follower   follower.TrajectoryConfig `json:"follower" yaml:"follower"`
	Execution  execution.Config          `json:"execution" yaml:"execution"`
	Sim        SimConfig                 `json:"sim" yaml:"sim"`
}

type ChassisConfig struct {
	Type       string                     `json:"type" yaml:"type"`
	TrackWidth float64                    `json:"track_width" yaml:"track_width"`
	WheelBase  float64                    `json:"wheel_base" yaml:"wheel_base"`
	Alignment  kinematics.AlignmentConfig `json:"alignment" yaml:"alignment"`
	// TurnGain and MaxTurn steer a meccanum chassis towards its target
	// heading.
	TurnGain float64 `json:"turn_gain" yaml:"turn_gain"`
	MaxTurn  float64 `json:"max_turn" yaml:"max_turn"`
}

type PathingConfig struct {
	// Strategies in priority order, highest first.
	Strategies []string         `json:"strategies" yaml:"strategies"`
	Bounds     *geometry.Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Grid       GridConfig       `json:"grid" yaml:"grid"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
}

type GridConfig struct {
	Origin    geometry.Point    `json:"origin" yaml:"origin"`
	CellSize  float64           `json:"cell_size" yaml:"cell_size"`
	Width     int               `json:"width" yaml:"width"`
	Height    int               `json:"height" yaml:"height"`
	Obstacles []geometry.Bounds `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
}

type CacheConfig struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	Resolution float64 `json:"resolution" yaml:"resolution"`
	Capacity   int     `json:"capacity" yaml:"capacity"`
}

type TrajectoryConfig struct {
	MaxCurvePoints   int `json:"max_curve_points" yaml:"max_curve_points"`
	SampleResolution int `json:"sample_resolution" yaml:"sample_resolution"`
}

type SimConfig struct {
	drivetrain.SimConfig `yaml:",inline"`
	Start                geometry.HeadingPoint `json:"start" yaml:"start"`
	// ModuleTurnRate is how many degrees a simulated swerve module turns per
	// tick at full turn power.
	ModuleTurnRate float64 `json:"module_turn_rate" yaml:"module_turn_rate"`
}

func Default() Config {
	c := Config{
		Log: log.DefaultConfig(),
		Chassis: ChassisConfig{
			Type:       ChassisSwerve,
			TrackWidth: 0.5,
			WheelBase:  0.5,
			Alignment:  kinematics.DefaultAlignmentConfig(),
			TurnGain:   0.02,
			MaxTurn:    0.5,
		},
		Pathing: PathingConfig{
			Strategies: []string{StrategyGrid, StrategyStraight},
			Grid: GridConfig{
				CellSize: 0.1,
				Width:    40,
				Height:   40,
			},
			Cache: CacheConfig{Enabled: true, Resolution: 0.01, Capacity: 128},
		},
		Trajectory: TrajectoryConfig{MaxCurvePoints: 8, SampleResolution: 32},
		Follower:   follower.DefaultTrajectoryConfig(),
		Execution:  execution.DefaultConfig(),
		Sim: SimConfig{
			SimConfig:      drivetrain.DefaultSimConfig(),
			ModuleTurnRate: 30,
		},
	}
	c.Normalize()
	return c
}

// HeadingMode is how a chassis of this type reads ChassisTransform.DTheta.
func (c ChassisConfig) HeadingMode() drivetrain.HeadingMode {
	if c.Type == ChassisMeccanum {
		return drivetrain.HeadingTarget
	}
	return drivetrain.HeadingRate
}

// Swerve builds the module layout from track width and wheel base.
func (c ChassisConfig) Swerve() (*kinematics.Swerve, error) {
	return kinematics.SquareSwerve(c.TrackWidth, c.WheelBase)
}

func (c ChassisConfig) Meccanum() kinematics.Meccanum {
	return kinematics.NewMeccanum(c.TurnGain, c.MaxTurn)
}

// Normalize makes the follower and the simulator agree with the chassis
// type. Configured heading_mode values are overwritten.
func (c *Config) Normalize() {
	mode := c.Chassis.HeadingMode()
	c.Follower.HeadingMode = mode
	c.Sim.HeadingMode = mode
}

// Validate reports every problem at once, each wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Chassis.Type {
	case ChassisSwerve:
		if !(c.Chassis.TrackWidth > 0) || !(c.Chassis.WheelBase > 0) {
			add("swerve track width and wheel base must be positive")
		} else if _, err := c.Chassis.Swerve(); err != nil {
			add("swerve: %v", err)
		}
		if !(c.Sim.ModuleTurnRate > 0) {
			add("sim module turn rate %v must be positive", c.Sim.ModuleTurnRate)
		}
		if err := c.Chassis.Alignment.Validate(); err != nil {
			add("alignment: %v", err)
		}
	case ChassisMeccanum:
		if c.Chassis.MaxTurn < 0 || c.Chassis.MaxTurn > 1 {
			add("meccanum max turn %v must be in [0, 1]", c.Chassis.MaxTurn)
		}
	default:
		add("unknown chassis type %q", c.Chassis.Type)
	}

	if len(c.Pathing.Strategies) == 0 {
		add("at least one pathing strategy is required")
	}
	seen := make(map[string]bool)
	for _, name := range c.Pathing.Strategies {
		switch strings.ToLower(name) {
		case StrategyGrid:
			g := c.Pathing.Grid
			if g.CellSize <= 0 || g.Width <= 0 || g.Height <= 0 {
				add("grid needs a positive cell size, width and height")
			}
		case StrategyStraight:
		default:
			add("unknown pathing strategy %q", name)
		}
		if seen[strings.ToLower(name)] {
			add("pathing strategy %q listed twice", name)
		}
		seen[strings.ToLower(name)] = true
	}
	if b := c.Pathing.Bounds; b != nil && (b.Min.X > b.Max.X || b.Min.Y > b.Max.Y) {
		add("pathing bounds min must not exceed max")
	}
	if c.Pathing.Cache.Enabled && (c.Pathing.Cache.Resolution <= 0 || c.Pathing.Cache.Capacity <= 0) {
		add("cache needs a positive resolution and capacity")
	}

	if c.Trajectory.MaxCurvePoints < 3 {
		add("trajectory max curve points %d must be at least 3", c.Trajectory.MaxCurvePoints)
	}
	if c.Trajectory.SampleResolution < 2 {
		add("trajectory sample resolution %d must be at least 2", c.Trajectory.SampleResolution)
	}

	f := c.Follower
	if f.Speed <= 0 || f.Speed > 1 {
		add("follower speed %v must be in (0, 1]", f.Speed)
	}
	if f.Tolerance <= 0 || f.Lookahead < 0 {
		add("follower tolerance must be positive and lookahead not negative")
	}
	if err := c.Execution.Validate(); err != nil {
		add("execution: %v", err)
	}
	return errors.Join(errs...)
}
