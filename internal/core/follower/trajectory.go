package follower

import (
	"context"
	"fmt"
	"math"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
	"github.com/zeusync/motion/internal/core/trajectory"
)

// TrajectoryConfig tunes a TrajectoryFollower.
type TrajectoryConfig struct {
	// Speed is the cruise power in (0, 1].
	Speed float64 `yaml:"speed"`
	// Lookahead is how far ahead of the projected position to steer.
	Lookahead float64 `yaml:"lookahead"`
	// Tolerance is the distance from the end that counts as arrived.
	Tolerance float64 `yaml:"tolerance"`
	// SlowdownDistance ramps power down linearly over the final stretch.
	SlowdownDistance float64 `yaml:"slowdown_distance"`
	// MinPower keeps the chassis moving against friction near the end.
	MinPower float64 `yaml:"min_power"`
	// HeadingMode selects how DTheta is produced for the drive.
	HeadingMode drivetrain.HeadingMode `yaml:"heading_mode"`
	// TurnGain converts heading error in degrees into a turn rate when
	// HeadingMode is HeadingRate.
	TurnGain float64 `yaml:"turn_gain"`
	// MaxTicks ends the follower after this many updates; 0 disables it.
	MaxTicks int `yaml:"max_ticks"`
}

func DefaultTrajectoryConfig() TrajectoryConfig {
	return TrajectoryConfig{
		Speed:            0.8,
		Lookahead:        0.3,
		Tolerance:        0.05,
		SlowdownDistance: 0.5,
		MinPower:         0.1,
		HeadingMode:      drivetrain.HeadingTarget,
		TurnGain:         2,
	}
}

// TrajectoryFollower chases a lookahead point along a trajectory while
// holding a target heading. If no heading is set the chassis keeps the
// heading it had when the follower was calculated.
type TrajectoryFollower struct {
	Base

	cfg     TrajectoryConfig
	traj    *trajectory.Trajectory
	drive   drivetrain.Drive
	pos     drivetrain.PositionSource
	heading *float64

	calculated bool
	step       float64
	progress   float64
	command    kinematics.ChassisTransform
}

func NewTrajectoryFollower(traj *trajectory.Trajectory, drive drivetrain.Drive, pos drivetrain.PositionSource, cfg TrajectoryConfig) (*TrajectoryFollower, error) {
	switch {
	case traj == nil:
		return nil, ErrNilTrajectory
	case drive == nil:
		return nil, ErrNilDrive
	case pos == nil:
		return nil, ErrNilPosition
	}
	if cfg.Speed <= 0 || cfg.Speed > 1 {
		return nil, fmt.Errorf("follower speed %v must be in (0, 1]", cfg.Speed)
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTrajectoryConfig().Tolerance
	}
	return &TrajectoryFollower{
		Base:  NewBase("trajectory", cfg.MaxTicks),
		cfg:   cfg,
		traj:  traj,
		drive: drive,
		pos:   pos,
	}, nil
}

// WithHeading sets the field heading in degrees to hold while following.
func (f *TrajectoryFollower) WithHeading(degrees float64) *TrajectoryFollower {
	h := geometry.Fix(degrees)
	f.heading = &h
	return f
}

func (f *TrajectoryFollower) Trajectory() *trajectory.Trajectory { return f.traj }

// Progress is the distance travelled along the trajectory so far.
func (f *TrajectoryFollower) Progress() float64 { return f.progress }

// Command is the transform produced by the last Update.
func (f *TrajectoryFollower) Command() kinematics.ChassisTransform { return f.command }

func (f *TrajectoryFollower) Calculate(context.Context) error {
	if err := f.pos.Update(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	here := f.pos.Position()
	if f.heading == nil {
		f.WithHeading(here.Heading)
	}
	f.step = math.Max(f.traj.Length()/500, f.cfg.Tolerance/4)
	f.progress = f.traj.Project(here.Point, 0, f.step)
	f.calculated = true
	return nil
}

func (f *TrajectoryFollower) Update(context.Context) error {
	if !f.calculated {
		return ErrNotCalculated
	}
	if err := f.pos.Update(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	here := f.pos.Position()

	// Search a little behind the last projection so a drift backwards is
	// still tracked.
	f.progress = f.traj.Project(here.Point, math.Max(0, f.progress-f.cfg.Lookahead), f.step)
	remaining := here.Point.Distance(f.traj.End())
	nearEnd := f.traj.Length()-f.progress <= f.cfg.Lookahead+f.cfg.Tolerance
	if remaining <= f.cfg.Tolerance && nearEnd {
		f.command = kinematics.ChassisTransform{DTheta: f.holdTheta(here.Heading)}
		f.Finish()
		return nil
	}

	target := f.traj.PointAt(f.progress + f.cfg.Lookahead)
	if f.traj.Length()-f.progress <= f.cfg.Lookahead {
		target = f.traj.End()
	}
	dir := target.Sub(here.Point)
	if n := dir.Norm(); n > 0 {
		dir = dir.Scale(1 / n)
	}

	power := f.cfg.Speed
	if f.cfg.SlowdownDistance > 0 && remaining < f.cfg.SlowdownDistance {
		power = math.Max(f.cfg.MinPower, f.cfg.Speed*remaining/f.cfg.SlowdownDistance)
	}
	local := dir.Rotate(-here.Heading).Scale(power)
	f.command = kinematics.ChassisTransform{DX: local.X, DY: local.Y, DTheta: f.holdTheta(here.Heading)}

	f.tick()
	return nil
}

func (f *TrajectoryFollower) Drive(context.Context) error {
	if f.Done() {
		return f.drive.Halt()
	}
	return f.drive.Drive(f.command)
}

func (f *TrajectoryFollower) holdTheta(current float64) float64 {
	if f.cfg.HeadingMode == drivetrain.HeadingRate {
		return f.cfg.TurnGain * geometry.Radians(geometry.MinimumAngleDelta(current, *f.heading))
	}
	return *f.heading
}
