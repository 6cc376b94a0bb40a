package follower

import (
	"context"
	"fmt"
	"math"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/geometry"
)

// PointFollower drives straight at a single target with polar commands and
// no heading control. Power falls off linearly inside SlowdownDistance.
type PointFollower struct {
	Base

	target geometry.Point
	drive  drivetrain.Drive
	pos    drivetrain.PositionSource

	speed     float64
	tolerance float64
	slowdown  float64
	minPower  float64

	calculated bool
	power      float64
	angle      float64
}

func NewPointFollower(target geometry.Point, drive drivetrain.Drive, pos drivetrain.PositionSource, cfg TrajectoryConfig) (*PointFollower, error) {
	switch {
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
	return &PointFollower{
		Base:      NewBase("point", cfg.MaxTicks),
		target:    target,
		drive:     drive,
		pos:       pos,
		speed:     cfg.Speed,
		tolerance: cfg.Tolerance,
		slowdown:  cfg.SlowdownDistance,
		minPower:  cfg.MinPower,
	}, nil
}

func (f *PointFollower) Target() geometry.Point { return f.target }

func (f *PointFollower) Calculate(context.Context) error {
	if err := f.pos.Update(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	f.calculated = true
	return nil
}

func (f *PointFollower) Update(context.Context) error {
	if !f.calculated {
		return ErrNotCalculated
	}
	if err := f.pos.Update(); err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	here := f.pos.Position()
	remaining := here.Point.Distance(f.target)
	if remaining <= f.tolerance {
		f.power = 0
		f.Finish()
		return nil
	}
	f.power = f.speed
	if f.slowdown > 0 && remaining < f.slowdown {
		f.power = math.Max(f.minPower, f.speed*remaining/f.slowdown)
	}
	f.angle = geometry.Fix(geometry.Bearing(here.Point, f.target) - here.Heading)
	f.tick()
	return nil
}

func (f *PointFollower) Drive(context.Context) error {
	if f.Done() {
		return f.drive.Halt()
	}
	return f.drive.DrivePolar(f.power, f.angle)
}
