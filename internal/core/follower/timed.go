package follower

import (
	"context"
	"time"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/kinematics"
)

// TimedFollower applies a fixed transform for a fixed duration, then halts.
// Useful for open loop nudges and for backing off an obstacle.
type TimedFollower struct {
	Base

	drive    drivetrain.Drive
	command  kinematics.ChassisTransform
	duration time.Duration
	now      func() time.Time
	deadline time.Time
}

func NewTimedFollower(drive drivetrain.Drive, command kinematics.ChassisTransform, duration time.Duration) (*TimedFollower, error) {
	if drive == nil {
		return nil, ErrNilDrive
	}
	return &TimedFollower{
		Base:     NewBase("timed", 0),
		drive:    drive,
		command:  command,
		duration: duration,
		now:      time.Now,
	}, nil
}

// Calculate starts the clock, so queued time does not count.
func (f *TimedFollower) Calculate(context.Context) error {
	f.deadline = f.now().Add(f.duration)
	return nil
}

func (f *TimedFollower) Update(context.Context) error {
	if f.deadline.IsZero() {
		return ErrNotCalculated
	}
	if !f.now().Before(f.deadline) {
		f.Finish()
	}
	return nil
}

func (f *TimedFollower) Drive(context.Context) error {
	if f.Done() {
		return f.drive.Halt()
	}
	return f.drive.Drive(f.command)
}
