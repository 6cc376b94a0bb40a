// Package drivetrain is the actuation and sensing boundary of the chassis.
package drivetrain

import (
	"errors"
	"sync/atomic"

	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
)

var (
	ErrNilModule = errors.New("drivetrain module is nil")
	ErrNilMotor  = errors.New("drivetrain motor is nil")
)

// Drive applies motion commands to the chassis. Implementations must be
// idempotent and cheap enough to call every tick.
//
// While user control is disabled the execution engine owns the drive and no
// other caller may command it.
type Drive interface {
	EnableUserControl()
	DisableUserControl()
	UserControlEnabled() bool

	// Drive applies a robot-relative transform.
	Drive(t kinematics.ChassisTransform) error
	// DrivePolar translates at power toward angle degrees, robot-relative.
	DrivePolar(power, angle float64) error
	// Halt commands zero power on every wheel.
	Halt() error
}

// PositionSource reports where the chassis is on the field.
type PositionSource interface {
	Position() geometry.HeadingPoint
	Update() error
}

// Motor is a single power-controlled actuator.
type Motor interface {
	SetPower(power float64) error
}

// SwerveModule is one steerable wheel: a drive motor, a turn motor and an
// absolute angle sensor reporting degrees.
type SwerveModule interface {
	Angle() float64
	SetTurnPower(power float64) error
	SetDrivePower(power float64) error
}

// userControl is embedded by drives to track manual control ownership.
type userControl struct {
	enabled atomic.Bool
}

func (u *userControl) EnableUserControl()       { u.enabled.Store(true) }
func (u *userControl) DisableUserControl()      { u.enabled.Store(false) }
func (u *userControl) UserControlEnabled() bool { return u.enabled.Load() }
