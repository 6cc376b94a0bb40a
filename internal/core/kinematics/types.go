// Package kinematics maps chassis motion onto per-wheel actuator states for
// swerve and meccanum drivetrains. Everything here is pure and safe to call
// from any goroutine.
package kinematics

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGeometry = errors.New("invalid chassis geometry")
	ErrInvalidGains    = errors.New("invalid controller gains")
)

// Wheel indexes a ChassisState. The FL, FR, BL, BR order is fixed.
type Wheel int

const (
	FrontLeft Wheel = iota
	FrontRight
	BackLeft
	BackRight
)

var wheelNames = [4]string{"front_left", "front_right", "back_left", "back_right"}

func (w Wheel) String() string {
	if w < 0 || int(w) >= len(wheelNames) {
		return fmt.Sprintf("wheel(%d)", int(w))
	}
	return wheelNames[w]
}

// WheelState is the command for one wheel. Power is in [-1, 1]. Angle is the
// module heading in degrees in [0, 360) and is unused on meccanum wheels.
type WheelState struct {
	Power float64 `json:"power" yaml:"power"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// ChassisState holds one WheelState per wheel, indexed by Wheel.
type ChassisState [4]WheelState

// Powers returns the four wheel powers in FL, FR, BL, BR order.
func (c ChassisState) Powers() [4]float64 {
	return [4]float64{c[FrontLeft].Power, c[FrontRight].Power, c[BackLeft].Power, c[BackRight].Power}
}

// Angles returns the four module angles in FL, FR, BL, BR order.
func (c ChassisState) Angles() [4]float64 {
	return [4]float64{c[FrontLeft].Angle, c[FrontRight].Angle, c[BackLeft].Angle, c[BackRight].Angle}
}

// ChassisTransform is a robot-relative motion request.
//
// DX and DY are the requested translation, with magnitude 1 meaning full
// power. DTheta depends on the drivetrain: swerve kinematics read it as a
// turn rate in radians per unit time, while the meccanum drive reads it as
// the absolute heading in degrees the chassis should face.
type ChassisTransform struct {
	DX     float64 `json:"dx" yaml:"dx"`
	DY     float64 `json:"dy" yaml:"dy"`
	DTheta float64 `json:"dtheta" yaml:"dtheta"`
}

func (t ChassisTransform) IsZero() bool { return t.DX == 0 && t.DY == 0 && t.DTheta == 0 }
