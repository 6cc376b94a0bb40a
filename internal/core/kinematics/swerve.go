package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/zeusync/motion/internal/core/geometry"
)

// Swerve holds the module offsets of a four module swerve chassis, measured
// from the center of rotation in FL, FR, BL, BR order.
type Swerve struct {
	modules [4]geometry.Point
}

// NewSwerve validates module offsets. Offsets must be distinct and not all
// at the center, otherwise the chassis cannot rotate.
func NewSwerve(modules [4]geometry.Point) (*Swerve, error) {
	centered := 0
	for i, m := range modules {
		if math.IsNaN(m.X) || math.IsNaN(m.Y) || math.IsInf(m.X, 0) || math.IsInf(m.Y, 0) {
			return nil, fmt.Errorf("%w: %s offset is not finite", ErrInvalidGeometry, Wheel(i))
		}
		if m.Norm() == 0 {
			centered++
		}
		for j := i + 1; j < len(modules); j++ {
			if m.Equal(modules[j]) {
				return nil, fmt.Errorf("%w: %s and %s share an offset", ErrInvalidGeometry, Wheel(i), Wheel(j))
			}
		}
	}
	if centered > 1 {
		return nil, fmt.Errorf("%w: modules collapsed onto the center", ErrInvalidGeometry)
	}
	return &Swerve{modules: modules}, nil
}

// SquareSwerve lays out four modules on a rectangle of the given track width
// (left to right) and wheelbase (front to back). +Y is forward, +X is right.
func SquareSwerve(trackWidth, wheelBase float64) (*Swerve, error) {
	x, y := trackWidth/2, wheelBase/2
	return NewSwerve([4]geometry.Point{
		FrontLeft:  {X: -x, Y: y},
		FrontRight: {X: x, Y: y},
		BackLeft:   {X: -x, Y: -y},
		BackRight:  {X: x, Y: -y},
	})
}

func (s *Swerve) Modules() [4]geometry.Point { return s.modules }

func (s *Swerve) ToWheelStates(t ChassisTransform, previous ChassisState) ChassisState {
	return ToWheelStates(t, s.modules, previous)
}

// ToWheelStates runs swerve inverse kinematics. Each wheel vector is the
// chassis translation plus the rotational velocity at the module offset.
// Speeds over 1 are scaled down together so the motion direction is kept.
// A zero request holds every module at its previous angle with zero power.
func ToWheelStates(t ChassisTransform, modules [4]geometry.Point, previous ChassisState) ChassisState {
	var out ChassisState
	if t.IsZero() {
		for i := range out {
			out[i] = WheelState{Power: 0, Angle: previous[i].Angle}
		}
		return out
	}

	speeds := make([]float64, len(modules))
	for i, m := range modules {
		vx := t.DX - t.DTheta*m.Y
		vy := t.DY + t.DTheta*m.X
		speeds[i] = math.Hypot(vx, vy)
		if speeds[i] == 0 {
			out[i].Angle = previous[i].Angle
		} else {
			out[i].Angle = geometry.Fix(geometry.Degrees(math.Atan2(vy, vx)))
		}
	}

	if peak := floats.Max(speeds); peak > 1 {
		floats.Scale(1/peak, speeds)
	}
	for i := range out {
		out[i].Power = speeds[i]
	}
	return out
}

// ToChassisTransform runs forward kinematics: the chassis motion that best
// explains the measured wheel states in the least squares sense. DTheta is in
// the same units ToWheelStates accepts.
func (s *Swerve) ToChassisTransform(states ChassisState) ChassisTransform {
	var (
		wheels   [4]geometry.Point
		centroid geometry.Point
		mean     geometry.Point
	)
	for i, m := range s.modules {
		sin, cos := math.Sincos(geometry.Radians(states[i].Angle))
		wheels[i] = geometry.Pt(states[i].Power*cos, states[i].Power*sin)
		mean = mean.Add(wheels[i])
		centroid = centroid.Add(m)
	}
	mean = mean.Scale(0.25)
	centroid = centroid.Scale(0.25)

	var torque, inertia float64
	for i, m := range s.modules {
		r := m.Sub(centroid)
		torque += r.X*wheels[i].Y - r.Y*wheels[i].X
		inertia += r.X*r.X + r.Y*r.Y
	}
	omega := torque / inertia
	return ChassisTransform{
		DX:     mean.X + omega*centroid.Y,
		DY:     mean.Y - omega*centroid.X,
		DTheta: omega,
	}
}

// Optimize flips a wheel command when reaching its angle would take more
// than a quarter turn from current. Driving backwards at angle+180 gives the
// same wheel vector with less steering.
func Optimize(target WheelState, current float64) WheelState {
	if math.Abs(geometry.MinimumAngleDelta(current, target.Angle)) <= 90+1e-9 {
		return target
	}
	return WheelState{Power: -target.Power, Angle: geometry.Fix(target.Angle + 180)}
}
