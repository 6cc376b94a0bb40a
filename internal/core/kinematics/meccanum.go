package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/zeusync/motion/internal/core/geometry"
)

// MeccanumPowers are raw wheel powers in FR, FL, BR, BL order, the order the
// diagonal wheel pairs are derived in.
type MeccanumPowers [4]float64

const (
	mecFR = iota
	mecFL
	mecBR
	mecBL
)

// ToWheelPowers drives in direction angleDegrees at the given power. The
// diagonal pairs get power*cos(a+45) and power*sin(a+45); the result is then
// divided by its largest magnitude and rescaled by |power|, so the busiest
// wheel runs at exactly |power| and the pair ratio is preserved.
func ToWheelPowers(power, angleDegrees float64) MeccanumPowers {
	s, c := math.Sincos(geometry.Radians(angleDegrees + 45))
	raw := []float64{power * c, power * s, power * s, power * c}
	normalize(raw, math.Abs(power))
	return MeccanumPowers{raw[mecFR], raw[mecFL], raw[mecBR], raw[mecBL]}
}

// ToWheelPowersBetween drives along the bearing from a to b.
func ToWheelPowersBetween(a, b geometry.Point, power float64) MeccanumPowers {
	return ToWheelPowers(power, geometry.Bearing(a, b))
}

// WithTurn adds a rotation term, positive counter-clockwise, and rescales so
// no wheel exceeds 1.
func (m MeccanumPowers) WithTurn(turn float64) MeccanumPowers {
	raw := []float64{m[mecFR] + turn, m[mecFL] - turn, m[mecBR] + turn, m[mecBL] - turn}
	if peak := floats.Norm(raw, math.Inf(1)); peak > 1 {
		floats.Scale(1/peak, raw)
	}
	return MeccanumPowers{raw[0], raw[1], raw[2], raw[3]}
}

// ChassisState reorders the powers into the FL, FR, BL, BR contract.
func (m MeccanumPowers) ChassisState() ChassisState {
	return ChassisState{
		FrontLeft:  {Power: m[mecFL]},
		FrontRight: {Power: m[mecFR]},
		BackLeft:   {Power: m[mecBL]},
		BackRight:  {Power: m[mecBR]},
	}
}

// MeccanumMotion undoes the wheel mixing of ToWheelPowers and WithTurn. It
// returns the robot-relative translation and the turn power, positive
// counter-clockwise.
func MeccanumMotion(state ChassisState) (geometry.Point, float64) {
	fl, fr := state[FrontLeft].Power, state[FrontRight].Power
	bl, br := state[BackLeft].Power, state[BackRight].Power

	c := (fr + bl) / 2
	s := (fl + br) / 2
	turn := (fr + br - fl - bl) / 4

	magnitude := math.Max(math.Abs(c), math.Abs(s))
	if magnitude == 0 {
		return geometry.Point{}, turn
	}
	sin, cos := math.Sincos(math.Atan2(s, c) - math.Pi/4)
	return geometry.Pt(magnitude*cos, magnitude*sin), turn
}

// Meccanum converts chassis transforms for a meccanum drivetrain.
type Meccanum struct {
	// TurnGain converts heading error in degrees into turn power.
	TurnGain float64
	// MaxTurn bounds the turn power.
	MaxTurn float64
}

func NewMeccanum(turnGain, maxTurn float64) Meccanum {
	if maxTurn <= 0 || maxTurn > 1 {
		maxTurn = 1
	}
	return Meccanum{TurnGain: turnGain, MaxTurn: maxTurn}
}

// ToChassisState translates along (DX, DY) while turning toward the absolute
// heading DTheta from the current heading.
func (m Meccanum) ToChassisState(t ChassisTransform, heading float64) ChassisState {
	power := math.Min(1, math.Hypot(t.DX, t.DY))
	angle := 0.0
	if power > 0 {
		angle = geometry.Degrees(math.Atan2(t.DY, t.DX))
	}
	turn := m.TurnGain * geometry.MinimumAngleDelta(heading, t.DTheta)
	turn = math.Max(-m.MaxTurn, math.Min(m.MaxTurn, turn))
	return ToWheelPowers(power, angle).WithTurn(turn).ChassisState()
}

func normalize(values []float64, magnitude float64) {
	peak := floats.Norm(values, math.Inf(1))
	if peak == 0 {
		return
	}
	floats.Scale(magnitude/peak, values)
}
