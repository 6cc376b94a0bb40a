package drivetrain

import (
	"time"

	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
)

var _ PositionSource = (*SimChassis)(nil)

// SimChassis moves a simulated body by what its actuators are doing. Each
// Update reads the simulated wheels, runs forward kinematics and integrates
// the result, so a drive only moves the chassis once its wheels actually
// point the right way.
type SimChassis struct {
	body   *Sim
	wheels func() kinematics.ChassisTransform
}

// NewSimSwerveChassis integrates four simulated swerve modules in FL, FR,
// BL, BR order.
func NewSimSwerveChassis(kin *kinematics.Swerve, modules [4]*SimModule, cfg SimConfig, start geometry.HeadingPoint) *SimChassis {
	return newSimChassis(cfg, start, func() kinematics.ChassisTransform {
		var state kinematics.ChassisState
		for i, m := range modules {
			state[i] = kinematics.WheelState{Power: m.DrivePower(), Angle: m.Angle()}
		}
		return kin.ToChassisTransform(state)
	})
}

// NewSimMeccanumChassis integrates four simulated meccanum wheel motors in
// FL, FR, BL, BR order. Full turn power spins the body at the configured
// max turn rate.
func NewSimMeccanumChassis(motors [4]*SimMotor, cfg SimConfig, start geometry.HeadingPoint) *SimChassis {
	c := newSimChassis(cfg, start, nil)
	maxTurnRate := c.body.cfg.MaxTurnRate
	c.wheels = func() kinematics.ChassisTransform {
		var state kinematics.ChassisState
		for i, m := range motors {
			state[i].Power = m.Power()
		}
		move, turn := kinematics.MeccanumMotion(state)
		return kinematics.ChassisTransform{DX: move.X, DY: move.Y, DTheta: geometry.Radians(turn * maxTurnRate)}
	}
	return c
}

func newSimChassis(cfg SimConfig, start geometry.HeadingPoint, wheels func() kinematics.ChassisTransform) *SimChassis {
	cfg.HeadingMode = HeadingRate
	return &SimChassis{body: NewSim(cfg, start), wheels: wheels}
}

func (c *SimChassis) Position() geometry.HeadingPoint { return c.body.Position() }

// Update applies the current wheel output for one simulation step.
func (c *SimChassis) Update() error {
	if err := c.body.Drive(c.wheels()); err != nil {
		return err
	}
	return c.body.Update()
}

// Now is the simulated clock: a fixed epoch plus the integrated time.
func (c *SimChassis) Now() time.Time {
	return time.Unix(0, 0).Add(c.body.Elapsed())
}

// Body exposes the underlying integrator.
func (c *SimChassis) Body() *Sim { return c.body }
