package drivetrain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/motion/internal/core/kinematics"
)

var _ Drive = (*MeccanumDrive)(nil)

// MeccanumDrive powers four meccanum wheels. Transforms are interpreted with
// DTheta as the absolute heading to hold, read from the position source.
type MeccanumDrive struct {
	userControl

	mu     sync.Mutex
	motors [4]Motor
	kin    kinematics.Meccanum
	pos    PositionSource
	last   kinematics.ChassisState
}

func NewMeccanumDrive(motors [4]Motor, kin kinematics.Meccanum, pos PositionSource) (*MeccanumDrive, error) {
	for i, m := range motors {
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilMotor, kinematics.Wheel(i))
		}
	}
	d := &MeccanumDrive{motors: motors, kin: kin, pos: pos}
	d.EnableUserControl()
	return d, nil
}

func (d *MeccanumDrive) Drive(t kinematics.ChassisTransform) error {
	heading := t.DTheta
	if d.pos != nil {
		heading = d.pos.Position().Heading
	}
	return d.apply(d.kin.ToChassisState(t, heading))
}

func (d *MeccanumDrive) DrivePolar(power, angle float64) error {
	return d.apply(kinematics.ToWheelPowers(power, angle).ChassisState())
}

func (d *MeccanumDrive) Halt() error {
	return d.apply(kinematics.ChassisState{})
}

func (d *MeccanumDrive) State() kinematics.ChassisState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *MeccanumDrive) apply(state kinematics.ChassisState) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs error
	for i, m := range d.motors {
		if err := m.SetPower(state[i].Power); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", kinematics.Wheel(i), err))
		}
	}
	d.last = state
	return errs
}
