package drivetrain

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/zeusync/motion/internal/core/kinematics"
	"github.com/zeusync/motion/internal/core/observability/log"
)

var _ Drive = (*SwerveDrive)(nil)

// SwerveDrive runs swerve kinematics and steers four modules with one
// alignment controller each. Drive wheels are held at zero power until every
// module is aligned, trading a little latency for not scrubbing the wheels
// while they turn.
type SwerveDrive struct {
	userControl

	mu       sync.Mutex
	kin      *kinematics.Swerve
	modules  [4]SwerveModule
	aligners [4]*kinematics.ModuleAlignmentController
	last     kinematics.ChassisState
	lastTick time.Time
	now      func() time.Time
	logger   log.Log
}

type SwerveOption func(*SwerveDrive)

// WithClock replaces the wall clock used to time alignment steps.
func WithClock(now func() time.Time) SwerveOption {
	return func(d *SwerveDrive) {
		if now != nil {
			d.now = now
		}
	}
}

func NewSwerveDrive(kin *kinematics.Swerve, modules [4]SwerveModule, cfg kinematics.AlignmentConfig, logger log.Log, opts ...SwerveOption) (*SwerveDrive, error) {
	if kin == nil {
		return nil, fmt.Errorf("%w: nil swerve kinematics", kinematics.ErrInvalidGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	d := &SwerveDrive{
		kin:     kin,
		modules: modules,
		now:     time.Now,
		logger:  logger.Named("swerve"),
	}
	for i, m := range modules {
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilModule, kinematics.Wheel(i))
		}
		d.aligners[i] = kinematics.NewModuleAlignmentController(cfg)
		d.last[i].Angle = m.Angle()
	}
	for _, opt := range opts {
		opt(d)
	}
	d.EnableUserControl()
	return d, nil
}

func (d *SwerveDrive) Drive(t kinematics.ChassisTransform) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	dt := time.Duration(0)
	if !d.lastTick.IsZero() {
		dt = now.Sub(d.lastTick)
	}
	d.lastTick = now

	target := d.kin.ToWheelStates(t, d.last)

	var errs error
	aligned := true
	turnPower := [4]float64{}
	for i, m := range d.modules {
		current := m.Angle()
		state := kinematics.Optimize(target[i], current)
		d.aligners[i].SetTarget(state.Angle)
		turnPower[i] = d.aligners[i].Update(current, dt)
		if !d.aligners[i].Aligned() {
			aligned = false
		}
		target[i] = state
	}

	for i, m := range d.modules {
		if err := m.SetTurnPower(turnPower[i]); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s turn: %w", kinematics.Wheel(i), err))
		}
		power := 0.0
		if aligned {
			power = target[i].Power
		}
		if err := m.SetDrivePower(power); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s drive: %w", kinematics.Wheel(i), err))
		}
	}
	if !aligned {
		d.logger.Debug("Holding drive power while modules align")
	}

	d.last = target
	return errs
}

func (d *SwerveDrive) DrivePolar(power, angle float64) error {
	s, c := math.Sincos(angle * math.Pi / 180)
	return d.Drive(kinematics.ChassisTransform{DX: power * c, DY: power * s})
}

func (d *SwerveDrive) Halt() error {
	return d.Drive(kinematics.ChassisTransform{})
}

// Aligned reports whether every module reached its commanded angle on the
// last Drive call.
func (d *SwerveDrive) Aligned() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.aligners {
		if !a.Aligned() && a.State() != kinematics.AlignmentIdle {
			return false
		}
	}
	return true
}

// State returns the last commanded wheel states.
func (d *SwerveDrive) State() kinematics.ChassisState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
