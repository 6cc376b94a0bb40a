package kinematics

import (
	"fmt"
	"math"
	"time"

	"github.com/zeusync/motion/internal/core/geometry"
)

// PIDGains are proportional, integral and derivative gains.
type PIDGains struct {
	P float64 `json:"p" yaml:"p"`
	I float64 `json:"i" yaml:"i"`
	D float64 `json:"d" yaml:"d"`
}

func (g PIDGains) Validate() error {
	if g.P < 0 || g.I < 0 || g.D < 0 {
		return fmt.Errorf("%w: gains must be non-negative, got %+v", ErrInvalidGains, g)
	}
	if g.P == 0 && g.I == 0 && g.D == 0 {
		return fmt.Errorf("%w: all gains are zero", ErrInvalidGains)
	}
	return nil
}

// PID is a textbook PID controller with integral clamping.
type PID struct {
	Gains         PIDGains
	IntegralLimit float64

	integral float64
	prevErr  float64
	primed   bool
}

// Update returns the control output for err over a step of dt seconds.
func (p *PID) Update(err, dt float64) float64 {
	derivative := 0.0
	if dt > 0 {
		p.integral += err * dt
		if p.IntegralLimit > 0 {
			p.integral = math.Max(-p.IntegralLimit, math.Min(p.IntegralLimit, p.integral))
		}
		if p.primed {
			derivative = (err - p.prevErr) / dt
		}
	}
	p.prevErr = err
	p.primed = true
	return p.Gains.P*err + p.Gains.I*p.integral + p.Gains.D*derivative
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.primed = false
}

type AlignmentState uint8

const (
	AlignmentIdle AlignmentState = iota
	AlignmentAligning
	AlignmentAligned
)

func (s AlignmentState) String() string {
	switch s {
	case AlignmentIdle:
		return "idle"
	case AlignmentAligning:
		return "aligning"
	case AlignmentAligned:
		return "aligned"
	default:
		return "unknown"
	}
}

// AlignmentConfig tunes a ModuleAlignmentController.
type AlignmentConfig struct {
	Gains     PIDGains `json:"gains" yaml:"gains"`
	Tolerance float64  `json:"tolerance" yaml:"tolerance"` // degrees
	MaxPower  float64  `json:"max_power" yaml:"max_power"`
}

func DefaultAlignmentConfig() AlignmentConfig {
	return AlignmentConfig{
		Gains:     PIDGains{P: 0.02, I: 0, D: 0.0005},
		Tolerance: 2,
		MaxPower:  1,
	}
}

func (c AlignmentConfig) Validate() error {
	if err := c.Gains.Validate(); err != nil {
		return err
	}
	if c.Tolerance <= 0 || c.Tolerance >= 180 {
		return fmt.Errorf("%w: tolerance %v must be in (0, 180)", ErrInvalidGains, c.Tolerance)
	}
	if c.MaxPower <= 0 || c.MaxPower > 1 {
		return fmt.Errorf("%w: max power %v must be in (0, 1]", ErrInvalidGains, c.MaxPower)
	}
	return nil
}

// ModuleAlignmentController steers one swerve module toward a target angle.
// It always turns the short way round, so no command asks for more than 180
// degrees of rotation. It is not safe for concurrent use.
type ModuleAlignmentController struct {
	cfg    AlignmentConfig
	pid    PID
	target float64
	state  AlignmentState
}

func NewModuleAlignmentController(cfg AlignmentConfig) *ModuleAlignmentController {
	return &ModuleAlignmentController{
		cfg: cfg,
		pid: PID{Gains: cfg.Gains, IntegralLimit: cfg.MaxPower},
	}
}

// SetTarget requests a new module heading in degrees.
func (c *ModuleAlignmentController) SetTarget(angle float64) {
	angle = geometry.Fix(angle)
	if c.state != AlignmentIdle && angle == c.target {
		return
	}
	c.target = angle
	c.state = AlignmentAligning
	c.pid.Reset()
}

func (c *ModuleAlignmentController) Target() float64       { return c.target }
func (c *ModuleAlignmentController) State() AlignmentState { return c.state }
func (c *ModuleAlignmentController) Aligned() bool         { return c.state == AlignmentAligned }

// Update reads the current module angle and returns the turn motor power,
// bounded by MaxPower. Once within tolerance it reports Aligned and returns 0;
// drifting back out of tolerance resumes aligning.
func (c *ModuleAlignmentController) Update(current float64, dt time.Duration) float64 {
	if c.state == AlignmentIdle {
		return 0
	}
	errDeg := geometry.MinimumAngleDelta(current, c.target)
	if math.Abs(errDeg) <= c.cfg.Tolerance {
		c.state = AlignmentAligned
		c.pid.Reset()
		return 0
	}
	c.state = AlignmentAligning
	out := c.pid.Update(errDeg, dt.Seconds())
	return math.Max(-c.cfg.MaxPower, math.Min(c.cfg.MaxPower, out))
}

// Reset returns the controller to Idle.
func (c *ModuleAlignmentController) Reset() {
	c.state = AlignmentIdle
	c.pid.Reset()
}
