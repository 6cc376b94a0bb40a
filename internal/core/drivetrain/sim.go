package drivetrain

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
)

var (
	_ Drive          = (*Sim)(nil)
	_ PositionSource = (*Sim)(nil)
)

// HeadingMode selects how the simulator reads ChassisTransform.DTheta.
type HeadingMode uint8

const (
	// HeadingRate treats DTheta as a turn rate in radians per second, like
	// swerve kinematics.
	HeadingRate HeadingMode = iota
	// HeadingTarget treats DTheta as an absolute heading in degrees, like the
	// meccanum drive.
	HeadingTarget
)

func (m HeadingMode) String() string {
	if m == HeadingRate {
		return "rate"
	}
	return "target"
}

func ParseHeadingMode(s string) (HeadingMode, error) {
	switch s {
	case "rate":
		return HeadingRate, nil
	case "target", "":
		return HeadingTarget, nil
	default:
		return HeadingTarget, fmt.Errorf("unknown heading mode %q", s)
	}
}

func (m HeadingMode) MarshalYAML() (any, error) { return m.String(), nil }

func (m *HeadingMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseHeadingMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SimConfig tunes the simulated chassis.
type SimConfig struct {
	MaxSpeed    float64       `yaml:"max_speed"`     // field units per second at power 1
	MaxTurnRate float64       `yaml:"max_turn_rate"` // degrees per second
	Step        time.Duration `yaml:"step"`          // integration step per Update
	HeadingMode HeadingMode   `yaml:"heading_mode"`
}

func DefaultSimConfig() SimConfig {
	return SimConfig{MaxSpeed: 1.5, MaxTurnRate: 180, Step: 20 * time.Millisecond, HeadingMode: HeadingTarget}
}

// Sim is a kinematic model of a holonomic chassis. Commands are robot
// relative; heading 0 means the robot frame matches the field frame. Pose is
// integrated once per Update call using a fixed step so runs are repeatable.
type Sim struct {
	userControl

	mu       sync.Mutex
	cfg      SimConfig
	pose     geometry.HeadingPoint
	cmd      kinematics.ChassisTransform
	polar    bool
	commands uint64
	elapsed  time.Duration
}

func NewSim(cfg SimConfig, start geometry.HeadingPoint) *Sim {
	def := DefaultSimConfig()
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = def.MaxSpeed
	}
	if cfg.MaxTurnRate <= 0 {
		cfg.MaxTurnRate = def.MaxTurnRate
	}
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	start.Heading = geometry.Fix(start.Heading)
	s := &Sim{cfg: cfg, pose: start}
	s.EnableUserControl()
	return s
}

func (s *Sim) Drive(t kinematics.ChassisTransform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd = t
	s.polar = false
	s.commands++
	return nil
}

func (s *Sim) DrivePolar(power, angle float64) error {
	sin, cos := math.Sincos(geometry.Radians(angle))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd = kinematics.ChassisTransform{DX: power * cos, DY: power * sin}
	s.polar = true
	s.commands++
	return nil
}

func (s *Sim) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd = kinematics.ChassisTransform{}
	s.polar = true
	s.commands++
	return nil
}

func (s *Sim) Position() geometry.HeadingPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// Commands counts Drive, DrivePolar and Halt calls.
func (s *Sim) Commands() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}

// Elapsed is the simulated time integrated so far.
func (s *Sim) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Update advances the simulation by one step.
func (s *Sim) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elapsed += s.cfg.Step
	dt := s.cfg.Step.Seconds()
	v := geometry.Pt(s.cmd.DX, s.cmd.DY)
	if n := v.Norm(); n > 1 {
		v = v.Scale(1 / n)
	}
	move := v.Rotate(s.pose.Heading).Scale(s.cfg.MaxSpeed * dt)
	s.pose.Point = s.pose.Point.Add(move)

	if s.polar {
		return nil
	}
	maxTurn := s.cfg.MaxTurnRate * dt
	var turn float64
	switch s.cfg.HeadingMode {
	case HeadingTarget:
		turn = geometry.MinimumAngleDelta(s.pose.Heading, s.cmd.DTheta)
	default:
		turn = geometry.Degrees(s.cmd.DTheta) * dt
	}
	turn = math.Max(-maxTurn, math.Min(maxTurn, turn))
	s.pose.Heading = geometry.Fix(s.pose.Heading + turn)
	return nil
}

// SimModule is a simulated swerve module whose angle follows its turn power.
type SimModule struct {
	mu         sync.Mutex
	angle      float64
	drivePower float64
	degPerTick float64
}

func NewSimModule(angle, degreesPerTick float64) *SimModule {
	return &SimModule{angle: geometry.Fix(angle), degPerTick: degreesPerTick}
}

func (m *SimModule) Angle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.angle
}

func (m *SimModule) SetTurnPower(power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.angle = geometry.Fix(m.angle + power*m.degPerTick)
	return nil
}

func (m *SimModule) SetDrivePower(power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivePower = power
	return nil
}

func (m *SimModule) DrivePower() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivePower
}

// SimMotor is a simulated power-controlled motor.
type SimMotor struct {
	mu    sync.Mutex
	power float64
}

func (m *SimMotor) SetPower(power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = power
	return nil
}

func (m *SimMotor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}
