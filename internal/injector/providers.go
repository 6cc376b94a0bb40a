// Package injector assembles a planner from configuration.
package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/events/bus"
	"github.com/zeusync/motion/internal/core/observability/log"
	"github.com/zeusync/motion/internal/planner"
)

// SimSet provides a planner over a simulated chassis of the configured type.
var SimSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideSimChassis,
	ProvidePlanner,
	wire.Bind(new(log.Log), new(*log.Logger)),
	wire.FieldsOf(new(Chassis), "Drive", "Position"),
)

// Chassis is a drive together with the position source it moves.
type Chassis struct {
	Drive    drivetrain.Drive
	Position drivetrain.PositionSource
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.NewWithConfig(cfg.Log)
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

// ProvideSimChassis builds the drive for chassis.type on simulated
// actuators. Swerve runs its kinematics and module alignment against four
// simulated modules; meccanum mixes wheel powers for four simulated motors.
// Either way the pose only changes through what the wheels do.
func ProvideSimChassis(cfg *config.Config, logger log.Log) (Chassis, error) {
	c := *cfg
	c.Normalize()
	if err := c.Validate(); err != nil {
		return Chassis{}, err
	}

	switch c.Chassis.Type {
	case config.ChassisSwerve:
		kin, err := c.Chassis.Swerve()
		if err != nil {
			return Chassis{}, fmt.Errorf("chassis: %w", err)
		}
		var (
			sims    [4]*drivetrain.SimModule
			modules [4]drivetrain.SwerveModule
		)
		for i := range sims {
			sims[i] = drivetrain.NewSimModule(90, c.Sim.ModuleTurnRate)
			modules[i] = sims[i]
		}
		body := drivetrain.NewSimSwerveChassis(kin, sims, c.Sim.SimConfig, c.Sim.Start)
		drive, err := drivetrain.NewSwerveDrive(kin, modules, c.Chassis.Alignment, logger, drivetrain.WithClock(body.Now))
		if err != nil {
			return Chassis{}, fmt.Errorf("chassis: %w", err)
		}
		return Chassis{Drive: drive, Position: body}, nil

	case config.ChassisMeccanum:
		var (
			sims   [4]*drivetrain.SimMotor
			motors [4]drivetrain.Motor
		)
		for i := range sims {
			sims[i] = &drivetrain.SimMotor{}
			motors[i] = sims[i]
		}
		body := drivetrain.NewSimMeccanumChassis(sims, c.Sim.SimConfig, c.Sim.Start)
		drive, err := drivetrain.NewMeccanumDrive(motors, c.Chassis.Meccanum(), body)
		if err != nil {
			return Chassis{}, fmt.Errorf("chassis: %w", err)
		}
		return Chassis{Drive: drive, Position: body}, nil
	}
	return Chassis{}, fmt.Errorf("%w: unknown chassis type %q", config.ErrInvalidConfig, c.Chassis.Type)
}

// ProvidePlanner returns a cleanup that closes the planner and flushes the
// logger.
func ProvidePlanner(cfg *config.Config, drive drivetrain.Drive, pos drivetrain.PositionSource, logger log.Log, eventBus bus.EventBus) (*planner.Planner, func(), error) {
	p, err := planner.New(cfg, drive, pos, logger, eventBus)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Close planner", log.Error(err))
		}
		_ = logger.Sync()
	}, nil
}
