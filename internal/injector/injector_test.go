package injector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/observability/log"
	"github.com/zeusync/motion/internal/planner"
)

func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Log.Level = log.LevelSilent
	cfg.Execution.TickInterval = time.Millisecond
	cfg.Sim.Start = geometry.NewHeadingPoint(1, 1, 0)
	if mutate != nil {
		mutate(&cfg)
	}
	return &cfg
}

// driveTo follows a path to target by ticking by hand and returns the
// number of ticks it took.
func driveTo(t *testing.T, p *planner.Planner, target geometry.Point) uint64 {
	t.Helper()
	_, err := p.FollowTo(context.Background(), target)
	require.NoError(t, err)
	for i := 0; i < 5000 && !p.Engine().IsIdle(); i++ {
		p.Tick(context.Background())
	}
	require.True(t, p.Engine().IsIdle())
	require.True(t, p.Position().Near(target, 0.06), "ended at %v", p.Position())
	return p.Stats().Execution.Ticks
}

func TestInitializeSimPlanner(t *testing.T) {
	t.Run("Swerve", func(t *testing.T) {
		p, cleanup, err := InitializeSimPlanner(testConfig(nil))
		require.NoError(t, err)
		defer cleanup()

		require.IsType(t, &drivetrain.SwerveDrive{}, p.Drive())
		require.IsType(t, &drivetrain.SimChassis{}, p.PositionSource())
		require.Equal(t, geometry.Pt(1, 1), p.Position().Point)
		driveTo(t, p, geometry.Pt(1.5, 1))
	})

	t.Run("Meccanum", func(t *testing.T) {
		p, cleanup, err := InitializeSimPlanner(testConfig(func(c *config.Config) {
			c.Chassis.Type = config.ChassisMeccanum
		}))
		require.NoError(t, err)
		defer cleanup()

		require.IsType(t, &drivetrain.MeccanumDrive{}, p.Drive())
		driveTo(t, p, geometry.Pt(1.5, 1.4))
		require.InDelta(t, 0, geometry.MinimumAngleDelta(0, p.Position().Heading), 1)
	})
}

func TestChassisConfigShapesMotion(t *testing.T) {
	run := func(mutate func(*config.Config)) (uint64, geometry.HeadingPoint) {
		p, cleanup, err := InitializeSimPlanner(testConfig(mutate))
		require.NoError(t, err)
		defer cleanup()
		return driveTo(t, p, geometry.Pt(2, 1.5)), p.Position()
	}

	fastTicks, fastPose := run(nil)
	slowTicks, slowPose := run(func(c *config.Config) {
		c.Sim.ModuleTurnRate = 5
	})
	require.Greater(t, slowTicks, fastTicks, "slower module steering takes longer")
	require.NotEqual(t, fastPose, slowPose)
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*config.Config){
		"no strategies":     func(c *config.Config) { c.Pathing.Strategies = nil },
		"NaN track width":   func(c *config.Config) { c.Chassis.TrackWidth = math.NaN() },
		"module turn rate":  func(c *config.Config) { c.Sim.ModuleTurnRate = -1 },
		"alignment gains":   func(c *config.Config) { c.Chassis.Alignment.MaxPower = 0 },
		"meccanum max turn": func(c *config.Config) { c.Chassis.Type = config.ChassisMeccanum; c.Chassis.MaxTurn = 3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := InitializeSimPlanner(testConfig(mutate))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestInitializeLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = log.LevelWarn
	l, err := InitializeLogger(&cfg)
	require.NoError(t, err)
	require.Equal(t, log.LevelWarn, l.GetLevel())
}
