package planner

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/events/bus"
	"github.com/zeusync/motion/internal/core/execution"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/pathing"
)

func newPlanner(t *testing.T, mutate func(*config.Config)) (*Planner, *drivetrain.Sim) {
	t.Helper()
	cfg := config.Default()
	cfg.Execution.TickInterval = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.Normalize()
	sim := drivetrain.NewSim(cfg.Sim.SimConfig, cfg.Sim.Start)
	p, err := New(&cfg, sim, sim, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, sim
}

func tickUntilIdle(t *testing.T, p *Planner) {
	t.Helper()
	for i := 0; i < 5000 && !p.Engine().IsIdle(); i++ {
		p.Tick(context.Background())
	}
	require.True(t, p.Engine().IsIdle())
}

func TestFollowToReachesTarget(t *testing.T) {
	p, sim := newPlanner(t, func(c *config.Config) {
		c.Sim.Start = geometry.NewHeadingPoint(0.2, 0.2, 0)
	})

	f, err := p.FollowTo(context.Background(), geometry.Pt(1.5, 0.8))
	require.NoError(t, err)
	require.NotEmpty(t, f.ID())
	require.Equal(t, 1, p.Engine().Len())

	tickUntilIdle(t, p)
	require.True(t, sim.Position().Near(geometry.Pt(1.5, 0.8), 0.06), "ended at %v", sim.Position())
	require.True(t, sim.UserControlEnabled())
	require.Equal(t, uint64(1), p.Stats().Execution.Completed)
}

func TestFollowToMeccanumHoldsHeading(t *testing.T) {
	p, sim := newPlanner(t, func(c *config.Config) {
		c.Chassis.Type = config.ChassisMeccanum
		c.Sim.Start = geometry.NewHeadingPoint(0.5, 0.5, 0)
	})

	_, err := p.FollowTo(context.Background(), geometry.Pt(1.5, 1.5), WithHeading(90))
	require.NoError(t, err)
	tickUntilIdle(t, p)

	require.True(t, sim.Position().Near(geometry.Pt(1.5, 1.5), 0.06))
	require.InDelta(t, 90, sim.Position().Heading, 1)
}

func TestDispatchAroundObstacle(t *testing.T) {
	wall := geometry.Bounds{Min: geometry.Pt(0.8, 0.2), Max: geometry.Pt(1.0, 1.8)}
	p, _ := newPlanner(t, func(c *config.Config) {
		c.Pathing.Strategies = []string{config.StrategyStraight, config.StrategyGrid}
		c.Pathing.Grid.Obstacles = []geometry.Bounds{wall}
	})
	ctx := context.Background()

	open, err := p.DispatchPath(ctx, geometry.Pt(0.1, 2.5), geometry.Pt(1.5, 2.5))
	require.NoError(t, err)
	require.Equal(t, "straight", open.Strategy)
	require.Len(t, open.Path, 2)

	blocked, err := p.DispatchPath(ctx, geometry.Pt(0.3, 1.0), geometry.Pt(1.5, 1.0))
	require.NoError(t, err)
	require.Equal(t, "cached(grid)", blocked.Strategy)
	require.Equal(t, 2, blocked.Attempts)
	require.Greater(t, len(blocked.Path), 2)
	require.Equal(t, geometry.Pt(0.3, 1.0), blocked.Path[0])
	require.Equal(t, geometry.Pt(1.5, 1.0), blocked.Path[len(blocked.Path)-1])

	tr, err := p.BuildTrajectory(blocked.Path)
	require.NoError(t, err)
	require.Greater(t, tr.Length(), 1.2)

	_, err = p.DispatchPath(ctx, geometry.Pt(0.3, 1.0), geometry.Pt(1.5, 1.0))
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.Stats().CacheHits)
}

func TestFollowToNoPath(t *testing.T) {
	p, _ := newPlanner(t, func(c *config.Config) {
		c.Pathing.Strategies = []string{config.StrategyGrid}
	})

	_, err := p.FollowTo(context.Background(), geometry.Pt(100, 100))
	require.ErrorIs(t, err, ErrNoPath)
	require.True(t, p.Engine().IsIdle())
}

func TestFollowToOutsideBounds(t *testing.T) {
	p, _ := newPlanner(t, func(c *config.Config) {
		c.Pathing.Bounds = &geometry.Bounds{Max: geometry.Pt(2, 2)}
	})

	_, err := p.FollowTo(context.Background(), geometry.Pt(3, 1))
	require.ErrorIs(t, err, pathing.ErrInvalidPath)
}

func TestFollowToNonFiniteTarget(t *testing.T) {
	p, sim := newPlanner(t, nil)
	ctx := context.Background()

	_, err := p.FollowTo(ctx, geometry.Pt(math.NaN(), 1))
	require.ErrorIs(t, err, pathing.ErrInvalidPath)
	_, err = p.FollowRoute(ctx, []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, math.Inf(1))})
	require.ErrorIs(t, err, pathing.ErrInvalidPath)
	require.True(t, p.Engine().IsIdle())

	_, err = p.FollowTo(ctx, geometry.Pt(0.5, 0))
	require.NoError(t, err)
	tickUntilIdle(t, p)
	require.True(t, sim.Position().Near(geometry.Pt(0.5, 0), 0.06), "ended at %v", sim.Position())
}

func TestNewRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	cfg.Chassis.Type = "tank"
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	_, err := New(&cfg, sim, sim, nil, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = New(nil, nil, sim, nil, nil)
	require.ErrorIs(t, err, execution.ErrNilDrive)
}

func TestRunLoopWithEvents(t *testing.T) {
	b := bus.New()
	cfg := config.Default()
	cfg.Execution.TickInterval = time.Millisecond
	sim := drivetrain.NewSim(cfg.Sim.SimConfig, geometry.NewHeadingPoint(0.5, 0.5, 0))
	p, err := New(&cfg, sim, sim, nil, b)
	require.NoError(t, err)

	var completed atomic.Int32
	_, err = b.Subscribe(execution.EventCompleted, func(bus.Event) error {
		completed.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, p.Start(ctx))

	_, err = p.FollowTo(ctx, geometry.Pt(1, 1))
	require.NoError(t, err)
	require.NoError(t, p.WaitUntilIdle(ctx))

	_, err = p.FollowTo(ctx, geometry.Pt(0.5, 1.2))
	require.NoError(t, err)
	p.Lock()

	require.Equal(t, int32(2), completed.Load())
	require.True(t, sim.Position().Near(geometry.Pt(0.5, 1.2), 0.06))
	require.NoError(t, p.Close())
	require.False(t, p.Engine().Running())
}

func TestFollowRoute(t *testing.T) {
	p, sim := newPlanner(t, func(c *config.Config) {
		c.Sim.Start = geometry.NewHeadingPoint(0.5, 0.5, 0)
	})
	stops := []geometry.Point{geometry.Pt(1.5, 0.5), geometry.Pt(1.5, 1.5), geometry.Pt(0.5, 1.5)}

	fs, err := p.FollowRoute(context.Background(), stops)
	require.NoError(t, err)
	require.Len(t, fs, 3)
	require.Equal(t, 3, p.Engine().Len())
	for i, f := range fs {
		require.Equal(t, stops[i], f.Trajectory().End())
	}

	tickUntilIdle(t, p)
	require.True(t, sim.Position().Near(geometry.Pt(0.5, 1.5), 0.06))
	require.Equal(t, uint64(3), p.Stats().Execution.Completed)
}

func TestFollowRouteQueuesNothingWithoutEveryPath(t *testing.T) {
	p, _ := newPlanner(t, func(c *config.Config) {
		c.Pathing.Strategies = []string{config.StrategyGrid}
	})

	_, err := p.FollowRoute(context.Background(), []geometry.Point{geometry.Pt(1, 1), geometry.Pt(100, 1)})
	require.ErrorIs(t, err, ErrNoPath)
	require.True(t, p.Engine().IsIdle())
}
