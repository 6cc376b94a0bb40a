package follower

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/kinematics"
	"github.com/zeusync/motion/internal/core/trajectory"
)

func runToDone(t *testing.T, f Follower, limit int) int {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.Calculate(ctx))
	for i := 0; i < limit; i++ {
		require.NoError(t, f.Update(ctx))
		require.NoError(t, f.Drive(ctx))
		if f.Done() {
			return i + 1
		}
	}
	t.Fatalf("%s follower not done after %d ticks", f.Name(), limit)
	return limit
}

func buildTrajectory(t *testing.T, pts ...geometry.Point) *trajectory.Trajectory {
	t.Helper()
	tr, err := trajectory.NewBuilder().Build(geometry.Path(pts))
	require.NoError(t, err)
	return tr
}

func TestTrajectoryFollowerReachesEnd(t *testing.T) {
	cases := []struct {
		name    string
		heading float64
		path    []geometry.Point
	}{
		{"straight", 0, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0)}},
		{"rotated chassis", 90, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0)}},
		{"curve", 0, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0.5), geometry.Pt(2, 0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{Heading: tc.heading})
			tr := buildTrajectory(t, tc.path...)
			f, err := NewTrajectoryFollower(tr, sim, sim, DefaultTrajectoryConfig())
			require.NoError(t, err)

			runToDone(t, f, 5000)
			end := tr.End()
			require.InDelta(t, end.X, sim.Position().X, 0.06)
			require.InDelta(t, end.Y, sim.Position().Y, 0.06)
			require.InDelta(t, tc.heading, sim.Position().Heading, 1)
		})
	}
}

func TestTrajectoryFollowerTurnsToHeading(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	f, err := NewTrajectoryFollower(buildTrajectory(t, geometry.Pt(0, 0), geometry.Pt(2, 0)), sim, sim, DefaultTrajectoryConfig())
	require.NoError(t, err)
	f.WithHeading(-90)

	runToDone(t, f, 5000)
	require.InDelta(t, 270, sim.Position().Heading, 1)
}

func TestTrajectoryFollowerRateMode(t *testing.T) {
	simCfg := drivetrain.DefaultSimConfig()
	simCfg.HeadingMode = drivetrain.HeadingRate
	sim := drivetrain.NewSim(simCfg, geometry.HeadingPoint{Heading: 30})

	cfg := DefaultTrajectoryConfig()
	cfg.HeadingMode = drivetrain.HeadingRate
	cfg.TurnGain = 5
	f, err := NewTrajectoryFollower(buildTrajectory(t, geometry.Pt(0, 0), geometry.Pt(1, 1)), sim, sim, cfg)
	require.NoError(t, err)
	f.WithHeading(0)

	runToDone(t, f, 5000)
	require.InDelta(t, 1, sim.Position().X, 0.06)
	require.InDelta(t, 1, sim.Position().Y, 0.06)
}

func TestTrajectoryFollowerTickBudget(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	cfg := DefaultTrajectoryConfig()
	cfg.MaxTicks = 3
	f, err := NewTrajectoryFollower(buildTrajectory(t, geometry.Pt(0, 0), geometry.Pt(10, 0)), sim, sim, cfg)
	require.NoError(t, err)

	require.Equal(t, 3, runToDone(t, f, 10))
	require.Equal(t, 3, f.Ticks())
}

func TestFollowerConstructionErrors(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	tr := buildTrajectory(t, geometry.Pt(0, 0), geometry.Pt(1, 0))
	cfg := DefaultTrajectoryConfig()

	_, err := NewTrajectoryFollower(nil, sim, sim, cfg)
	require.ErrorIs(t, err, ErrNilTrajectory)
	_, err = NewTrajectoryFollower(tr, nil, sim, cfg)
	require.ErrorIs(t, err, ErrNilDrive)
	_, err = NewTrajectoryFollower(tr, sim, nil, cfg)
	require.ErrorIs(t, err, ErrNilPosition)

	cfg.Speed = 1.5
	_, err = NewTrajectoryFollower(tr, sim, sim, cfg)
	require.Error(t, err)
	_, err = NewPointFollower(geometry.Pt(1, 1), sim, sim, cfg)
	require.Error(t, err)
}

func TestUpdateBeforeCalculate(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	f, err := NewTrajectoryFollower(buildTrajectory(t, geometry.Pt(0, 0), geometry.Pt(1, 0)), sim, sim, DefaultTrajectoryConfig())
	require.NoError(t, err)
	require.ErrorIs(t, f.Update(context.Background()), ErrNotCalculated)
}

func TestPointFollower(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{Heading: 45})
	f, err := NewPointFollower(geometry.Pt(1, -1), sim, sim, DefaultTrajectoryConfig())
	require.NoError(t, err)

	runToDone(t, f, 5000)
	require.True(t, sim.Position().Near(geometry.Pt(1, -1), 0.06))
	require.InDelta(t, 45, sim.Position().Heading, 1e-9)
}

func TestTimedFollower(t *testing.T) {
	sim := drivetrain.NewSim(drivetrain.DefaultSimConfig(), geometry.HeadingPoint{})
	f, err := NewTimedFollower(sim, kinematics.ChassisTransform{DX: 1}, time.Second)
	require.NoError(t, err)

	clock := time.Unix(0, 0)
	f.now = func() time.Time { return clock }
	ctx := context.Background()

	require.ErrorIs(t, f.Update(ctx), ErrNotCalculated)
	require.NoError(t, f.Calculate(ctx))
	require.NoError(t, f.Update(ctx))
	require.False(t, f.Done())

	clock = clock.Add(999 * time.Millisecond)
	require.NoError(t, f.Update(ctx))
	require.False(t, f.Done())

	clock = clock.Add(time.Millisecond)
	require.NoError(t, f.Update(ctx))
	require.True(t, f.Done())
	require.NoError(t, f.Drive(ctx))
	require.Equal(t, uint64(1), sim.Commands())
}

func TestBaseIdentity(t *testing.T) {
	a, b := NewBase("a", 0), NewBase("b", 0)
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, "a", a.Name())
	require.Equal(t, "active", StateActive.String())
}
