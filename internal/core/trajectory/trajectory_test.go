package trajectory

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/motion/internal/core/geometry"
)

type segmentShape struct {
	Kind     Kind
	Controls []geometry.Point
	Length   float64
	Samples  []geometry.Point
}

func shape(tr *Trajectory) []segmentShape {
	out := make([]segmentShape, 0, tr.Len())
	for _, s := range tr.Segments() {
		sh := segmentShape{Kind: s.Kind(), Controls: s.ControlPoints(), Length: s.Length()}
		for i := 0; i <= 10; i++ {
			sh.Samples = append(sh.Samples, s.PointAt(s.Length()*float64(i)/10))
		}
		out = append(out, sh)
	}
	return out
}

func TestBuilder(t *testing.T) {
	a, b, c := geometry.Pt(0, 0), geometry.Pt(2, 1), geometry.Pt(4, 0)

	t.Run("Duplicates do not change the result", func(t *testing.T) {
		builder := NewBuilder()
		withDupes, err := builder.Build(geometry.Path{a, a, b, b, c})
		require.NoError(t, err)
		clean, err := builder.Build(geometry.Path{a, b, c})
		require.NoError(t, err)

		if diff := cmp.Diff(shape(clean), shape(withDupes)); diff != "" {
			t.Fatalf("trajectory mismatch (-clean +dupes):\n%s", diff)
		}
	})

	t.Run("Two points build a linear segment", func(t *testing.T) {
		tr, err := NewBuilder().Build(geometry.Path{a, a, b})
		require.NoError(t, err)
		require.Equal(t, 1, tr.Len())
		require.Equal(t, KindLinear, tr.Segments()[0].Kind())
		require.InDelta(t, a.Distance(b), tr.Length(), 1e-12)
		require.Equal(t, a, tr.Start())
		require.Equal(t, b, tr.End())
	})

	t.Run("Three points build a curve through every waypoint", func(t *testing.T) {
		tr, err := NewBuilder().Build(geometry.Path{a, b, c})
		require.NoError(t, err)
		require.Equal(t, 1, tr.Len())
		require.Equal(t, KindCurve, tr.Segments()[0].Kind())
		require.Equal(t, geometry.Path{a, b, c}, tr.Waypoints())
		require.Equal(t, a, tr.PointAt(0))
		require.Equal(t, c, tr.PointAt(tr.Length()))
		require.Greater(t, tr.Length(), a.Distance(c))
	})

	t.Run("Long runs split into contiguous segments", func(t *testing.T) {
		path := geometry.Path{}
		for i := 0; i < 10; i++ {
			path = append(path, geometry.Pt(float64(i), float64(i%2)))
		}
		tr, err := NewBuilder(WithMaxCurvePoints(4)).Build(path)
		require.NoError(t, err)
		require.Equal(t, 3, tr.Len())

		segs := tr.Segments()
		for i := 1; i < len(segs); i++ {
			require.True(t, segs[i-1].End().Near(segs[i].Start(), 1e-9), "segment %d not contiguous", i)
		}
		if diff := cmp.Diff(path, tr.Waypoints(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("waypoints mismatch:\n%s", diff)
		}
	})

	t.Run("Too few waypoints", func(t *testing.T) {
		_, err := NewBuilder().Build(nil)
		require.ErrorIs(t, err, ErrInvalidPath)
		_, err = NewBuilder().Build(geometry.Path{a, a, a})
		require.ErrorIs(t, err, ErrInvalidPath)
		require.ErrorIs(t, err, geometry.ErrInvalidPath)
	})

	t.Run("Non-finite waypoints are rejected", func(t *testing.T) {
		for _, bad := range []geometry.Point{
			geometry.Pt(math.NaN(), 1),
			geometry.Pt(1, math.Inf(1)),
			geometry.Pt(math.Inf(-1), 0),
		} {
			_, err := NewBuilder().Build(geometry.Path{a, bad})
			require.ErrorIs(t, err, ErrInvalidPath, "%v", bad)
			_, err = NewBuilder().Build(geometry.Path{a, b, bad, c})
			require.ErrorIs(t, err, ErrInvalidPath, "%v", bad)
		}
	})

	t.Run("Overflowing length is rejected", func(t *testing.T) {
		_, err := NewBuilder().Build(geometry.Path{geometry.Pt(-math.MaxFloat64, 0), geometry.Pt(math.MaxFloat64, 0)})
		require.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestTrajectoryQueries(t *testing.T) {
	tr, err := NewBuilder().Build(geometry.Path{geometry.Pt(0, 0), geometry.Pt(3, 0)})
	require.NoError(t, err)

	p := tr.PointAt(1.5)
	require.InDelta(t, 1.5, p.X, 1e-12)
	require.InDelta(t, 0, tr.HeadingAt(1), 1e-12)

	require.InDelta(t, 2.0, tr.Project(geometry.Pt(2, 1), 0, 0.01), 0.011)
	require.InDelta(t, 2.0, tr.Closest(geometry.Pt(2, -1)), tr.Length()/500+1e-9)
	require.Equal(t, tr.End(), tr.PointAt(100))
	require.Equal(t, tr.Start(), tr.PointAt(math.NaN()))
	require.Zero(t, tr.Project(geometry.Pt(1, 1), math.NaN(), 0.01))
	require.InDelta(t, 1.0, tr.Project(geometry.Pt(1, 1), 0, math.NaN()), tr.Length()/100+1e-9)
}

func TestProjectTerminatesOnNonFiniteLength(t *testing.T) {
	tr := newTrajectory([]Segment{Linear{From: geometry.Pt(0, 0), To: geometry.Pt(math.NaN(), 1)}})

	done := make(chan float64, 1)
	go func() {
		done <- tr.Project(geometry.Pt(1, 1), 0, 0.01) + tr.Closest(geometry.Pt(1, 1))
	}()
	select {
	case d := <-done:
		require.Zero(t, d)
	case <-time.After(2 * time.Second):
		t.Fatal("Project did not return")
	}
}
