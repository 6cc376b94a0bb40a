package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFix(t *testing.T) {
	require.Equal(t, 0.0, Fix(0))
	require.Equal(t, 0.0, Fix(360))
	require.Equal(t, 270.0, Fix(-90))
	require.Equal(t, 90.0, Fix(450))
	require.Equal(t, 0.0, Fix(-720))

	for _, a := range []float64{-1e-14, -1e-10, 359.9999, 1e9} {
		f := Fix(a)
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 360.0)
	}
}

func TestMinimumAngleDelta(t *testing.T) {
	t.Run("Examples", func(t *testing.T) {
		require.Equal(t, 20.0, MinimumAngleDelta(10, 30))
		require.Equal(t, -20.0, MinimumAngleDelta(30, 10))
		require.Equal(t, 20.0, MinimumAngleDelta(350, 10))
		require.Equal(t, -20.0, MinimumAngleDelta(10, 350))
		require.Equal(t, 0.0, MinimumAngleDelta(123, 123))
		require.Equal(t, 180.0, math.Abs(MinimumAngleDelta(0, 180)))
	})

	t.Run("Never more than half a turn", func(t *testing.T) {
		for c := 0.0; c < 360; c += 7.5 {
			for target := 0.0; target < 360; target += 11.25 {
				d := MinimumAngleDelta(c, target)
				require.LessOrEqual(t, math.Abs(d), 180.0)
				require.InDelta(t, 0, math.Abs(MinimumAngleDelta(Fix(c+d), Fix(target))), 1e-9,
					"c=%v t=%v d=%v", c, target, d)
			}
		}
	})
}

func TestBearing(t *testing.T) {
	require.InDelta(t, 0, Bearing(Pt(0, 0), Pt(1, 0)), 1e-12)
	require.InDelta(t, 90, Bearing(Pt(0, 0), Pt(0, 5)), 1e-12)
	require.InDelta(t, 225, Bearing(Pt(1, 1), Pt(0, 0)), 1e-12)
	require.InDelta(t, 270, Bearing(Pt(0, 0), Pt(0, -2)), 1e-12)
}

func TestPath(t *testing.T) {
	p := Path{Pt(0, 0), Pt(0, 0), Pt(3, 4), Pt(3, 4), Pt(3, 4), Pt(3, 0)}
	d := p.Dedup()
	require.Equal(t, Path{Pt(0, 0), Pt(3, 4), Pt(3, 0)}, d)
	require.InDelta(t, 9.0, d.Length(), 1e-12)

	last, ok := d.Last()
	require.True(t, ok)
	require.Equal(t, Pt(3, 0), last)

	_, ok = Path{}.First()
	require.False(t, ok)
	require.NotNil(t, Path(nil).Clone())
	require.NotNil(t, Path(nil).Dedup())

	require.True(t, p.Finite())
	require.False(t, Path{Pt(0, 0), Pt(math.NaN(), 0)}.Finite())
	require.False(t, Pt(0, math.Inf(1)).Finite())
}

func TestBounds(t *testing.T) {
	b := Bounds{Min: Pt(-1, -1), Max: Pt(1, 1)}
	require.True(t, b.Contains(Pt(0, 1)))
	require.False(t, b.Contains(Pt(1.5, 0)))
	require.True(t, Bounds{}.IsZero())

	require.True(t, b.Crosses(Pt(-2, 0), Pt(2, 0)), "through")
	require.True(t, b.Crosses(Pt(-2, -2), Pt(0, 0)), "ends inside")
	require.True(t, b.Crosses(Pt(0.5, 0.5), Pt(0.6, 0.6)), "fully inside")
	require.False(t, b.Crosses(Pt(-2, 2), Pt(2, 2)), "parallel above")
	require.False(t, b.Crosses(Pt(-3, 0), Pt(-2, 0)), "short of it")
	require.False(t, b.Crosses(Pt(0, 3), Pt(3, 0)), "diagonal miss")
}
