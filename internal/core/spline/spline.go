// Package spline fits smooth curves through ordered control points.
//
// Each axis is fitted independently with a Fritsch-Butland monotone cubic,
// parameterized by cumulative chord length. The fitted curve passes through
// every control point and never introduces a local extremum on an axis
// between two control points where the control values are monotone.
package spline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/zeusync/motion/internal/core/geometry"
)

var (
	ErrTooFewPoints    = errors.New("spline needs at least two distinct control points")
	ErrRepeatedControl = errors.New("spline control points must not repeat consecutively")
)

// Interpolator is an immutable 2D monotone cubic curve.
type Interpolator struct {
	points []geometry.Point
	knots  []float64
	fx     interp.Predictor
	fy     interp.Predictor
}

// New fits a curve through points. Consecutive duplicates are rejected since
// they would collapse the chord-length parameter.
func New(points []geometry.Point) (*Interpolator, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	knots := make([]float64, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
		if i == 0 {
			continue
		}
		step := points[i-1].Distance(p)
		if step == 0 {
			return nil, fmt.Errorf("%w: index %d", ErrRepeatedControl, i)
		}
		knots[i] = knots[i-1] + step
	}

	fx, err := fit(knots, xs)
	if err != nil {
		return nil, fmt.Errorf("fit x axis: %w", err)
	}
	fy, err := fit(knots, ys)
	if err != nil {
		return nil, fmt.Errorf("fit y axis: %w", err)
	}

	cp := make([]geometry.Point, len(points))
	copy(cp, points)
	return &Interpolator{points: cp, knots: knots, fx: fx, fy: fy}, nil
}

func fit(knots, values []float64) (interp.Predictor, error) {
	if len(knots) == 2 {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(knots, values); err != nil {
			return nil, err
		}
		return &pl, nil
	}
	var fb interp.FritschButland
	if err := fb.Fit(knots, values); err != nil {
		return nil, err
	}
	return &fb, nil
}

// Span is the length of the parameter domain, equal to the chord length of
// the control polygon.
func (s *Interpolator) Span() float64 { return s.knots[len(s.knots)-1] }

// Knots returns the parameter value of every control point.
func (s *Interpolator) Knots() []float64 {
	out := make([]float64, len(s.knots))
	copy(out, s.knots)
	return out
}

// ControlPoints returns a copy of the fitted control points.
func (s *Interpolator) ControlPoints() []geometry.Point {
	out := make([]geometry.Point, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Interpolator) Start() geometry.Point { return s.points[0] }
func (s *Interpolator) End() geometry.Point   { return s.points[len(s.points)-1] }

// At evaluates the curve at parameter u, clamped to [0, Span].
func (s *Interpolator) At(u float64) geometry.Point {
	u = clamp(u, 0, s.Span())
	if i := sort.SearchFloat64s(s.knots, u); i < len(s.knots) && s.knots[i] == u {
		return s.points[i]
	}
	return geometry.Point{X: s.fx.Predict(u), Y: s.fy.Predict(u)}
}

// Heading returns the direction of travel at u in degrees, estimated with a
// central difference.
func (s *Interpolator) Heading(u float64) float64 {
	h := s.Span() * 1e-4
	a := s.At(u - h)
	b := s.At(u + h)
	if a.Equal(b) {
		return geometry.Bearing(s.Start(), s.End())
	}
	return geometry.Bearing(a, b)
}

// Sample returns n+1 evenly spaced points in parameter space, including both
// ends.
func (s *Interpolator) Sample(n int) []geometry.Point {
	if n < 1 {
		n = 1
	}
	params := make([]float64, n+1)
	floats.Span(params, 0, s.Span())
	out := make([]geometry.Point, len(params))
	for i, u := range params {
		out[i] = s.At(u)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
