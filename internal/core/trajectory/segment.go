package trajectory

import (
	"sort"

	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/spline"
)

type Kind uint8

const (
	KindLinear Kind = iota + 1
	KindCurve
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// Segment is one contiguous piece of a trajectory. Distances passed to
// PointAt and HeadingAt are measured along the segment from its start and
// clamped to [0, Length].
type Segment interface {
	Kind() Kind
	Start() geometry.Point
	End() geometry.Point
	Length() float64
	PointAt(distance float64) geometry.Point
	HeadingAt(distance float64) float64
	ControlPoints() []geometry.Point
}

var (
	_ Segment = Linear{}
	_ Segment = (*Curve)(nil)
)

// Linear is a straight run between two waypoints.
type Linear struct {
	From geometry.Point
	To   geometry.Point
}

func (l Linear) Kind() Kind                      { return KindLinear }
func (l Linear) Start() geometry.Point           { return l.From }
func (l Linear) End() geometry.Point             { return l.To }
func (l Linear) Length() float64                 { return l.From.Distance(l.To) }
func (l Linear) HeadingAt(float64) float64       { return geometry.Bearing(l.From, l.To) }
func (l Linear) ControlPoints() []geometry.Point { return []geometry.Point{l.From, l.To} }

func (l Linear) PointAt(distance float64) geometry.Point {
	length := l.Length()
	if length == 0 || distance <= 0 {
		return l.From
	}
	if distance >= length {
		return l.To
	}
	return l.From.Lerp(l.To, distance/length)
}

// Curve is a monotone cubic through three or more waypoints. Arc length is
// approximated by a polyline sampled from the fitted curve.
type Curve struct {
	spline *spline.Interpolator
	params []float64 // spline parameter per sample
	arc    []float64 // cumulative arc length per sample
}

func newCurve(points []geometry.Point, resolution int) (*Curve, error) {
	s, err := spline.New(points)
	if err != nil {
		return nil, err
	}

	samples := resolution * (len(points) - 1)
	params := make([]float64, samples+1)
	arc := make([]float64, samples+1)
	prev := s.Start()
	for i := 1; i <= samples; i++ {
		params[i] = s.Span() * float64(i) / float64(samples)
		p := s.At(params[i])
		arc[i] = arc[i-1] + prev.Distance(p)
		prev = p
	}
	return &Curve{spline: s, params: params, arc: arc}, nil
}

func (c *Curve) Kind() Kind                      { return KindCurve }
func (c *Curve) Start() geometry.Point           { return c.spline.Start() }
func (c *Curve) End() geometry.Point             { return c.spline.End() }
func (c *Curve) Length() float64                 { return c.arc[len(c.arc)-1] }
func (c *Curve) ControlPoints() []geometry.Point { return c.spline.ControlPoints() }

func (c *Curve) PointAt(distance float64) geometry.Point {
	return c.spline.At(c.param(distance))
}

func (c *Curve) HeadingAt(distance float64) float64 {
	return c.spline.Heading(c.param(distance))
}

// param maps an arc-length distance to the spline parameter.
func (c *Curve) param(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	if distance >= c.Length() {
		return c.spline.Span()
	}
	i := sort.SearchFloat64s(c.arc, distance)
	lo, hi := c.arc[i-1], c.arc[i]
	if hi == lo {
		return c.params[i]
	}
	f := (distance - lo) / (hi - lo)
	return c.params[i-1] + f*(c.params[i]-c.params[i-1])
}
