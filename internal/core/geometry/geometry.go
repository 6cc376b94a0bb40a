package geometry

import "math"

// Point is an immutable 2D field coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(o Point) Point              { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Sub(o Point) Point              { return Point{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Point) Scale(k float64) Point          { return Point{X: p.X * k, Y: p.Y * k} }
func (p Point) Norm() float64                  { return math.Hypot(p.X, p.Y) }
func (p Point) Distance(o Point) float64       { return math.Hypot(o.X-p.X, o.Y-p.Y) }
func (p Point) Equal(o Point) bool             { return p.X == o.X && p.Y == o.Y }
func (p Point) Near(o Point, eps float64) bool { return p.Distance(o) <= eps }

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Lerp returns the point a fraction t of the way from p to o.
func (p Point) Lerp(o Point, t float64) Point {
	return Point{X: p.X + (o.X-p.X)*t, Y: p.Y + (o.Y-p.Y)*t}
}

// Rotate rotates p counter-clockwise around the origin.
func (p Point) Rotate(degrees float64) Point {
	s, c := math.Sincos(Radians(degrees))
	return Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// HeadingPoint is a position plus a facing angle in degrees.
type HeadingPoint struct {
	Point   `yaml:",inline"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// NewHeadingPoint builds a HeadingPoint with the heading normalized to [0, 360).
func NewHeadingPoint(x, y, heading float64) HeadingPoint {
	return HeadingPoint{Point: Point{X: x, Y: y}, Heading: Fix(heading)}
}

// Path is an ordered list of waypoints. An empty path means no path was found.
type Path []Point

func (p Path) Empty() bool { return len(p) == 0 }

// First returns the first waypoint; ok is false on an empty path.
func (p Path) First() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[0], true
}

// Last returns the final waypoint; ok is false on an empty path.
func (p Path) Last() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[len(p)-1], true
}

// Length is the sum of straight-line distances between consecutive waypoints.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].Distance(p[i])
	}
	return total
}

// Dedup returns a copy of p with consecutive duplicate waypoints removed.
func (p Path) Dedup() Path {
	out := make(Path, 0, len(p))
	for i, pt := range p {
		if i > 0 && pt.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, pt)
	}
	return out
}

// Finite reports whether every waypoint is finite.
func (p Path) Finite() bool {
	for _, pt := range p {
		if !pt.Finite() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy; never nil.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Bounds is an axis aligned rectangle.
type Bounds struct {
	Min Point `json:"min" yaml:"min"`
	Max Point `json:"max" yaml:"max"`
}

func (b Bounds) IsZero() bool { return b.Min.Equal(Point{}) && b.Max.Equal(Point{}) }

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Crosses reports whether the segment a-b touches the rectangle.
func (b Bounds) Crosses(a, c Point) bool {
	t0, t1 := 0.0, 1.0
	d := c.Sub(a)
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = math.Min(t1, r)
		}
		return true
	}
	return clip(-d.X, a.X-b.Min.X) &&
		clip(d.X, b.Max.X-a.X) &&
		clip(-d.Y, a.Y-b.Min.Y) &&
		clip(d.Y, b.Max.Y-a.Y)
}
