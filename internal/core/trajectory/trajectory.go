// Package trajectory turns waypoint paths into drivable sequences of
// straight and curved segments.
package trajectory

import (
	"math"
	"sort"

	"github.com/zeusync/motion/internal/core/geometry"
)

// ErrInvalidPath is returned when waypoints cannot form a trajectory.
var ErrInvalidPath = geometry.ErrInvalidPath

// Trajectory is an immutable, ordered run of contiguous segments.
type Trajectory struct {
	segments []Segment
	offsets  []float64 // distance from trajectory start to each segment start
	length   float64
}

func newTrajectory(segments []Segment) *Trajectory {
	offsets := make([]float64, len(segments))
	total := 0.0
	for i, s := range segments {
		offsets[i] = total
		total += s.Length()
	}
	return &Trajectory{segments: segments, offsets: offsets, length: total}
}

// Segments returns a copy of the segment list.
func (t *Trajectory) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

func (t *Trajectory) Len() int              { return len(t.segments) }
func (t *Trajectory) Length() float64       { return t.length }
func (t *Trajectory) Start() geometry.Point { return t.segments[0].Start() }
func (t *Trajectory) End() geometry.Point   { return t.segments[len(t.segments)-1].End() }

// Waypoints returns the control points of every segment with shared
// endpoints listed once.
func (t *Trajectory) Waypoints() geometry.Path {
	var out geometry.Path
	for i, s := range t.segments {
		cp := s.ControlPoints()
		if i > 0 {
			cp = cp[1:]
		}
		out = append(out, cp...)
	}
	return out
}

// PointAt returns the point at distance along the whole trajectory.
func (t *Trajectory) PointAt(distance float64) geometry.Point {
	i, local := t.locate(distance)
	return t.segments[i].PointAt(local)
}

// HeadingAt returns the direction of travel in degrees at distance.
func (t *Trajectory) HeadingAt(distance float64) float64 {
	i, local := t.locate(distance)
	return t.segments[i].HeadingAt(local)
}

func (t *Trajectory) locate(distance float64) (int, float64) {
	if distance <= 0 || math.IsNaN(distance) || !t.finite() {
		return 0, 0
	}
	if distance >= t.length {
		last := len(t.segments) - 1
		return last, t.segments[last].Length()
	}
	i := sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > distance }) - 1
	return i, distance - t.offsets[i]
}

func (t *Trajectory) finite() bool {
	return !math.IsNaN(t.length) && !math.IsInf(t.length, 0)
}

// Closest returns the distance along the trajectory nearest to p.
func (t *Trajectory) Closest(p geometry.Point) float64 {
	return t.Project(p, 0, t.length/500)
}

// Project returns the distance along the trajectory of the sampled point
// closest to p, searching forward from hint. step is the sampling interval.
func (t *Trajectory) Project(p geometry.Point, hint, step float64) float64 {
	if !t.finite() || math.IsNaN(hint) {
		return 0
	}
	if math.IsNaN(step) || step <= 0 {
		step = t.length / 100
	}
	if step <= 0 {
		return 0
	}
	best, bestDist := hint, math.Inf(1)
	for d := math.Max(0, hint); ; d += step {
		if d > t.length {
			d = t.length
		}
		if dist := t.PointAt(d).Distance(p); dist < bestDist {
			best, bestDist = d, dist
		}
		if d >= t.length {
			break
		}
	}
	return best
}
