package trajectory

import (
	"fmt"

	"github.com/zeusync/motion/internal/core/geometry"
)

const (
	DefaultMaxCurvePoints   = 8
	DefaultSampleResolution = 32
)

// Builder converts waypoint paths into trajectories. A Builder holds only
// configuration and is safe for concurrent use.
type Builder struct {
	maxCurvePoints int
	resolution     int
}

type Option func(*Builder)

// WithMaxCurvePoints caps the number of control points fitted by a single
// curve. Longer runs are split into contiguous curves sharing endpoints.
func WithMaxCurvePoints(n int) Option {
	return func(b *Builder) {
		if n >= 3 {
			b.maxCurvePoints = n
		}
	}
}

// WithSampleResolution sets how many arc-length samples are taken between
// each pair of curve control points.
func WithSampleResolution(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.resolution = n
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		maxCurvePoints: DefaultMaxCurvePoints,
		resolution:     DefaultSampleResolution,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a trajectory from waypoints. Consecutive duplicates are
// dropped first, so [A A B B C] and [A B C] build identical trajectories.
// Two distinct waypoints give one Linear segment; three or more give curves.
func (b *Builder) Build(waypoints geometry.Path) (*Trajectory, error) {
	if !waypoints.Finite() {
		return nil, fmt.Errorf("%w: non-finite waypoint in %v", ErrInvalidPath, waypoints)
	}
	pts := waypoints.Dedup()
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct waypoints, got %d", ErrInvalidPath, len(pts))
	}

	var segments []Segment
	if len(pts) == 2 {
		segments = []Segment{Linear{From: pts[0], To: pts[1]}}
	} else {
		for start := 0; start < len(pts)-1; {
			end := min(start+b.maxCurvePoints, len(pts))
			run := pts[start:end]

			if len(run) == 2 {
				segments = append(segments, Linear{From: run[0], To: run[1]})
			} else {
				c, err := newCurve(run, b.resolution)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
				}
				segments = append(segments, c)
			}
			start = end - 1
		}
	}

	tr := newTrajectory(segments)
	if !tr.finite() {
		return nil, fmt.Errorf("%w: trajectory length %v", ErrInvalidPath, tr.length)
	}
	return tr, nil
}
