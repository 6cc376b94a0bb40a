// Package pathing finds waypoint paths between two field positions by trying
// a priority-ordered chain of interchangeable strategies.
package pathing

import (
	"context"

	"github.com/zeusync/motion/internal/core/geometry"
)

// Strategy is one path finding algorithm. An empty path means the strategy
// found nothing; errors are reserved for failures of the strategy itself.
type Strategy interface {
	Name() string
	FindPath(ctx context.Context, start, end geometry.Point) (geometry.Path, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, start, end geometry.Point) (geometry.Path, error)
}

func (f StrategyFunc) Name() string { return f.Label }

func (f StrategyFunc) FindPath(ctx context.Context, start, end geometry.Point) (geometry.Path, error) {
	return f.Fn(ctx, start, end)
}

// StraightLine returns the direct segment from start to end unless Blocked
// reports it obstructed. It is the cheapest strategy and usually goes first.
type StraightLine struct {
	Blocked func(a, b geometry.Point) bool
}

func (StraightLine) Name() string { return "straight" }

func (s StraightLine) FindPath(_ context.Context, start, end geometry.Point) (geometry.Path, error) {
	if s.Blocked != nil && s.Blocked(start, end) {
		return geometry.Path{}, nil
	}
	return geometry.Path{start, end}, nil
}
