package pathing

import (
	"errors"

	"github.com/zeusync/motion/internal/core/geometry"
)

var (
	// ErrNoStrategiesConfigured means the dispatcher was set up without any
	// strategy. It is a configuration mistake, not an unreachable target.
	ErrNoStrategiesConfigured = errors.New("no path finding strategies configured")
	ErrInvalidPath            = geometry.ErrInvalidPath
	ErrStrategyNotFound       = errors.New("strategy not found")
	ErrIndexOutOfRange        = errors.New("strategy index out of range")
	ErrInvalidGrid            = errors.New("invalid occupancy grid")
)
