package geometry

import "errors"

// ErrInvalidPath reports waypoints that cannot describe a path: too few
// points, or points outside the configured field bounds.
var ErrInvalidPath = errors.New("invalid path")
