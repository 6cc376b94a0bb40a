package pathing

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/observability/log"
)

var _ Strategy = (*Dispatcher)(nil)

// Result is the outcome of a dispatch. An empty Path with a nil error means
// no strategy found a path.
type Result struct {
	Path     geometry.Path
	Strategy string
	Attempts int
}

func (r Result) Found() bool { return !r.Path.Empty() }

// Dispatcher tries strategies in priority order (index 0 first) and returns
// the first non-empty path. Cheap or approximate strategies belong ahead of
// exhaustive ones.
type Dispatcher struct {
	mu         sync.RWMutex
	strategies []Strategy
	bounds     geometry.Bounds
	logger     log.Log
}

type DispatcherOption func(*Dispatcher)

// WithBounds rejects start or end points outside the field.
func WithBounds(b geometry.Bounds) DispatcherOption {
	return func(d *Dispatcher) { d.bounds = b }
}

func WithLogger(l log.Log) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher fails with ErrNoStrategiesConfigured on an empty chain.
func NewDispatcher(strategies []Strategy, opts ...DispatcherOption) (*Dispatcher, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategiesConfigured
	}
	for i, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("%w: strategy %d is nil", ErrNoStrategiesConfigured, i)
		}
	}
	d := &Dispatcher{
		strategies: append([]Strategy(nil), strategies...),
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("dispatcher")
	return d, nil
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Add appends s at the lowest priority.
func (d *Dispatcher) Add(s Strategy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.strategies = append(d.strategies, s)
}

// InsertAt places s at index, shifting lower priority strategies back.
func (d *Dispatcher) InsertAt(index int, s Strategy) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index > len(d.strategies) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, len(d.strategies))
	}
	d.strategies = append(d.strategies, nil)
	copy(d.strategies[index+1:], d.strategies[index:])
	d.strategies[index] = s
	return nil
}

// Remove drops the first strategy with the given name.
func (d *Dispatcher) Remove(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.strategies {
		if s.Name() == name {
			d.strategies = append(d.strategies[:i], d.strategies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
}

// Strategies returns the chain in priority order.
func (d *Dispatcher) Strategies() []Strategy {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Strategy(nil), d.strategies...)
}

func (d *Dispatcher) FindPath(ctx context.Context, start, end geometry.Point) (geometry.Path, error) {
	res, err := d.Dispatch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Dispatch walks the chain and reports which strategy produced the path.
// Strategy errors are logged and treated like an empty result so one broken
// strategy cannot block the rest of the chain.
func (d *Dispatcher) Dispatch(ctx context.Context, start, end geometry.Point) (Result, error) {
	if !start.Finite() || !end.Finite() {
		return Result{}, fmt.Errorf("%w: %v -> %v is not finite", ErrInvalidPath, start, end)
	}
	if !d.bounds.IsZero() && (!d.bounds.Contains(start) || !d.bounds.Contains(end)) {
		return Result{}, fmt.Errorf("%w: %v -> %v outside field bounds", ErrInvalidPath, start, end)
	}

	strategies := d.Strategies()
	if len(strategies) == 0 {
		return Result{}, ErrNoStrategiesConfigured
	}

	res := Result{Path: geometry.Path{}}
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts++

		path, err := s.FindPath(ctx, start, end)
		if err != nil {
			d.logger.Warn("Strategy failed",
				log.String("strategy", s.Name()),
				log.Error(err),
			)
			continue
		}
		if !path.Empty() {
			res.Path = path.Clone()
			res.Strategy = s.Name()
			d.logger.Debug("Path found",
				log.String("strategy", s.Name()),
				log.Int("waypoints", len(path)),
				log.Int("attempts", res.Attempts),
			)
			return res, nil
		}
	}

	d.logger.Info("No path found",
		log.Any("start", start),
		log.Any("end", end),
		log.Int("attempts", res.Attempts),
	)
	return res, nil
}
