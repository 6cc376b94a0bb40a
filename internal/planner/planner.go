// Package planner wires path generation, trajectory building and follower
// execution into one entry point for a chassis.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/events/bus"
	"github.com/zeusync/motion/internal/core/execution"
	"github.com/zeusync/motion/internal/core/follower"
	"github.com/zeusync/motion/internal/core/geometry"
	"github.com/zeusync/motion/internal/core/observability/log"
	"github.com/zeusync/motion/internal/core/pathing"
	"github.com/zeusync/motion/internal/core/trajectory"
	"github.com/zeusync/motion/pkg/concurrent"
)

// ErrNoPath is returned by FollowTo when every strategy came back empty.
var ErrNoPath = errors.New("no path found")

type Planner struct {
	cfg    config.Config
	logger log.Log

	drive drivetrain.Drive
	pos   drivetrain.PositionSource
	bus   bus.EventBus

	dispatcher *pathing.Dispatcher
	builder    *trajectory.Builder
	engine     *execution.Engine
	caches     []*pathing.Cached
}

func New(cfg *config.Config, drive drivetrain.Drive, pos drivetrain.PositionSource, logger log.Log, eventBus bus.EventBus) (*Planner, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	normalized := *cfg
	normalized.Normalize()
	cfg = &normalized
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if drive == nil {
		return nil, execution.ErrNilDrive
	}
	if pos == nil {
		return nil, follower.ErrNilPosition
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}

	p := &Planner{
		cfg:    *cfg,
		logger: logger.Named("planner"),
		drive:  drive,
		pos:    pos,
		bus:    eventBus,
		builder: trajectory.NewBuilder(
			trajectory.WithMaxCurvePoints(cfg.Trajectory.MaxCurvePoints),
			trajectory.WithSampleResolution(cfg.Trajectory.SampleResolution),
		),
	}

	strategies, caches, err := NewStrategies(cfg.Pathing)
	if err != nil {
		return nil, err
	}
	p.caches = caches

	opts := []pathing.DispatcherOption{pathing.WithLogger(logger)}
	if cfg.Pathing.Bounds != nil {
		opts = append(opts, pathing.WithBounds(*cfg.Pathing.Bounds))
	}
	if p.dispatcher, err = pathing.NewDispatcher(strategies, opts...); err != nil {
		return nil, err
	}

	p.engine, err = execution.New(drive, cfg.Execution, execution.WithLogger(logger), execution.WithBus(eventBus))
	if err != nil {
		return nil, fmt.Errorf("execution: %w", err)
	}

	p.logger.Info("Planner ready",
		log.String("chassis", cfg.Chassis.Type),
		log.Int("strategies", len(strategies)))
	return p, nil
}

// NewStrategies builds the configured strategy chain in priority order.
// The grid search is wrapped in a cache when caching is enabled; the caches
// are returned so their hit rates can be reported.
func NewStrategies(cfg config.PathingConfig) ([]pathing.Strategy, []*pathing.Cached, error) {
	var (
		out    []pathing.Strategy
		caches []*pathing.Cached
	)
	for _, name := range cfg.Strategies {
		var s pathing.Strategy
		switch strings.ToLower(name) {
		case config.StrategyGrid:
			grid, err := pathing.NewGrid(cfg.Grid.Origin, cfg.Grid.CellSize, cfg.Grid.Width, cfg.Grid.Height)
			if err != nil {
				return nil, nil, err
			}
			for _, o := range cfg.Grid.Obstacles {
				grid.BlockRect(o)
			}
			s = pathing.NewGridSearch(grid)
			if cfg.Cache.Enabled {
				c := pathing.NewCached(s, cfg.Cache.Resolution, cfg.Cache.Capacity)
				caches = append(caches, c)
				s = c
			}
		case config.StrategyStraight:
			obstacles := cfg.Grid.Obstacles
			s = pathing.StraightLine{Blocked: func(a, b geometry.Point) bool {
				for _, o := range obstacles {
					if o.Crosses(a, b) {
						return true
					}
				}
				return false
			}}
		default:
			return nil, nil, fmt.Errorf("%w: unknown pathing strategy %q", config.ErrInvalidConfig, name)
		}
		out = append(out, s)
	}
	return out, caches, nil
}

func (p *Planner) Logger() log.Log                           { return p.logger }
func (p *Planner) Config() config.Config                     { return p.cfg }
func (p *Planner) Dispatcher() *pathing.Dispatcher           { return p.dispatcher }
func (p *Planner) Engine() *execution.Engine                 { return p.engine }
func (p *Planner) Bus() bus.EventBus                         { return p.bus }
func (p *Planner) Position() geometry.HeadingPoint           { return p.pos.Position() }
func (p *Planner) Builder() *trajectory.Builder              { return p.builder }
func (p *Planner) Drive() drivetrain.Drive                   { return p.drive }
func (p *Planner) PositionSource() drivetrain.PositionSource { return p.pos }

// DispatchPath asks the strategy chain for a path from start to end.
func (p *Planner) DispatchPath(ctx context.Context, start, end geometry.Point) (pathing.Result, error) {
	return p.dispatcher.Dispatch(ctx, start, end)
}

func (p *Planner) BuildTrajectory(path geometry.Path) (*trajectory.Trajectory, error) {
	return p.builder.Build(path)
}

// NewFollower creates a trajectory follower tuned by the follower config.
func (p *Planner) NewFollower(tr *trajectory.Trajectory) (*follower.TrajectoryFollower, error) {
	return follower.NewTrajectoryFollower(tr, p.drive, p.pos, p.cfg.Follower)
}

func (p *Planner) QueueFollower(f follower.Follower) error {
	return p.engine.Queue(f)
}

type FollowOption func(*follower.TrajectoryFollower)

// WithHeading holds the given field heading in degrees while following.
func WithHeading(degrees float64) FollowOption {
	return func(f *follower.TrajectoryFollower) { f.WithHeading(degrees) }
}

// FollowTo plans a path from the current position to target, builds a
// trajectory through it and queues a follower. The queued follower is
// returned so callers can track it by ID.
func (p *Planner) FollowTo(ctx context.Context, target geometry.Point, opts ...FollowOption) (*follower.TrajectoryFollower, error) {
	start := p.pos.Position().Point
	res, err := p.dispatcher.Dispatch(ctx, start, target)
	if err != nil {
		return nil, fmt.Errorf("dispatch path: %w", err)
	}
	if !res.Found() {
		return nil, fmt.Errorf("%w from %v to %v", ErrNoPath, start, target)
	}

	tr, err := p.builder.Build(res.Path)
	if err != nil {
		return nil, fmt.Errorf("build trajectory: %w", err)
	}
	f, err := p.NewFollower(tr)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := p.engine.Queue(f); err != nil {
		return nil, err
	}

	p.logger.Info("Following path",
		log.String("follower_id", f.ID()),
		log.String("strategy", res.Strategy),
		log.Int("waypoints", len(res.Path)),
		log.Float64("length", tr.Length()))
	return f, nil
}

type leg struct {
	index    int
	from, to geometry.Point
}

// FollowRoute plans every leg of a multi stop route in parallel, then queues
// one follower per leg in order. Nothing is queued unless every leg has a
// path.
func (p *Planner) FollowRoute(ctx context.Context, stops []geometry.Point, opts ...FollowOption) ([]*follower.TrajectoryFollower, error) {
	if len(stops) == 0 {
		return nil, nil
	}
	legs := make([]leg, len(stops))
	from := p.pos.Position().Point
	for i, to := range stops {
		legs[i] = leg{index: i, from: from, to: to}
		from = to
	}

	trajectories, err := concurrent.Map(ctx, legs, 0, func(ctx context.Context, l leg) (*trajectory.Trajectory, error) {
		res, err := p.dispatcher.Dispatch(ctx, l.from, l.to)
		if err != nil {
			return nil, fmt.Errorf("leg %d: dispatch path: %w", l.index, err)
		}
		if !res.Found() {
			return nil, fmt.Errorf("leg %d: %w from %v to %v", l.index, ErrNoPath, l.from, l.to)
		}
		tr, err := p.builder.Build(res.Path)
		if err != nil {
			return nil, fmt.Errorf("leg %d: build trajectory: %w", l.index, err)
		}
		return tr, nil
	})
	if err != nil {
		return nil, err
	}

	followers := make([]*follower.TrajectoryFollower, len(trajectories))
	queued := make([]follower.Follower, len(trajectories))
	for i, tr := range trajectories {
		f, err := p.NewFollower(tr)
		if err != nil {
			return nil, err
		}
		for _, opt := range opts {
			opt(f)
		}
		followers[i], queued[i] = f, f
	}
	if err := p.engine.QueueAll(queued...); err != nil {
		return nil, err
	}
	p.logger.Info("Following route", log.Int("legs", len(followers)))
	return followers, nil
}

func (p *Planner) Tick(ctx context.Context)                { p.engine.Tick(ctx) }
func (p *Planner) Start(ctx context.Context) error         { return p.engine.Start(ctx) }
func (p *Planner) WaitUntilIdle(ctx context.Context) error { return p.engine.WaitUntilIdle(ctx) }
func (p *Planner) Lock()                                   { p.engine.Lock() }
func (p *Planner) Clear() int                              { return p.engine.Clear() }
func (p *Planner) Stop()                                   { p.engine.Stop() }
func (p *Planner) Close() error                            { return p.engine.Close() }

// Stats combines engine counters with path cache hit rates.
type Stats struct {
	Execution   execution.Stats
	CacheHits   uint64
	CacheMisses uint64
}

func (p *Planner) Stats() Stats {
	s := Stats{Execution: p.engine.Stats()}
	for _, c := range p.caches {
		h, m := c.Stats()
		s.CacheHits += h
		s.CacheMisses += m
	}
	return s
}
