// Package follower implements units of path following work driven by the
// execution engine: Calculate once, then Update and Drive every tick until
// Done.
package follower

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrNilTrajectory = errors.New("follower needs a trajectory")
	ErrNilDrive      = errors.New("follower needs a drive")
	ErrNilPosition   = errors.New("follower needs a position source")
	ErrNotCalculated = errors.New("follower updated before calculate")
)

// Follower is one unit of autonomous motion. The engine calls Calculate
// exactly once before the first Update, then Update followed by Drive on
// every tick while Done is false. None of the methods are called
// concurrently.
type Follower interface {
	ID() string
	Name() string
	Calculate(ctx context.Context) error
	Update(ctx context.Context) error
	Drive(ctx context.Context) error
	Done() bool
}

// State is where a follower is in its lifecycle.
type State uint8

const (
	StateQueued State = iota
	StateCalculating
	StateActive
	StateDone
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateCalculating:
		return "calculating"
	case StateActive:
		return "active"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Base carries the identity, tick budget and completion flag shared by the
// followers in this package.
type Base struct {
	id       string
	name     string
	maxTicks int
	ticks    int
	done     atomic.Bool
}

func NewBase(name string, maxTicks int) Base {
	return Base{id: uuid.NewString(), name: name, maxTicks: maxTicks}
}

func (b *Base) ID() string   { return b.id }
func (b *Base) Name() string { return b.name }
func (b *Base) Done() bool   { return b.done.Load() }
func (b *Base) Ticks() int   { return b.ticks }

// Finish marks the follower complete.
func (b *Base) Finish() { b.done.Store(true) }

// tick counts one update and finishes the follower once the budget is spent.
// A budget of zero means unlimited.
func (b *Base) tick() bool {
	b.ticks++
	if b.maxTicks > 0 && b.ticks >= b.maxTicks {
		b.Finish()
		return true
	}
	return false
}
