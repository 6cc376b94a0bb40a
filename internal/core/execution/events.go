package execution

import (
	"github.com/zeusync/motion/internal/core/events/bus"
	"github.com/zeusync/motion/internal/core/follower"
	"github.com/zeusync/motion/internal/core/observability/log"
)

// Lifecycle event types published on the engine's bus.
const (
	EventQueued     = "follower.queued"
	EventCalculated = "follower.calculated"
	EventActivated  = "follower.activated"
	EventCompleted  = "follower.completed"
	EventFault      = "follower.fault"
	EventAborted    = "follower.aborted"
	EventCancelled  = "follower.cancelled"
)

const eventSource = "execution"

// FollowerEvent is the payload of every lifecycle event.
type FollowerEvent struct {
	ID    string
	Name  string
	State follower.State
	Err   error
}

// Fault is a single failed tick.
type Fault struct {
	FollowerID string
	Name       string
	Phase      string
	Err        error
	// Consecutive counts back to back faults for this follower.
	Consecutive int
}

func (f Fault) Error() string {
	return f.Name + " " + f.Phase + ": " + f.Err.Error()
}

func (f Fault) Unwrap() error { return f.Err }

func (e *Engine) publish(typ string, en *entry, err error) {
	e.publishEvent(typ, en.event(err))
}

func (e *Engine) publishEvent(typ string, payload FollowerEvent) {
	if e.bus == nil {
		return
	}
	ev := bus.NewEvent(typ, eventSource, payload)
	if perr := e.bus.Publish(ev); perr != nil {
		e.logger.Warn("Event handler failed", log.String("event", typ), log.Error(perr))
	}
}
