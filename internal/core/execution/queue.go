package execution

import (
	"context"
	"sync"
	"time"

	"github.com/zeusync/motion/internal/core/follower"
	"github.com/zeusync/motion/pkg/sequence"
)

type entry struct {
	follower   follower.Follower
	state      follower.State
	calculated bool
	faults     int
	ticks      uint64
	queuedAt   time.Time
}

// Status describes one queued follower.
type Status struct {
	ID       string
	Name     string
	State    follower.State
	Faults   int
	Ticks    uint64
	QueuedAt time.Time
}

func (e *entry) event(err error) FollowerEvent {
	return FollowerEvent{
		ID:    e.follower.ID(),
		Name:  e.follower.Name(),
		State: e.state,
		Err:   err,
	}
}

func (e *entry) status() Status {
	return Status{
		ID:       e.follower.ID(),
		Name:     e.follower.Name(),
		State:    e.state,
		Faults:   e.faults,
		Ticks:    e.ticks,
		QueuedAt: e.queuedAt,
	}
}

// followerQueue is the FIFO of pending followers. Every read and mutation
// goes through mu; idle is broadcast whenever the queue becomes empty.
type followerQueue struct {
	mu     sync.Mutex
	idle   *sync.Cond
	items  *sequence.Queue[*entry]
	closed bool
}

func newFollowerQueue() *followerQueue {
	q := &followerQueue{items: sequence.NewQueue[*entry](8)}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// push appends entries in order. It reports false, queueing nothing, once
// the queue is closed.
func (q *followerQueue) push(entries ...*entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	for _, e := range entries {
		q.items.Enqueue(e)
	}
	return true
}

func (q *followerQueue) head() (*entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Peek()
}

// pop removes e if it is still the head. Clear may have dropped it while
// the tick was running.
func (q *followerQueue) pop(e *entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	head, ok := q.items.Peek()
	if !ok || head != e {
		return false
	}
	q.items.Dequeue()
	if q.items.IsEmpty() {
		q.idle.Broadcast()
	}
	return true
}

// update applies fn to an entry under the queue lock so snapshots never see
// a torn entry.
func (q *followerQueue) update(e *entry, fn func(*entry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn(e)
}

func (q *followerQueue) clear() []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.items.Clear()
	q.idle.Broadcast()
	return dropped
}

// close drops every entry and rejects later pushes.
func (q *followerQueue) close() []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	dropped := q.items.Clear()
	q.idle.Broadcast()
	return dropped
}

func (q *followerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *followerQueue) snapshot() []Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items.Snapshot()
	out := make([]Status, len(items))
	for i, e := range items {
		out[i] = e.status()
	}
	return out
}

// waitEmpty blocks until the queue is empty or ctx is done.
func (q *followerQueue) waitEmpty(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.idle.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.items.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.idle.Wait()
	}
	return nil
}
