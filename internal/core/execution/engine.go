// Package execution runs followers one at a time against a drivetrain.
//
// Followers wait in a FIFO queue. Each tick the engine looks at the head:
// a follower that is not done is calculated once, then updated and driven;
// a done follower is popped and manual control is handed back to the
// driver. Only the head is ever active, and manual control is disabled for
// exactly as long as a follower is driving.
package execution

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/motion/internal/core/drivetrain"
	"github.com/zeusync/motion/internal/core/events/bus"
	"github.com/zeusync/motion/internal/core/follower"
	"github.com/zeusync/motion/internal/core/observability/log"
)

// Config tunes the tick loop.
type Config struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// MaxFaults aborts a follower after this many consecutive failed
	// ticks. Zero keeps it forever.
	MaxFaults int `yaml:"max_faults"`
	// FaultBuffer sizes the Faults channel. Faults are dropped when the
	// buffer is full.
	FaultBuffer int `yaml:"fault_buffer"`
}

func DefaultConfig() Config {
	return Config{
		TickInterval: 20 * time.Millisecond,
		MaxFaults:    5,
		FaultBuffer:  64,
	}
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval %v must be positive", c.TickInterval)
	}
	if c.MaxFaults < 0 {
		return fmt.Errorf("max faults %d must not be negative", c.MaxFaults)
	}
	if c.FaultBuffer < 0 {
		return fmt.Errorf("fault buffer %d must not be negative", c.FaultBuffer)
	}
	return nil
}

type Option func(*Engine)

func WithLogger(l log.Log) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("execution")
		}
	}
}

// WithBus publishes follower lifecycle events on b.
func WithBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

// Stats is a point in time view of the engine counters.
type Stats struct {
	Ticks     uint64
	Faults    uint64
	Completed uint64
	Aborted   uint64
	Queued    int
	Running   bool
}

type Engine struct {
	cfg    Config
	drive  drivetrain.Drive
	logger log.Log
	bus    bus.EventBus
	queue  *followerQueue
	faults chan Fault

	// tickMu serializes ticks with Clear and Close.
	tickMu sync.Mutex

	lifecycle sync.Mutex
	stopChan  chan struct{}
	doneChan  chan struct{}
	closed    atomic.Bool

	ticks      atomic.Uint64
	faultCount atomic.Uint64
	completed  atomic.Uint64
	aborted    atomic.Uint64
}

func New(drive drivetrain.Drive, cfg Config, opts ...Option) (*Engine, error) {
	if drive == nil {
		return nil, ErrNilDrive
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		drive:  drive,
		logger: log.NewNop(),
		queue:  newFollowerQueue(),
		faults: make(chan Fault, cfg.FaultBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Queue appends f to the end of the queue.
func (e *Engine) Queue(f follower.Follower) error {
	return e.QueueAll(f)
}

// QueueAll appends followers in order. Either all of them are queued or
// none is.
func (e *Engine) QueueAll(fs ...follower.Follower) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	entries := make([]*entry, 0, len(fs))
	events := make([]FollowerEvent, 0, len(fs))
	now := time.Now()
	for i, f := range fs {
		if f == nil {
			return fmt.Errorf("follower %d: %w", i, ErrNilFollower)
		}
		en := &entry{follower: f, state: follower.StateQueued, queuedAt: now}
		entries = append(entries, en)
		events = append(events, en.event(nil))
	}
	// The loop may pick entries up as soon as they are pushed.
	if !e.queue.push(entries...) {
		return ErrEngineClosed
	}
	for _, ev := range events {
		e.logger.Debug("Follower queued",
			log.String("follower_id", ev.ID),
			log.String("follower", ev.Name))
		e.publishEvent(EventQueued, ev)
	}
	return nil
}

// Clear drops every queued follower, including the active one, halts the
// drive if something was driving and hands control back to the driver.
func (e *Engine) Clear() int {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.cancel(e.queue.clear())
}

// cancel halts and reports followers dropped from the queue. The caller
// holds tickMu.
func (e *Engine) cancel(dropped []*entry) int {
	for _, en := range dropped {
		if en.state == follower.StateActive {
			if err := e.drive.Halt(); err != nil {
				e.logger.Warn("Halt failed", log.Error(err))
			}
		}
		en.state = follower.StateDone
		e.publish(EventCancelled, en, nil)
	}
	e.drive.EnableUserControl()
	if len(dropped) > 0 {
		e.logger.Info("Queue cleared", log.Int("dropped", len(dropped)))
	}
	return len(dropped)
}

func (e *Engine) Len() int     { return e.queue.len() }
func (e *Engine) IsIdle() bool { return e.queue.len() == 0 }

// Snapshot lists the queued followers, head first.
func (e *Engine) Snapshot() []Status { return e.queue.snapshot() }

// Faults delivers failed ticks. The channel is closed by Close.
func (e *Engine) Faults() <-chan Fault { return e.faults }

func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:     e.ticks.Load(),
		Faults:    e.faultCount.Load(),
		Completed: e.completed.Load(),
		Aborted:   e.aborted.Load(),
		Queued:    e.queue.len(),
		Running:   e.Running(),
	}
}

// WaitUntilIdle blocks until the queue is empty. Followers queued while
// waiting extend the wait.
func (e *Engine) WaitUntilIdle(ctx context.Context) error {
	return e.queue.waitEmpty(ctx)
}

// Lock blocks until the queue is empty.
func (e *Engine) Lock() {
	_ = e.queue.waitEmpty(context.Background())
}

// Tick runs one iteration of the follower protocol.
func (e *Engine) Tick(ctx context.Context) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.ticks.Add(1)
	en, ok := e.queue.head()
	if !ok {
		return
	}

	var abortErr error
	if !en.follower.Done() {
		abortErr = e.step(ctx, en)
	}
	if abortErr != nil || en.follower.Done() {
		e.finish(en, abortErr)
	}
}

// step advances a follower that is not done. A non-nil result means the
// follower must be dropped.
func (e *Engine) step(ctx context.Context, en *entry) error {
	f := en.follower
	if !en.calculated {
		en.calculated = true
		e.queue.update(en, func(en *entry) { en.state = follower.StateCalculating })
		if err := guard(ctx, f.Calculate); err != nil {
			e.fault(en, "calculate", err)
			return err
		}
		e.publish(EventCalculated, en, nil)
	}

	e.drive.DisableUserControl()
	if en.state != follower.StateActive {
		e.queue.update(en, func(en *entry) { en.state = follower.StateActive })
		e.logger.Info("Follower active",
			log.String("follower_id", f.ID()),
			log.String("follower", f.Name()))
		e.publish(EventActivated, en, nil)
	}

	phase := "update"
	err := guard(ctx, f.Update)
	if err == nil {
		phase = "drive"
		err = guard(ctx, f.Drive)
	}
	e.queue.update(en, func(en *entry) {
		en.ticks++
		if err == nil {
			en.faults = 0
		}
	})
	if err == nil {
		return nil
	}
	if consecutive := e.fault(en, phase, err); e.cfg.MaxFaults > 0 && consecutive >= e.cfg.MaxFaults {
		return fmt.Errorf("%d consecutive faults: %w", consecutive, err)
	}
	return nil
}

// finish retires the head. Waiters are released by the pop, so it comes
// last: by then control is back with the driver and the event is out.
func (e *Engine) finish(en *entry, abortErr error) {
	if abortErr != nil && en.state == follower.StateActive {
		if err := e.drive.Halt(); err != nil {
			e.logger.Warn("Halt failed", log.Error(err))
		}
	}
	e.queue.update(en, func(en *entry) { en.state = follower.StateDone })
	e.drive.EnableUserControl()

	fields := []log.Field{
		log.String("follower_id", en.follower.ID()),
		log.String("follower", en.follower.Name()),
		log.Uint64("ticks", en.ticks),
	}
	if abortErr != nil {
		e.aborted.Add(1)
		e.logger.Error("Follower aborted", append(fields, log.Error(abortErr))...)
		e.publish(EventAborted, en, abortErr)
	} else {
		e.completed.Add(1)
		e.logger.Info("Follower done", fields...)
		e.publish(EventCompleted, en, nil)
	}
	e.queue.pop(en)
}

// fault records a failed tick and returns the follower's consecutive count.
func (e *Engine) fault(en *entry, phase string, err error) int {
	var consecutive int
	e.queue.update(en, func(en *entry) {
		en.faults++
		consecutive = en.faults
	})
	e.faultCount.Add(1)

	e.logger.Error("Follower tick failed",
		log.String("follower_id", en.follower.ID()),
		log.String("follower", en.follower.Name()),
		log.String("phase", phase),
		log.Int("consecutive", consecutive),
		log.Error(err))
	e.publish(EventFault, en, err)

	if e.closed.Load() {
		return consecutive
	}
	select {
	case e.faults <- Fault{
		FollowerID:  en.follower.ID(),
		Name:        en.follower.Name(),
		Phase:       phase,
		Err:         err,
		Consecutive: consecutive,
	}:
	default:
		e.logger.Debug("Fault channel full, dropping fault")
	}
	return consecutive
}

func guard(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFollowerPanic, r)
		}
	}()
	return fn(ctx)
}

// Start runs the tick loop in the background until Stop, Close or ctx is
// done.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}
	if e.runningLocked() {
		return ErrAlreadyRunning
	}
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	go e.run(ctx, e.stopChan, e.doneChan)

	e.logger.Info("Execution engine started", log.Duration("tick_interval", e.cfg.TickInterval))
	return nil
}

func (e *Engine) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}
		select {
		case <-ctx.Done():
			e.logger.Debug("Tick loop context done", log.Error(ctx.Err()))
			return
		case <-stop:
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Stop asks the tick loop to exit before its next iteration. It does not
// wait; an in-flight tick finishes normally.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.stopChan != nil {
		close(e.stopChan)
		e.stopChan = nil
		e.logger.Info("Execution engine stopping")
	}
}

func (e *Engine) Running() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	return e.runningLocked()
}

func (e *Engine) runningLocked() bool {
	if e.doneChan == nil {
		return false
	}
	select {
	case <-e.doneChan:
		return false
	default:
		return true
	}
}

// Close stops the loop, waits for it, cancels whatever is still queued and
// returns control to the driver. It is safe to call more than once.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.Stop()

	e.lifecycle.Lock()
	done := e.doneChan
	e.lifecycle.Unlock()
	if done != nil {
		<-done
	}

	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.cancel(e.queue.close())
	close(e.faults)

	e.logger.Info("Execution engine closed", log.Uint64("ticks", e.ticks.Load()))
	return nil
}
