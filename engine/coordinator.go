package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/status"
)

// PhysicsStep advances buffer cur into buffer next for step tick
// Returns the number of collisions emitted
type PhysicsStep interface {
	Step(cur, next int, tick uint64) int
}

// RenderPass snapshots and draws buffer buf
type RenderPass interface {
	Present(buf int) error
}

// State is the coordinator lifecycle state
type State int32

const (
	StateIdle State = iota
	StatePhysicsRequested
	StateRenderRequested
	StateRenderDone
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePhysicsRequested:
		return "physics-requested"
	case StateRenderRequested:
		return "render-requested"
	case StateRenderDone:
		return "render-done"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CoordinatorOptions tunes the handshake
type CoordinatorOptions struct {
	// AutoRender queues a render pass whenever a physics step publishes
	// Lockstep mode sets it; free-running mode requests renders on its own cadence
	AutoRender bool

	Logger *slog.Logger
	Status *status.Registry
}

// Coordinator owns the double-buffer hand-off between the physics and render workers
//
// Protocol (single mutex, single condition variable):
//   - physics pending iff physicsRequested > physicsTaken; render pending iff renderRequested > renderTaken
//   - each worker waits on (!running || pending), consumes under the lock, works unlocked
//   - physics writes back buffer, publishes it (release store), then queues a render when AutoRender
//   - render pins the front buffer (acquire load) for the duration of its pass
//   - physics waits while the buffer it is about to write is pinned, so no buffer is ever read and written at once
//
// Requests made while one is already pending are coalesced
type Coordinator struct {
	store   *Store
	physics PhysicsStep
	render  RenderPass
	opts    CoordinatorOptions
	logger  *slog.Logger

	mu   sync.Mutex
	cond *sync.Cond

	running bool
	started bool
	state   State

	physicsRequested uint64
	physicsTaken     uint64
	physicsCompleted uint64

	renderRequested uint64
	renderTaken     uint64
	renderCompleted uint64

	pins [2]int

	done    chan struct{}
	err     error
	stopErr error

	statTicks      *atomic.Int64
	statFrames     *atomic.Int64
	statCollisions *atomic.Int64
	statDrawErrors *atomic.Int64
	statState      *status.AtomicString
	statStepMicros *status.AtomicFloat
	statStopping   *atomic.Bool
}

// NewCoordinator wires the workers to the store; call Start to launch them
func NewCoordinator(store *Store, physics PhysicsStep, render RenderPass, opts CoordinatorOptions) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}
	c := &Coordinator{
		store:          store,
		physics:        physics,
		render:         render,
		opts:           opts,
		logger:         opts.Logger.With("component", "coordinator"),
		done:           make(chan struct{}),
		statTicks:      opts.Status.Ints.Get(status.KeyTicks),
		statFrames:     opts.Status.Ints.Get(status.KeyFrames),
		statCollisions: opts.Status.Ints.Get(status.KeyCollisions),
		statDrawErrors: opts.Status.Ints.Get(status.KeyDrawErrors),
		statState:      opts.Status.Strings.Get(status.KeyState),
		statStepMicros: opts.Status.Floats.Get(status.KeyStepMicros),
		statStopping:   opts.Status.Bools.Get(status.KeyStopping),
	}
	c.cond = sync.NewCond(&c.mu)
	c.statState.Store(StateIdle.String())
	return c
}

// Start launches the physics and render workers
// A coordinator is single-use: Start after Stop returns core.ErrStopped
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		if c.running {
			return nil
		}
		return core.ErrStopped
	}
	c.started = true
	c.running = true
	c.setStateLocked(StateIdle)

	var g errgroup.Group
	g.Go(c.worker("physics", c.physicsLoop))
	g.Go(c.worker("render", c.renderLoop))
	core.Go(func() {
		err := g.Wait()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})

	c.logger.Debug("workers started", "autoRender", c.opts.AutoRender)
	return nil
}

// worker wraps a loop so a failure in either worker stops its peer
func (c *Coordinator) worker(name string, loop func() error) func() error {
	return func() error {
		err := core.Safe(name, loop)
		if err != nil {
			c.logger.Error("worker failed", "worker", name, "error", err)
			c.halt()
		}
		return err
	}
}

// RequestPhysics queues one physics step and returns the tick it will produce
// Coalesces with a request that no worker has taken yet
func (c *Coordinator) RequestPhysics() (uint64, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return 0, core.ErrStopped
	}
	if c.physicsRequested == c.physicsTaken {
		c.physicsRequested++
	}
	tick := c.physicsRequested
	c.setStateLocked(StatePhysicsRequested)
	c.mu.Unlock()
	c.cond.Broadcast()
	return tick, nil
}

// RequestRender queues one render pass of whatever buffer is current when the pass starts
func (c *Coordinator) RequestRender() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return core.ErrStopped
	}
	if c.renderRequested == c.renderTaken {
		c.renderRequested++
	}
	if c.physicsRequested == c.physicsCompleted {
		c.setStateLocked(StateRenderRequested)
	}
	c.mu.Unlock()
	c.cond.Broadcast()
	return nil
}

// WaitDone blocks until every requested physics step and render pass has completed
// Returns core.ErrStopped if the pipeline stops first and core.ErrHandshakeTimeout when ctx expires
func (c *Coordinator) WaitDone(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.physicsCompleted >= c.physicsRequested && c.renderCompleted >= c.renderRequested {
			return nil
		}
		if !c.running {
			return core.ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w at tick %d: %w", core.ErrHandshakeTimeout, c.physicsRequested, err)
		}
		c.cond.Wait()
	}
}

// Stop clears the running flag, wakes both workers, and joins them within timeout
// Each worker finishes at most its in-flight pass and exits without consuming pending requests
// Returns core.ErrShutdownTimeout if a worker does not join in time, or the first worker failure
func (c *Coordinator) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.setStateLocked(StateStopped)
		c.mu.Unlock()
		close(c.done)
		return nil
	}
	if c.state == StateStopped {
		err := c.stopErr
		c.mu.Unlock()
		return err
	}
	c.running = false
	c.setStateLocked(StateStopping)
	c.statStopping.Store(true)
	c.mu.Unlock()
	c.cond.Broadcast()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		c.logger.Error("workers did not join", "timeout", timeout)
		return fmt.Errorf("%w after %v", core.ErrShutdownTimeout, timeout)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopErr = c.err
	c.setStateLocked(StateStopped)
	c.logger.Debug("workers joined", "ticks", c.physicsCompleted, "frames", c.renderCompleted)
	return c.stopErr
}

// Done is closed once both workers have exited
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tick returns the number of completed physics steps
func (c *Coordinator) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.physicsCompleted
}

// Frames returns the number of completed render passes
func (c *Coordinator) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderCompleted
}

// halt stops the workers without joining, used when a worker fails
func (c *Coordinator) halt() {
	c.mu.Lock()
	c.running = false
	if c.state != StateStopped {
		c.setStateLocked(StateStopping)
	}
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Coordinator) physicsLoop() error {
	for {
		c.mu.Lock()
		for c.running && c.physicsRequested == c.physicsTaken {
			c.cond.Wait()
		}
		if !c.running {
			c.mu.Unlock()
			return nil
		}
		c.physicsTaken++
		tick := c.physicsTaken

		cur := c.store.FrontIndex()
		next := 1 - cur
		for c.running && c.pins[next] > 0 {
			c.cond.Wait()
		}
		if !c.running {
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		start := time.Now()
		collisions := c.physics.Step(cur, next, tick)
		c.store.Publish(next)
		elapsed := time.Since(start)

		c.mu.Lock()
		c.physicsCompleted = tick
		if c.opts.AutoRender {
			c.renderRequested++
			c.setStateLocked(StateRenderRequested)
		} else if c.physicsRequested == c.physicsCompleted && c.renderRequested == c.renderCompleted {
			c.setStateLocked(StateIdle)
		}
		c.mu.Unlock()
		c.cond.Broadcast()

		c.statTicks.Store(int64(tick))
		c.statCollisions.Add(int64(collisions))
		c.statStepMicros.Smooth(float64(elapsed.Microseconds()), 0.1)
	}
}

func (c *Coordinator) renderLoop() error {
	for {
		c.mu.Lock()
		for c.running && c.renderRequested == c.renderTaken {
			c.cond.Wait()
		}
		if !c.running {
			c.mu.Unlock()
			return nil
		}
		c.renderTaken = c.renderRequested
		taken := c.renderTaken
		buf := c.store.FrontIndex()
		c.pins[buf]++
		c.mu.Unlock()

		err := c.render.Present(buf)

		c.mu.Lock()
		c.pins[buf]--
		c.renderCompleted = taken
		if c.physicsRequested == c.physicsCompleted && c.renderRequested == c.renderCompleted {
			c.setStateLocked(StateRenderDone)
		}
		c.mu.Unlock()
		c.cond.Broadcast()

		c.statFrames.Add(1)
		if err != nil {
			// Sink failures are reported, not fatal: the next pass redraws the whole surface
			c.statDrawErrors.Add(1)
			c.logger.Warn("render pass failed", "buffer", buf, "error", err)
		}
	}
}

func (c *Coordinator) setStateLocked(s State) {
	if c.state == StateStopping && s != StateStopped {
		return
	}
	c.state = s
	c.statState.Store(s.String())
}
