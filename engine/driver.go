package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/status"
)

// Mode selects how the driver paces physics against render
type Mode int

const (
	// ModeLockstep waits for each physics step to be rendered before the next tick
	// Every physics generation is drawn exactly once
	ModeLockstep Mode = iota

	// ModeFreeRunning paces physics and render on independent intervals
	// Frames may repeat or skip generations; no buffer is ever torn
	ModeFreeRunning
)

func (m Mode) String() string {
	switch m {
	case ModeLockstep:
		return "lockstep"
	case ModeFreeRunning:
		return "free"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string to a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lockstep", "strict":
		return ModeLockstep, nil
	case "free", "free-running", "freerunning":
		return ModeFreeRunning, nil
	default:
		return 0, fmt.Errorf("unknown pipeline mode %q", s)
	}
}

// EventConsumer drains the events produced since its last call
// Returns the number of events it applied
type EventConsumer interface {
	Consume() int
}

// DriverConfig holds the tick cadence of a run
type DriverConfig struct {
	Mode Mode

	// PhysicsInterval is the tick period; zero runs lockstep ticks back to back
	PhysicsInterval time.Duration

	// RenderInterval paces render requests in free-running mode
	RenderInterval time.Duration

	// HandshakeTimeout bounds each WaitDone in lockstep mode
	HandshakeTimeout time.Duration

	// MaxTicks ends the run after this many physics steps, zero for unbounded
	MaxTicks uint64
}

// Driver is the main-loop actor: it requests physics, optionally waits for the frame, and drains events
type Driver struct {
	coord    *Coordinator
	consumer EventConsumer
	cfg      DriverConfig
	logger   *slog.Logger

	statMode *status.AtomicString
}

// NewDriver creates a driver over a started or unstarted coordinator
func NewDriver(coord *Coordinator, consumer EventConsumer, cfg DriverConfig, logger *slog.Logger, reg *status.Registry) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	d := &Driver{
		coord:    coord,
		consumer: consumer,
		cfg:      cfg,
		logger:   logger.With("component", "driver"),
		statMode: reg.Strings.Get(status.KeyMode),
	}
	d.statMode.Store(cfg.Mode.String())
	return d
}

// Run drives ticks until ctx is done, MaxTicks is reached, or the coordinator stops
// Cancellation of ctx is a clean exit and returns nil; the caller stops the coordinator afterwards
func (d *Driver) Run(ctx context.Context) error {
	if err := d.coord.Start(); err != nil {
		return err
	}
	d.logger.Info("run started", "mode", d.cfg.Mode, "physicsInterval", d.cfg.PhysicsInterval, "renderInterval", d.cfg.RenderInterval, "maxTicks", d.cfg.MaxTicks)

	var err error
	switch d.cfg.Mode {
	case ModeFreeRunning:
		err = d.runFree(ctx)
	default:
		err = d.runLockstep(ctx)
	}

	// Events produced by the final step are still applied
	d.consumer.Consume()

	if errors.Is(err, core.ErrStopped) && ctx.Err() != nil {
		err = nil
	}
	d.logger.Info("run ended", "ticks", d.coord.Tick(), "frames", d.coord.Frames(), "error", err)
	return err
}

// runLockstep paces ticks on a deadline with drift correction
// A late tick runs immediately; falling more than two intervals behind resets the deadline
func (d *Driver) runLockstep(ctx context.Context) error {
	interval := d.cfg.PhysicsInterval
	handshake := d.cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = time.Second
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	nextDeadline := time.Now().Add(interval)
	var ticks uint64

	for {
		if d.cfg.MaxTicks > 0 && ticks >= d.cfg.MaxTicks {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		if _, err := d.coord.RequestPhysics(); err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, handshake)
		err := d.coord.WaitDone(waitCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.consumer.Consume()
		ticks++

		if interval <= 0 {
			continue
		}

		now := time.Now()
		sleep := nextDeadline.Sub(now)
		nextDeadline = nextDeadline.Add(interval)
		if now.Sub(nextDeadline) > 2*interval {
			nextDeadline = now.Add(interval)
		}
		if sleep <= 0 {
			continue
		}
		timer.Reset(sleep)
		select {
		case <-timer.C:
		case <-d.coord.Done():
			return core.ErrStopped
		case <-ctx.Done():
			return nil
		}
	}
}

// runFree requests physics and render on independent tickers and drains events on the render cadence
func (d *Driver) runFree(ctx context.Context) error {
	if d.cfg.PhysicsInterval <= 0 || d.cfg.RenderInterval <= 0 {
		return fmt.Errorf("free-running mode needs positive intervals (physics %v, render %v)", d.cfg.PhysicsInterval, d.cfg.RenderInterval)
	}

	physicsTicker := time.NewTicker(d.cfg.PhysicsInterval)
	defer physicsTicker.Stop()
	renderTicker := time.NewTicker(d.cfg.RenderInterval)
	defer renderTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.coord.Done():
			return core.ErrStopped
		case <-physicsTicker.C:
			if d.cfg.MaxTicks > 0 && d.coord.Tick() >= d.cfg.MaxTicks {
				return nil
			}
			if _, err := d.coord.RequestPhysics(); err != nil {
				return err
			}
		case <-renderTicker.C:
			if err := d.coord.RequestRender(); err != nil {
				return err
			}
			d.consumer.Consume()
		}
	}
}
