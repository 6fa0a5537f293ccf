package engine_test

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/lixenwraith/tickpipe/component"
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/event"
	"github.com/lixenwraith/tickpipe/render"
	"github.com/lixenwraith/tickpipe/status"
	"github.com/lixenwraith/tickpipe/system"
)

// frameCheck is a sink that validates every frame it is handed
type frameCheck struct {
	width, height int

	frames      atomic.Int64
	outOfBounds atomic.Int64
	lastGen     atomic.Uint64
	regressions atomic.Int64
}

func (s *frameCheck) Draw(frame render.Frame, _ render.HealthView) error {
	s.frames.Add(1)
	for _, p := range frame.Packets {
		if p.X < 0 || p.X >= s.width || p.Y < 0 || p.Y >= s.height {
			s.outOfBounds.Add(1)
		}
	}
	if prev := s.lastGen.Swap(frame.Generation); frame.Generation < prev {
		s.regressions.Add(1)
	}
	return nil
}

type pipeline struct {
	store  *engine.Store
	reg    *status.Registry
	coord  *engine.Coordinator
	damage *system.DamageSystem
	sink   *frameCheck
}

func newPipeline(t *testing.T, autoRender bool, entities int) *pipeline {
	t.Helper()
	store := engine.NewStore()
	reg := status.NewRegistry()
	q := event.NewQueue()
	bounds := system.DefaultBounds()

	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < entities; i++ {
		_, err := store.Spawn(engine.Seed{
			Position: component.Position{
				X: rng.Float64() * float64(bounds.Width-1),
				Y: rng.Float64() * float64(bounds.Height-1),
			},
			Velocity: component.Velocity{VX: rng.Float64()*4 - 2, VY: rng.Float64()*2 - 1},
			Glyph:    component.Glyph('a' + rune(i%26)),
			Health:   100,
		})
		if err != nil {
			t.Fatalf("Spawn %d failed: %v", i, err)
		}
	}

	sink := &frameCheck{width: bounds.Width, height: bounds.Height}
	pass := render.NewPass(store, sink, reg)
	phys := system.NewPhysicsSystem(store, q, bounds, 1)
	dmg := system.NewDamageSystem(store, q, 10, nil, reg)
	coord := engine.NewCoordinator(store, phys, pass, engine.CoordinatorOptions{AutoRender: autoRender, Status: reg})

	return &pipeline{store: store, reg: reg, coord: coord, damage: dmg, sink: sink}
}

// TestPipelineLockstepFrameCorrespondence verifies every physics generation is drawn exactly once
func TestPipelineLockstepFrameCorrespondence(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := newPipeline(t, true, 2)
	d := engine.NewDriver(p.coord, p.damage, engine.DriverConfig{
		Mode:             engine.ModeLockstep,
		HandshakeTimeout: time.Second,
		MaxTicks:         1000,
	}, nil, p.reg)

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := p.coord.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if p.coord.Tick() != 1000 || p.coord.Frames() != 1000 {
		t.Errorf("Expected 1000 ticks and 1000 frames, got %d and %d", p.coord.Tick(), p.coord.Frames())
	}
	if stale := p.reg.Ints.Get(status.KeyStale).Load(); stale != 0 {
		t.Errorf("Expected no stale frames in lockstep, got %d", stale)
	}
	if torn := p.reg.Ints.Get(status.KeyTorn).Load(); torn != 0 {
		t.Errorf("Expected no torn frames, got %d", torn)
	}
	if p.sink.lastGen.Load() != 1000 {
		t.Errorf("Expected last frame generation 1000, got %d", p.sink.lastGen.Load())
	}
	if oob := p.sink.outOfBounds.Load(); oob != 0 {
		t.Errorf("Expected all packets in bounds, got %d outside", oob)
	}
}

// TestPipelineNoTornReads stresses both modes with a full table and checks every frame is a single generation
func TestPipelineNoTornReads(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test")
	}

	modes := []struct {
		name string
		cfg  engine.DriverConfig
		auto bool
	}{
		{
			name: "lockstep",
			cfg:  engine.DriverConfig{Mode: engine.ModeLockstep, HandshakeTimeout: time.Second, MaxTicks: 300},
			auto: true,
		},
		{
			name: "free",
			cfg: engine.DriverConfig{
				Mode:            engine.ModeFreeRunning,
				PhysicsInterval: 200 * time.Microsecond,
				RenderInterval:  300 * time.Microsecond,
				MaxTicks:        300,
			},
		},
	}

	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			p := newPipeline(t, m.auto, core.Capacity)
			d := engine.NewDriver(p.coord, p.damage, m.cfg, nil, p.reg)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := d.Run(ctx); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if err := p.coord.Stop(time.Second); err != nil {
				t.Fatalf("Stop failed: %v", err)
			}

			if torn := p.reg.Ints.Get(status.KeyTorn).Load(); torn != 0 {
				t.Errorf("Expected no torn frames, got %d of %d", torn, p.sink.frames.Load())
			}
			if r := p.sink.regressions.Load(); r != 0 {
				t.Errorf("Expected monotonic frame generations, got %d regressions", r)
			}
			if oob := p.sink.outOfBounds.Load(); oob != 0 {
				t.Errorf("Expected all packets in bounds, got %d outside", oob)
			}
			if p.sink.frames.Load() == 0 {
				t.Error("Expected frames to be drawn")
			}
			for i, ok := range p.store.Active() {
				if !ok {
					continue
				}
				h := p.store.HealthOf(core.Entity(i))
				if h.Current < 0 || h.Current > h.Max {
					t.Fatalf("Entity %d health %d outside [0,%d]", i, h.Current, h.Max)
				}
			}
		})
	}
}

// TestPipelineShutdownBound verifies Stop joins both workers within one tick period of a busy run
func TestPipelineShutdownBound(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := newPipeline(t, true, core.Capacity)
	d := engine.NewDriver(p.coord, p.damage, engine.DriverConfig{
		Mode:             engine.ModeLockstep,
		PhysicsInterval:  time.Millisecond,
		HandshakeTimeout: time.Second,
	}, nil, p.reg)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-runErr; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start := time.Now()
	if err := p.coord.Stop(500 * time.Millisecond); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Expected prompt join, took %v", elapsed)
	}
	if !p.reg.Bools.Get(status.KeyStopping).Load() {
		t.Error("Expected stopping flag to be set")
	}
	if p.coord.State() != engine.StateStopped {
		t.Errorf("Expected stopped state, got %v", p.coord.State())
	}
}
