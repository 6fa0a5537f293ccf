package system

import (
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/event"
	"github.com/lixenwraith/tickpipe/parameter"
)

// Bounds is the playable rectangle, coordinates are clamped to [0, Width-1] x [0, Height-1]
type Bounds struct {
	Width, Height int
}

// DefaultBounds returns the reference 80x25 world
func DefaultBounds() Bounds {
	return Bounds{Width: parameter.WorldWidth, Height: parameter.WorldHeight}
}

// PhysicsSystem integrates positions from the current buffer into the next buffer
// Owns the next buffer and the velocity table for the duration of a step
type PhysicsSystem struct {
	store  *engine.Store
	events *event.Queue
	bounds Bounds
	dt     float64
}

// NewPhysicsSystem creates the physics step over store
// dt scales velocity per step; 1.0 adds velocity directly once per tick
func NewPhysicsSystem(store *engine.Store, events *event.Queue, bounds Bounds, dt float64) *PhysicsSystem {
	if dt == 0 {
		dt = parameter.StepScale
	}
	return &PhysicsSystem{
		store:  store,
		events: events,
		bounds: bounds,
		dt:     dt,
	}
}

// Step copies every active position from cur into next, integrates, clamps, and emits boundary collisions
// Inactive slots in next are left untouched
func (s *PhysicsSystem) Step(cur, next int, tick uint64) int {
	src := s.store.Positions(cur)
	dst := s.store.Positions(next)
	stamps := s.store.Stamps(next)
	vel := s.store.Velocities()
	active := s.store.Active()

	maxX := float64(s.bounds.Width - 1)
	maxY := float64(s.bounds.Height - 1)
	collisions := 0

	for i := range active {
		if !active[i] {
			continue
		}
		e := core.Entity(i)

		// Copy for every active entity so a zero-velocity slot is never left stale in next
		p := src[i]
		v := &vel[i]

		if !v.IsZero() {
			p.X += v.VX * s.dt
			p.Y += v.VY * s.dt

			if p.X < 0 {
				p.X = 0
				v.VX = -v.VX
				collisions += s.emit(e, tick)
			} else if p.X > maxX {
				p.X = maxX
				v.VX = -v.VX
				collisions += s.emit(e, tick)
			}
			if p.Y < 0 {
				p.Y = 0
				v.VY = -v.VY
				collisions += s.emit(e, tick)
			} else if p.Y > maxY {
				p.Y = maxY
				v.VY = -v.VY
				collisions += s.emit(e, tick)
			}
		}

		dst[i] = p
		stamps[i] = tick
	}
	return collisions
}

func (s *PhysicsSystem) emit(e core.Entity, tick uint64) int {
	s.events.Push(event.Collision{Entity: e, Other: core.Boundary, Tick: tick})
	return 1
}
