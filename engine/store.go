package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/lixenwraith/tickpipe/component"
	"github.com/lixenwraith/tickpipe/core"
)

// Seed is the initial component data for a spawned entity
type Seed struct {
	Position component.Position
	Velocity component.Velocity
	Glyph    component.Glyph
	Health   int
}

// Store is the fixed-capacity entity table
// Position is double buffered: the front buffer is read by render, the back buffer is written by physics
// Ownership, not locking, protects the tables:
//   - physics: back buffer, stamps of back buffer, velocities
//   - render: front buffer, stamps of front buffer, glyphs, active flags (read only)
//   - damage: health (atomic, so the render sink may read it concurrently)
//
// Create, Spawn and Destroy mutate active flags and are only legal while no pipeline is running
type Store struct {
	front atomic.Int32

	positions [2][]component.Position
	stamps    [2][]uint64

	velocities []component.Velocity
	glyphs     []component.Glyph
	health     []atomic.Int32
	maxHealth  []int32
	active     []bool
	count      int
}

// NewStore allocates every table at full capacity
func NewStore() *Store {
	s := &Store{
		velocities: make([]component.Velocity, core.Capacity),
		glyphs:     make([]component.Glyph, core.Capacity),
		health:     make([]atomic.Int32, core.Capacity),
		maxHealth:  make([]int32, core.Capacity),
		active:     make([]bool, core.Capacity),
	}
	for i := range s.positions {
		s.positions[i] = make([]component.Position, core.Capacity)
		s.stamps[i] = make([]uint64, core.Capacity)
	}
	return s
}

// Create claims the first inactive slot
// Returns core.ErrFull when every slot is active
func (s *Store) Create() (core.Entity, error) {
	for i := range s.active {
		if !s.active[i] {
			s.active[i] = true
			s.count++
			return core.Entity(i), nil
		}
	}
	return 0, core.ErrFull
}

// Destroy clears the active flag, leaving the slot for the next Create scan
// Component values of the slot are left as-is and must not be read while inactive
func (s *Store) Destroy(e core.Entity) {
	if s.active[e] {
		s.active[e] = false
		s.count--
	}
}

// Spawn creates an entity and writes its seed into both position buffers
func (s *Store) Spawn(seed Seed) (core.Entity, error) {
	e, err := s.Create()
	if err != nil {
		return 0, err
	}
	s.positions[0][e] = seed.Position
	s.positions[1][e] = seed.Position
	s.stamps[0][e] = 0
	s.stamps[1][e] = 0
	s.velocities[e] = seed.Velocity
	s.glyphs[e] = seed.Glyph
	s.maxHealth[e] = int32(seed.Health)
	s.health[e].Store(int32(seed.Health))
	return e, nil
}

// Handle validates a raw id at the boundary of the store
func (s *Store) Handle(id uint32) (core.Entity, error) {
	if id >= core.Capacity {
		return 0, fmt.Errorf("%w: %d", core.ErrOutOfRange, id)
	}
	if !s.active[id] {
		return 0, fmt.Errorf("%w: %d", core.ErrInactive, id)
	}
	return core.Entity(id), nil
}

// IsActive reports whether the slot is active
func (s *Store) IsActive(e core.Entity) bool {
	return s.active[e]
}

// Count returns the number of active entities
func (s *Store) Count() int {
	return s.count
}

// Active exposes the active-flag table
func (s *Store) Active() []bool {
	return s.active
}

// FrontIndex loads the current buffer index with acquire ordering
func (s *Store) FrontIndex() int {
	return int(s.front.Load())
}

// Publish makes idx the current buffer with release ordering
// Every write to buffer idx made before Publish is visible to a reader that loads idx via FrontIndex
// Only the physics worker publishes while a pipeline runs
func (s *Store) Publish(idx int) {
	s.front.Store(int32(idx))
}

// Positions exposes position buffer idx
func (s *Store) Positions(idx int) []component.Position {
	return s.positions[idx]
}

// Stamps exposes the step-generation stamps of buffer idx
// Physics writes the step tick of every slot it writes; render uses them to detect torn frames
func (s *Store) Stamps(idx int) []uint64 {
	return s.stamps[idx]
}

// Velocities exposes the velocity table
func (s *Store) Velocities() []component.Velocity {
	return s.velocities
}

// Glyphs exposes the glyph table
func (s *Store) Glyphs() []component.Glyph {
	return s.glyphs
}

// Health returns current health of e
func (s *Store) Health(e core.Entity) int {
	return int(s.health[e].Load())
}

// MaxHealth returns the initial health of e, the upper clamp bound
func (s *Store) MaxHealth(e core.Entity) int {
	return int(s.maxHealth[e])
}

// SetHealth stores v clamped to [0, MaxHealth(e)]
func (s *Store) SetHealth(e core.Entity, v int) int {
	v = max(0, min(v, int(s.maxHealth[e])))
	s.health[e].Store(int32(v))
	return v
}

// HealthOf returns the health pair of e
func (s *Store) HealthOf(e core.Entity) component.Health {
	return component.Health{Current: s.Health(e), Max: s.MaxHealth(e)}
}
