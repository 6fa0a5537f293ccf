package event

import (
	"github.com/lixenwraith/tickpipe/core"
)

// Collision records a contact of Entity with Other during the physics step of Tick
// Other is core.Boundary for world-edge hits; entity pairs are reserved
type Collision struct {
	Entity core.Entity
	Other  core.Entity
	Tick   uint64
}

func (Collision) Type() EventType { return EventCollision }
func (Collision) sealed()         {}

// WithBoundary reports whether the collision was against the world edge
func (c Collision) WithBoundary() bool {
	return c.Other.IsBoundary()
}
