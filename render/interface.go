package render

import (
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
)

// Sink draws a frame onto a display surface
// Implementations must not block indefinitely
type Sink interface {
	Draw(frame Frame, health HealthView) error
}

// HealthView is the read-only health table handed to sinks
type HealthView interface {
	// Each calls fn for active entities in ascending id order until fn returns false
	Each(fn func(e core.Entity, hp, maxHP int) bool)
}

// storeHealth adapts engine.Store to HealthView
type storeHealth struct {
	store *engine.Store
}

func (h storeHealth) Each(fn func(e core.Entity, hp, maxHP int) bool) {
	for i, ok := range h.store.Active() {
		if !ok {
			continue
		}
		e := core.Entity(i)
		if !fn(e, h.store.Health(e), h.store.MaxHealth(e)) {
			return
		}
	}
}

// NewHealthView exposes store health read-only
func NewHealthView(store *engine.Store) HealthView {
	return storeHealth{store: store}
}
