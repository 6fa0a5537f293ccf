package system

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/event"
	"github.com/lixenwraith/tickpipe/parameter"
	"github.com/lixenwraith/tickpipe/status"
)

// Hit reports one applied boundary collision
// Before == After when the entity was already at zero health
type Hit struct {
	Entity core.Entity
	Before int
	After  int
	Tick   uint64
}

// HitNotifier receives every hit after health is updated
type HitNotifier interface {
	NotifyHit(Hit)
}

// DamageSystem drains collision events and applies the wall-hit penalty to health
// Touches only the health table and the event queue
type DamageSystem struct {
	store    *engine.Store
	events   *event.Queue
	penalty  int
	logger   *slog.Logger
	notifier HitNotifier

	scratch []event.Event
	hits    []Hit

	statHits *atomic.Int64
}

// NewDamageSystem creates the resolver; penalty <= 0 selects the reference penalty
func NewDamageSystem(store *engine.Store, events *event.Queue, penalty int, logger *slog.Logger, reg *status.Registry) *DamageSystem {
	if penalty <= 0 {
		penalty = parameter.WallHitPenalty
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	return &DamageSystem{
		store:    store,
		events:   events,
		penalty:  penalty,
		logger:   logger.With("component", "damage"),
		statHits: reg.Ints.Get(status.KeyHits),
	}
}

// SetNotifier installs the hit observer, nil disables notification
func (s *DamageSystem) SetNotifier(n HitNotifier) {
	s.notifier = n
}

// Resolve drains every queued event once and returns the hits applied
// Never blocks; events pushed during the drain wait for the next call
// The returned slice is reused by the next call
func (s *DamageSystem) Resolve() []Hit {
	s.scratch = s.events.Drain(s.scratch[:0])
	s.hits = s.hits[:0]

	for i, ev := range s.scratch {
		switch ev := ev.(type) {
		case event.Collision:
			if h, ok := s.applyCollision(ev); ok {
				s.hits = append(s.hits, h)
			}
		default:
			panic(fmt.Sprintf("damage: unhandled event variant %T", ev))
		}
		s.scratch[i] = nil
	}

	if len(s.hits) > 0 {
		s.statHits.Add(int64(len(s.hits)))
	}
	return s.hits
}

// Consume satisfies engine.EventConsumer
func (s *DamageSystem) Consume() int {
	return len(s.Resolve())
}

// applyCollision handles boundary hits; entity pairs are reserved and ignored
func (s *DamageSystem) applyCollision(c event.Collision) (Hit, bool) {
	if !c.WithBoundary() {
		return Hit{}, false
	}
	before := s.store.Health(c.Entity)
	after := before
	if before > 0 {
		after = s.store.SetHealth(c.Entity, before-s.penalty)
	}
	h := Hit{Entity: c.Entity, Before: before, After: after, Tick: c.Tick}

	s.logger.Info("wall hit", "entity", c.Entity, "hp", after, "tick", c.Tick)
	if s.notifier != nil {
		s.notifier.NotifyHit(h)
	}
	return h, true
}
