package render

import (
	"sync/atomic"

	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/status"
)

// Pass collects a frame from the published buffer and hands it to the sink
// Implements engine.RenderPass; only the render worker calls Present
type Pass struct {
	store   *engine.Store
	sink    Sink
	health  HealthView
	packets []DrawPacket

	lastGeneration uint64
	presented      bool

	statTorn  *atomic.Int64
	statStale *atomic.Int64
}

// NewPass creates the render pass for store drawing into sink
func NewPass(store *engine.Store, sink Sink, reg *status.Registry) *Pass {
	if reg == nil {
		reg = status.NewRegistry()
	}
	return &Pass{
		store:     store,
		sink:      sink,
		health:    NewHealthView(store),
		packets:   make([]DrawPacket, 0, 64),
		statTorn:  reg.Ints.Get(status.KeyTorn),
		statStale: reg.Ints.Get(status.KeyStale),
	}
}

// Present snapshots buffer buf and draws it
func (p *Pass) Present(buf int) error {
	frame := Collect(p.store, buf, p.packets)
	p.packets = frame.Packets

	if frame.Torn {
		p.statTorn.Add(1)
	}
	if p.presented && frame.Generation == p.lastGeneration {
		p.statStale.Add(1)
	}
	p.lastGeneration = frame.Generation
	p.presented = true

	return p.sink.Draw(frame, p.health)
}
