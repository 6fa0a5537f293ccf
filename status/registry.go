package status

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metric keys written by the pipeline
const (
	KeyTicks      = "pipeline.ticks"
	KeyFrames     = "pipeline.frames"
	KeyState      = "pipeline.state"
	KeyMode       = "pipeline.mode"
	KeyStepMicros = "pipeline.step_us"
	KeyCollisions = "physics.collisions"
	KeyHits       = "damage.hits"
	KeyTorn       = "render.torn"
	KeyStale      = "render.stale"
	KeyDrawErrors = "render.errors"
	KeyStopping   = "pipeline.stopping"
)

// Registry is the central metrics facade
// Systems cache pointers during construction; hot loops write directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Summary formats the core pipeline counters for a single status line
func (r *Registry) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s tick:%d frame:%d hits:%d",
		r.Strings.Get(KeyState).Load(),
		r.Ints.Get(KeyTicks).Load(),
		r.Ints.Get(KeyFrames).Load(),
		r.Ints.Get(KeyHits).Load(),
	)
	if stale := r.Ints.Get(KeyStale).Load(); stale > 0 {
		fmt.Fprintf(&b, " stale:%d", stale)
	}
	if torn := r.Ints.Get(KeyTorn).Load(); torn > 0 {
		fmt.Fprintf(&b, " TORN:%d", torn)
	}
	fmt.Fprintf(&b, " step:%.0fus", r.Floats.Get(KeyStepMicros).Get())
	return b.String()
}

// Dump returns every metric as key=value pairs in sorted key order, grouped by type
func (r *Registry) Dump() []string {
	out := make([]string, 0, r.TotalCount())
	for k, v := range r.Bools.All() {
		out = append(out, fmt.Sprintf("%s=%t", k, v.Load()))
	}
	for k, v := range r.Ints.All() {
		out = append(out, fmt.Sprintf("%s=%d", k, v.Load()))
	}
	for k, v := range r.Floats.All() {
		out = append(out, fmt.Sprintf("%s=%.2f", k, v.Get()))
	}
	for k, v := range r.Strings.All() {
		out = append(out, fmt.Sprintf("%s=%s", k, v.Load()))
	}
	return out
}
