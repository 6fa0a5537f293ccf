package parameter

import "time"

// Pipeline Timing
const (
	// PhysicsInterval is the reference physics step cadence (~60 Hz)
	PhysicsInterval = 16 * time.Millisecond

	// RenderInterval is the reference render cadence (~60 FPS)
	RenderInterval = 16 * time.Millisecond

	// HandshakeTimeout bounds a single completion wait in lockstep mode
	HandshakeTimeout = 1 * time.Second

	// ShutdownTimeout bounds worker join after the running flag is cleared
	ShutdownTimeout = 2 * time.Second
)

// Event Queue
const (
	// EventQueueInitialCap is the preallocated backing capacity of the event queue
	EventQueueInitialCap = 64
)
