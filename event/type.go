package event

// EventType represents the type of pipeline event
type EventType int

const (
	// EventCollision signals an entity hit the world boundary or another entity
	// Trigger: PhysicsSystem clamp during a step
	// Consumer: DamageSystem | Payload: Collision
	EventCollision EventType = iota
)

func (t EventType) String() string {
	switch t {
	case EventCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// Event is the closed set of occurrences handed from physics to damage resolution
// Variants are defined in this package only; consumers dispatch with an exhaustive type switch
type Event interface {
	Type() EventType
	sealed()
}
