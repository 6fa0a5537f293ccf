package component

// Health is the hit point pair of an entity
// Current is kept within [0, Max] by the damage system
type Health struct {
	Current int
	Max     int
}
