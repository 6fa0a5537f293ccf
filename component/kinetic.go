package component

// Position is a world-space coordinate pair, one copy per position buffer
type Position struct {
	X, Y float64
}

// Velocity is the per-step displacement applied by the physics system
// The zero value means the position is only carried forward, never integrated
type Velocity struct {
	VX, VY float64
}

// IsZero reports whether both components are zero
func (v Velocity) IsZero() bool {
	return v.VX == 0 && v.VY == 0
}
